// Package sentiment scores review text with a fixed lexicon.
//
// The scorer walks the words of a text, looks each one up in a polarity
// lexicon and averages the hits.  Intensifiers ("very", "really") scale the
// next scored word and negations ("not", "never", "n't") flip it at half
// strength.  The result lies in [-1, 1]; Classify maps it onto the three
// sentiment values with zero, and only zero, mapping to Neutral.
package sentiment

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// negationFactor is applied to a scored word preceded by a negation.
const negationFactor = -0.5

// precision is the number of decimal places kept in a polarity score so that
// floating point noise never pushes a balanced text off zero.
const precision = 1e6

// Classify returns Positive for a polarity above zero, Negative below zero
// and Neutral otherwise.  Empty text is Neutral.
func Classify(text string) model.Sentiment {
	p := Polarity(text)
	switch {
	case p > 0:
		return model.SentimentPositive
	case p < 0:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

// Polarity returns the mean polarity of the opinion words in text, clamped
// to [-1, 1].  A text without opinion words scores 0.
func Polarity(text string) float64 {
	var (
		sum     float64
		n       int
		mult    = 1.0
		negated bool
	)
	for _, tok := range tokenize(text) {
		if tok == "" {
			// sentence break
			mult, negated = 1.0, false
			continue
		}
		if v, ok := emoticons[tok]; ok {
			sum += v
			n++
			continue
		}
		if negations[tok] {
			negated = !negated
			continue
		}
		if f, ok := intensifiers[tok]; ok {
			mult *= f
			continue
		}
		v, ok := lexicon[tok]
		if !ok {
			continue
		}
		v *= mult
		if negated {
			v *= negationFactor
		}
		sum += clamp(v)
		n++
		mult, negated = 1.0, false
	}
	if n == 0 {
		return 0
	}
	return math.Round(clamp(sum/float64(n))*precision) / precision
}

// tokenize folds case and splits text into words.  Emoticons survive as
// single tokens, "n't" is emitted as a separate negation token and an empty
// token marks the end of a clause.
// Typographic apostrophes fold to ASCII so contractions like didn’t negate.
var apostrophes = strings.NewReplacer("\u2019", "'", "\u2018", "'", "\u02bc", "'")

func tokenize(text string) []string {
	folded := cases.Fold().String(apostrophes.Replace(text))
	var out []string
	for _, field := range strings.Fields(folded) {
		if _, ok := emoticons[field]; ok {
			out = append(out, field)
			continue
		}
		words := strings.FieldsFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && r != '\''
		})
		for _, w := range words {
			w = strings.Trim(w, "'")
			if base, ok := strings.CutSuffix(w, "n't"); ok {
				if base != "" {
					out = append(out, base)
				}
				out = append(out, "not")
				continue
			}
			if w != "" {
				out = append(out, w)
			}
		}
		if strings.ContainsAny(field, ".!?;,") {
			out = append(out, "")
		}
	}
	return out
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
