package sentiment

// lexicon maps folded words to a polarity in [-1, 1].
var lexicon = map[string]float64{
	// positive
	"good":          0.7,
	"great":         0.8,
	"excellent":     1.0,
	"amazing":       0.6,
	"awesome":       1.0,
	"wonderful":     1.0,
	"fantastic":     0.4,
	"brilliant":     0.9,
	"superb":        1.0,
	"outstanding":   0.5,
	"perfect":       1.0,
	"best":          1.0,
	"better":        0.5,
	"nice":          0.6,
	"fine":          0.4,
	"enjoyable":     0.5,
	"enjoyed":       0.5,
	"enjoy":         0.4,
	"love":          0.5,
	"loved":         0.7,
	"lovely":        0.5,
	"like":          0.2,
	"liked":         0.4,
	"beautiful":     0.85,
	"beautifully":   0.85,
	"masterpiece":   0.9,
	"fun":           0.3,
	"funny":         0.25,
	"hilarious":     0.5,
	"moving":        0.4,
	"touching":      0.5,
	"stunning":      0.5,
	"gripping":      0.5,
	"compelling":    0.5,
	"charming":      0.5,
	"clever":        0.5,
	"smart":         0.2,
	"fresh":         0.3,
	"solid":         0.3,
	"entertaining":  0.5,
	"impressive":    1.0,
	"memorable":     0.5,
	"recommend":     0.5,
	"recommended":   0.5,
	"happy":         0.8,
	"glad":          0.5,
	"delightful":    1.0,
	"strong":        0.4,
	"powerful":      0.3,
	"engaging":      0.4,
	"thrilling":     0.6,
	"incredible":    0.9,
	"favorite":      0.5,
	"favourite":     0.5,
	"epic":          0.5,
	"cool":          0.35,
	"interesting":   0.5,
	"well":          0.1,
	"worth":         0.3,
	"satisfying":    0.5,
	"pleasant":      0.7,
	"wow":           0.1,
	"remarkable":    0.75,
	"breathtaking":  0.8,
	"heartwarming":  0.6,
	"phenomenal":    1.0,
	"flawless":      0.9,
	"spectacular":   0.6,
	"underrated":    0.3,
	"captivating":   0.7,
	"terrific":      1.0,
	"joy":           0.8,

	// negative
	"bad":           -0.7,
	"worse":         -0.4,
	"worst":         -1.0,
	"terrible":      -1.0,
	"awful":         -1.0,
	"horrible":      -1.0,
	"poor":          -0.4,
	"poorly":        -0.4,
	"boring":        -1.0,
	"bored":         -0.5,
	"dull":          -0.3,
	"weak":          -0.375,
	"hate":          -0.8,
	"hated":         -0.9,
	"dislike":       -0.5,
	"disappointing": -0.6,
	"disappointed":  -0.75,
	"disappointment": -0.6,
	"waste":         -0.2,
	"wasted":        -0.2,
	"stupid":        -0.8,
	"dumb":          -0.375,
	"mess":          -0.4,
	"messy":         -0.3,
	"predictable":   -0.3,
	"pointless":     -0.5,
	"confusing":     -0.3,
	"slow":          -0.3,
	"overrated":     -0.4,
	"annoying":      -0.8,
	"painful":       -0.7,
	"ugly":          -0.7,
	"sad":           -0.5,
	"mediocre":      -0.5,
	"forgettable":   -0.4,
	"bland":         -0.3,
	"lame":          -0.5,
	"ridiculous":    -0.33,
	"nonsense":      -0.5,
	"unwatchable":   -1.0,
	"garbage":       -0.8,
	"trash":         -0.6,
	"flawed":        -0.4,
	"tedious":       -0.6,
	"clumsy":        -0.3,
	"cheap":         -0.2,
	"lazy":          -0.25,
	"shallow":       -0.3,
	"worthless":     -0.8,
	"fail":          -0.5,
	"failed":        -0.5,
	"flop":          -0.5,
	"disaster":      -0.8,
	"cringe":        -0.6,
	"pathetic":      -1.0,
	"unbearable":    -0.9,
	"wrong":         -0.5,
}

// intensifiers scale the next scored word.
var intensifiers = map[string]float64{
	"very":        1.3,
	"really":      1.3,
	"extremely":   1.5,
	"incredibly":  1.4,
	"so":          1.2,
	"too":         1.2,
	"truly":       1.3,
	"absolutely":  1.5,
	"totally":     1.3,
	"quite":       1.1,
	"super":       1.4,
	"pretty":      1.1,
	"most":        1.2,
	"highly":      1.3,
	"somewhat":    0.7,
	"slightly":    0.6,
	"barely":      0.5,
	"kinda":       0.7,
	"rather":      0.9,
}

// negations flip the next scored word.
var negations = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"nothing": true,
	"hardly":  true,
	"neither": true,
	"nor":     true,
	"without": true,
}

// emoticons are scored as standalone tokens.
var emoticons = map[string]float64{
	":)":  0.5,
	":-)": 0.5,
	":d":  1.0,
	";)":  0.5,
	"<3":  0.6,
	":(":  -0.75,
	":-(": -0.75,
	":'(": -0.75,
}
