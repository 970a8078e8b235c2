package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Debug().Str("k", "v").Msg("hello")
	out := buf.String()
	if !strings.Contains(out, `"message":"hello"`) || !strings.Contains(out, `"k":"v"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Msg("dropped")
	Warn().Msg("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("level filter not applied: %s", buf.String())
	}
}

func TestCtxCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	l := zerolog.New(&buf).With().Str("request_id", "abc").Logger()
	ctx := WithContext(context.Background(), l)
	Ctx(ctx).Info().Msg("in request")
	if !strings.Contains(buf.String(), `"request_id":"abc"`) {
		t.Fatalf("request id missing: %s", buf.String())
	}

	buf.Reset()
	Ctx(context.Background()).Info().Msg("global")
	if !strings.Contains(buf.String(), "global") {
		t.Fatalf("fallback logger not used: %s", buf.String())
	}
}
