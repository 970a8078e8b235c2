package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/iliyamo/movie-review-api/internal/model"
)

type sample struct {
	Name  string `json:"name" validate:"notblank,max=5"`
	Stars int    `json:"stars" validate:"gte=1,lte=5"`
	URL   string `json:"poster_url" validate:"omitempty,url"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"valid", sample{Name: "ok", Stars: 3}, ""},
		{"blank name", sample{Name: "   ", Stars: 3}, "name is required"},
		{"long name", sample{Name: "toolong", Stars: 3}, "name must be at most 5 characters"},
		{"stars low", sample{Name: "a", Stars: 0}, "stars must be greater than or equal to 1"},
		{"stars high", sample{Name: "a", Stars: 6}, "stars must be less than or equal to 5"},
		{"bad url", sample{Name: "a", Stars: 1, URL: "not a url"}, "poster_url must be a valid URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, model.ErrValidation) {
				t.Fatalf("error %v is not ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}
