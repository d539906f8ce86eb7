package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go-soilwater/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{models.Validationf("radius must be > 0"), http.StatusBadRequest},
		{fmt.Errorf("%w: pyramid", models.ErrInvalidShape), http.StatusBadRequest},
		{fmt.Errorf("%w: flower", models.ErrUnknownTask), http.StatusNotFound},
		{models.ErrCalibration, http.StatusUnprocessableEntity},
		{models.ErrEstimation, http.StatusUnprocessableEntity},
		{models.ErrEmptyRegion, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestPublicID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := NewPublicID()
		if err != nil {
			t.Fatal(err)
		}
		if !ValidatePublicID(id) {
			t.Fatalf("ValidatePublicID(%q) = false", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
	for _, bad := range []string{"", "short", "0123456789abcde!", "0123456789abcdefg"} {
		if ValidatePublicID(bad) {
			t.Errorf("ValidatePublicID(%q) = true", bad)
		}
	}
}
