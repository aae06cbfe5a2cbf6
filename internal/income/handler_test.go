package income

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mlucero/gastos/internal/category"
)

func TestRespondErrorStatus(t *testing.T) {
	h := &Handler{}

	tests := []struct {
		name string
		err  error
		want int
	}{
		// ErrIncomeNotFound must reach 404 even when it surfaces from the
		// repository, as on a delete that races to zero affected rows.
		{"missing income", ErrIncomeNotFound, http.StatusNotFound},
		{"missing category", category.ErrCategoryNotFound, http.StatusNotFound},
		{"wrong category type", ErrWrongCategoryType, http.StatusBadRequest},
		{"foreign category", category.ErrNotAuthorized, http.StatusForbidden},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.respondError(rec, tt.err, "fallback")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
