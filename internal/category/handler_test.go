package category

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespondErrorStatus(t *testing.T) {
	h := &Handler{}

	tests := []struct {
		name string
		err  error
		want int
	}{
		// ErrCategoryNotFound must reach 404 even when it surfaces from the
		// repository, as on a delete that races to zero affected rows.
		{"missing category", ErrCategoryNotFound, http.StatusNotFound},
		{"duplicate name", ErrDuplicateName, http.StatusConflict},
		{"global default", ErrDefaultReadOnly, http.StatusForbidden},
		{"foreign category", ErrNotAuthorized, http.StatusForbidden},
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
