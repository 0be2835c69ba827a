package httpx

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsWrappedSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("item 9: %w", ErrNotFound), http.StatusNotFound},
		{"duplicate", fmt.Errorf("sku taken: %w", ErrDuplicate), http.StatusConflict},
		{"validation", fmt.Errorf("name required: %w", ErrValidation), http.StatusBadRequest},
		{"conflict", fmt.Errorf("already processed: %w", ErrConflict), http.StatusConflict},
		{"unmapped", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			require.Equal(t, tc.code, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
