package cleaner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers(t *testing.T) {
	c := newTestCleaner(t)
	r := chi.NewRouter()
	c.RegisterRoutes(r)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("status before run", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var s Status
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
		assert.Equal(t, c.ID().String(), s.ID)
		assert.Equal(t, StateCreated, s.State)
	})

	t.Run("status after run", func(t *testing.T) {
		dir := t.TempDir()
		input := writeInput(t, dir, petstoreInput)
		_, err := c.Run(context.Background(), input, filepath.Join(dir, "out"))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

		var s Status
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
		assert.Equal(t, StateCompleted, s.State)
		assert.Equal(t, input, s.Input)
		assert.Equal(t, int64(2), s.Stats.NumSourceRecords)
	})
}
