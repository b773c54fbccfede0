package cleaner

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c *Cleaner) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (c *Cleaner) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c.Status())
}

func (c *Cleaner) RegisterRoutes(r chi.Router) {
	r.Get("/health", c.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", c.GetStatus)
	})
}
