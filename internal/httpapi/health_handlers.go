package httpapi

import (
	"net/http"
	"sync/atomic"
	"time"
)

type HealthHandler struct {
	Status *atomic.Value // stores RunStatus
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h HealthHandler) RunStatus(w http.ResponseWriter, r *http.Request) {
	var st RunStatus
	if h.Status != nil {
		if v, ok := h.Status.Load().(RunStatus); ok {
			st = v
		}
	}
	writeJSON(w, st)
}
