package httpapi

import (
	"net/http"
	"time"
)

// NewMux wires the status API routes.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{Status: d.Status}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))
	mux.HandleFunc("/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.RunStatus,
	}))

	// Outcomes
	oh := OutcomesHandler{DB: d.DB}
	mux.HandleFunc("/outcomes", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: oh.List,
	}))
	mux.HandleFunc("/outcomes/counts", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: oh.Counts,
	}))
	mux.HandleFunc("/outcomes/cleanup", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: oh.Cleanup,
	}))

	// Answers
	ah := AnswersHandler{Answers: d.Answers, Hub: d.Hub}
	mux.HandleFunc("/answers", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.List,
		http.MethodPut: ah.Put,
	}))
	mux.HandleFunc("/answers/", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: ah.DeleteByPath, // expects /answers/{signature}
	}))

	// Config; PUT saves for the next run
	ch := ConfigHandler{Cfg: d.Cfg, CfgPath: d.CfgPath}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.Validate,
	}))

	// Secrets
	sh := SecretsHandler{Cfg: d.Cfg}
	mux.HandleFunc("/api/secrets/", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetByPath, // expects /api/secrets/{site|imap|llm}
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// NewServer returns the status server with the standard middleware chain.
func NewServer(addr string, d Deps) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           Chain(NewMux(d), RequestID, Recover, AccessLog, Cors),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
