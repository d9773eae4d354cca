package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/events"
	"easyapply-engine/internal/store"
)

type AnswersHandler struct {
	Answers *store.Answers
	Hub     *events.Hub
}

func (h AnswersHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Answers.All())
}

type putAnswerReq struct {
	Signature string   `json:"signature"`
	Question  string   `json:"question"`
	Kind      string   `json:"kind"`
	Answer    string   `json:"answer"`
	Options   []string `json:"options"`
}

// Put stores a manual answer. Either signature or question must be given; a question
// is normalized the same way form labels are.
func (h AnswersHandler) Put(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req putAnswerReq
	if err := dec.Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	sig := strings.TrimSpace(req.Signature)
	if sig == "" {
		sig = domain.Signature(req.Question, domain.FieldKind(req.Kind), req.Kind != "")
	}
	if sig == "" || strings.TrimSpace(req.Answer) == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_answer", "signature (or question) and answer are required")
		return
	}

	rule := domain.AnswerRule{
		Signature: sig,
		Answer:    strings.TrimSpace(req.Answer),
		Options:   req.Options,
		Source:    domain.SourceManual,
		Question:  req.Question,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.Answers.Upsert(r.Context(), rule); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if h.Hub != nil {
		h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.AnswerLearned, 1, rule))
	}
	writeJSON(w, rule)
}

func (h AnswersHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.EscapedPath(), "/answers/")
	sig, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(sig) == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_signature", "invalid signature")
		return
	}
	if err := h.Answers.Delete(r.Context(), sig); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			WriteError(w, r, http.StatusNotFound, "not_found", "no answer for signature")
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true, "signature": sig})
}
