package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"easyapply-engine/internal/config"
	"easyapply-engine/internal/secrets"
)

type SecretsHandler struct {
	Cfg config.Config
}

type setSecretReq struct {
	Secret string `json:"secret"`
}

// SetByPath stores a secret in the OS keychain. Loopback callers only.
func (h SecretsHandler) SetByPath(w http.ResponseWriter, r *http.Request) {
	if !fromLoopback(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}
	var account string
	switch strings.TrimPrefix(r.URL.Path, "/api/secrets/") {
	case "site":
		account = secrets.SiteAccount(h.Cfg)
	case "imap":
		account = secrets.IMAPAccount(h.Cfg)
	case "llm":
		account = secrets.LLMAccount(h.Cfg)
	default:
		WriteError(w, r, http.StatusNotFound, "unknown_secret", "unknown secret")
		return
	}

	var req setSecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Secret) == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "body must be {\"secret\": \"...\"}")
		return
	}
	if err := secrets.Set(account, req.Secret); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keychain_error", "failed to store secret: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
