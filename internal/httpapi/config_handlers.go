package httpapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"easyapply-engine/internal/config"
)

// ConfigHandler serves the config the run started with. Edits are written to disk for the
// next run; the running one keeps its copy.
type ConfigHandler struct {
	Cfg     config.Config
	CfgPath string
}

const maxConfigBody = 1 << 20

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Cfg)
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.CfgPath)
	writeJSON(w, map[string]any{"path": abs})
}

// decodeYAML reads a config document from the body over the defaults, as config.Load does.
// ok is false when the body is empty.
func decodeYAML(r *http.Request) (cfg config.Config, ok bool, err error) {
	cfg = config.Default()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBody))
	if err != nil {
		return cfg, false, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return cfg, false, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(body))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, false, err
	}
	return cfg, true, nil
}

// Put replaces the config file with the YAML body after validating it. Loopback callers only.
func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	if !fromLoopback(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}
	cfg, ok, err := decodeYAML(r)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_yaml", "invalid YAML: "+err.Error())
		return
	}
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "empty_body", "a YAML config document is required")
		return
	}
	norm, vr := config.NormalizeAndValidate(cfg)
	if !vr.OK() {
		WriteJSON(w, http.StatusUnprocessableEntity, vr)
		return
	}
	if err := config.SaveAtomic(h.CfgPath, norm); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true, "warnings": vr.Warnings, "applies": "next run"})
}

// Validate checks the YAML body, or the file on disk when the body is empty, so edits for
// the next run can be checked early.
func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cfg, ok, err := decodeYAML(r)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_yaml", "invalid YAML: "+err.Error())
		return
	}
	if !ok {
		if cfg, err = config.Load(h.CfgPath); err != nil {
			WriteError(w, r, http.StatusBadRequest, "config_invalid", err.Error())
			return
		}
	}
	_, vr := config.NormalizeAndValidate(cfg)
	writeJSON(w, vr)
}
