package events

import (
	"encoding/json"
	"time"
)

const (
	RunStarted    = "run.started"
	RunFinished   = "run.finished"
	JobOutcome    = "job.outcome"
	AnswerLearned = "answer.learned"
)

type Event struct {
	Type    string          `json:"type"`
	Version int             `json:"v"`
	At      time.Time       `json:"at"`
	RunID   string          `json:"run_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MakeEvent renders one envelope as a single JSON line.
func MakeEvent(runID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:    typ,
		Version: v,
		At:      time.Now().UTC(),
		RunID:   runID,
		Data:    raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

func Parse(line string) (Event, error) {
	var e Event
	err := json.Unmarshal([]byte(line), &e)
	return e, err
}
