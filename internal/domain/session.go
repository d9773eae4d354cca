package domain

import "time"

type Stage string

const (
	StageDiscovered Stage = "discovered"
	StageOpening    Stage = "opening"
	StageFilling    Stage = "filling"
	StageReviewing  Stage = "reviewing"
	StageDone       Stage = "done"
)

type Outcome string

const (
	OutcomePending     Outcome = "pending"
	OutcomeFilteredOut Outcome = "filtered_out"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeSubmitted   Outcome = "submitted"
	OutcomeDiscarded   Outcome = "discarded"
	OutcomeFailed      Outcome = "failed"
)

func (o Outcome) Terminal() bool { return o != OutcomePending && o != "" }

// ApplicationSession is the per-posting mutable state owned by the workflow.
type ApplicationSession struct {
	Job        JobPosting
	Stage      Stage
	Page       int
	Answers    map[string]string // field signature (or id) -> applied value
	Outcome    Outcome
	Reason     string
	ResumePath string
	StartedAt  time.Time
}

func NewApplicationSession(job JobPosting, now time.Time) *ApplicationSession {
	return &ApplicationSession{
		Job:       job,
		Stage:     StageDiscovered,
		Answers:   map[string]string{},
		Outcome:   OutcomePending,
		StartedAt: now,
	}
}

// Finish moves the session to a terminal outcome. The first terminal outcome wins.
func (s *ApplicationSession) Finish(o Outcome, reason string) {
	if s.Outcome.Terminal() {
		return
	}
	s.Outcome = o
	s.Reason = reason
}

// OutcomeRecord is the run-log line written for every processed posting.
type OutcomeRecord struct {
	RunID     string    `json:"run_id"`
	JobID     string    `json:"job_id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	URL       string    `json:"url"`
	Outcome   Outcome   `json:"outcome"`
	Stage     Stage     `json:"stage"`
	Reason    string    `json:"reason,omitempty"`
	Resume    string    `json:"resume,omitempty"`
	Pages     int       `json:"pages"`
	Answered  int       `json:"answered"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

func (s *ApplicationSession) Record(runID string, now time.Time) OutcomeRecord {
	return OutcomeRecord{
		RunID:     runID,
		JobID:     s.Job.ID,
		Title:     s.Job.Title,
		Company:   s.Job.Company,
		URL:       s.Job.URL,
		Outcome:   s.Outcome,
		Stage:     s.Stage,
		Reason:    s.Reason,
		Resume:    s.ResumePath,
		Pages:     s.Page,
		Answered:  len(s.Answers),
		StartedAt: s.StartedAt,
		EndedAt:   now,
	}
}
