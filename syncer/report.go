package syncer

import (
	"time"

	"github.com/jrsteele09/viserion/providers"
)

// Trigger records what started a sync cycle.
type Trigger string

const (
	TriggerRedirect  Trigger = "redirect"
	TriggerStartup   Trigger = "startup"
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// Outcome is the result of one fetch-and-persist task within a cycle.
type Outcome struct {
	Kind      providers.EntityKind `json:"kind"`
	Store     providers.Namespace  `json:"store"`
	Fetched   bool                 `json:"fetched"`
	Persisted bool                 `json:"persisted"`
	Count     int                  `json:"count"`
	Err       error                `json:"-"`
}

// Report aggregates every outcome of one sync cycle for one provider.
type Report struct {
	CycleID        string             `json:"cycle_id"`
	Provider       providers.Provider `json:"provider"`
	Trigger        Trigger            `json:"trigger"`
	Skipped        bool               `json:"skipped"`
	TokenPersisted bool               `json:"token_persisted"`
	Outcomes       []Outcome          `json:"outcomes"`
	Err            error              `json:"-"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
}

// OK reports whether the cycle ran and every entity was fetched and persisted.
func (r *Report) OK() bool {
	if r == nil || r.Skipped || r.Err != nil {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.Persisted {
			return false
		}
	}
	return true
}

// Failed returns the outcomes that did not persist.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	if r == nil {
		return failed
	}
	for _, o := range r.Outcomes {
		if !o.Persisted {
			failed = append(failed, o)
		}
	}
	return failed
}

// Outcome returns the outcome for kind.
func (r *Report) Outcome(kind providers.EntityKind) (Outcome, bool) {
	if r == nil {
		return Outcome{}, false
	}
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			return o, true
		}
	}
	return Outcome{}, false
}

func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
