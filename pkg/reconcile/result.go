package reconcile

import (
	"fmt"
	"time"

	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/sources"
)

// Result represents the outcome of a reconciliation pass.
type Result struct {
	// Violations are in check order, each check in input order.
	Violations []errors.Violation `json:"violations" yaml:"violations"`
	// Warnings are informational and never block publication.
	Warnings []string `json:"warnings" yaml:"warnings"`
	// Stats is set only when there is no violation.
	Stats *Stats `json:"stats,omitempty" yaml:"stats,omitempty"`

	Metadata ResultMetadata `json:"metadata" yaml:"metadata"`
}

// ResultMetadata contains metadata about the reconciliation pass.
type ResultMetadata struct {
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	// Sources that were reconciled against the roster
	Sources []sources.ID `json:"sources" yaml:"sources"`
}

// Stats describes how complete the volunteer records are.
type Stats struct {
	Volunteers int `json:"volunteers" yaml:"volunteers"`
	Complete   int `json:"complete" yaml:"complete"`
	Incomplete int `json:"incomplete" yaml:"incomplete"`
	// Mention references every incomplete volunteer in the chat, roster order.
	Mention string `json:"mention" yaml:"mention"`
	// Missing lists the empty required fields of each incomplete volunteer.
	Missing []MissingFields `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// MissingFields lists the required fields a volunteer left empty.
type MissingFields struct {
	Person string   `json:"person" yaml:"person"`
	Fields []string `json:"fields" yaml:"fields"`
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		Violations: []errors.Violation{},
		Warnings:   []string{},
		Metadata: ResultMetadata{
			StartTime: time.Now(),
			Sources:   []sources.ID{},
		},
	}
}

// IsSuccess returns true if no violation was found.
func (r *Result) IsSuccess() bool {
	return len(r.Violations) == 0
}

// Err returns a ConsistencyError carrying every violation, or nil.
func (r *Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &errors.ConsistencyError{Violations: r.Violations}
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	if !r.IsSuccess() {
		return fmt.Sprintf("Reconciliation failed with %d violations", len(r.Violations))
	}
	if r.Stats == nil {
		return "Reconciliation completed."
	}
	return fmt.Sprintf("Reconciliation completed. %d volunteers, %d complete, %d incomplete.",
		r.Stats.Volunteers, r.Stats.Complete, r.Stats.Incomplete)
}

// CountByCheck returns the number of violations per check code.
func (r *Result) CountByCheck() map[string]int {
	counts := make(map[string]int)
	for _, v := range r.Violations {
		counts[v.Check]++
	}
	return counts
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}

func (r *Result) add(check string, source sources.ID, email, format string, args ...any) {
	r.Violations = append(r.Violations, errors.Violation{
		Check:   check,
		Source:  source.String(),
		Email:   email,
		Message: fmt.Sprintf(format, args...),
	})
}
