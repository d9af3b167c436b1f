package directory

import (
	"sync"

	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/publish"
)

// Hook function types for build events
type (
	// ViolationHook is called once per reconciliation violation, in check order
	ViolationHook func(v errors.Violation)

	// PublishedHook is called after the document has been written
	PublishedHook func(report *publish.Report)
)

// hooks manages event callbacks for builds
type hooks struct {
	mu          sync.RWMutex
	onViolation []ViolationHook
	onPublished []PublishedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnViolation registers a callback for violations
func (h *hooks) OnViolation(fn ViolationHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onViolation = append(h.onViolation, fn)
}

// OnPublished registers a callback for publications
func (h *hooks) OnPublished(fn PublishedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPublished = append(h.onPublished, fn)
}

func (h *hooks) triggerViolations(violations []errors.Violation) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, v := range violations {
		for _, hook := range h.onViolation {
			hook(v)
		}
	}
}

func (h *hooks) triggerPublished(report *publish.Report) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.onPublished {
		hook(report)
	}
}
