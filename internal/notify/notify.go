// Package notify abstracts the user-facing toast/alert surface of the
// explorer. The UI shell supplies its own implementation; the default one
// writes through the structured logger.
package notify

import (
	"sync"

	"github.com/spacedriveapp/spacedrive-sub003/internal/logging"
	"go.uber.org/zap"
)

// Toast is one user-facing notification.
type Toast struct {
	Title string
	Body  string
}

// Notifier receives success and failure notifications from the transfer
// layer. Implementations must be safe for concurrent use: per-location
// batches report from independent goroutines.
type Notifier interface {
	Success(t Toast)
	Error(t Toast)
}

// Log is a Notifier that writes toasts to the structured log.
type Log struct{}

// Success logs a success toast.
func (Log) Success(t Toast) {
	logging.Info(t.Title, zap.String("detail", t.Body))
}

// Error logs an error toast.
func (Log) Error(t Toast) {
	logging.Error(t.Title, zap.String("detail", t.Body))
}

// Recorder captures toasts for tests.
type Recorder struct {
	mu        sync.Mutex
	successes []Toast
	errors    []Toast
}

// Success records a success toast.
func (r *Recorder) Success(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, t)
}

// Error records an error toast.
func (r *Recorder) Error(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, t)
}

// Successes returns the recorded success toasts.
func (r *Recorder) Successes() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.successes...)
}

// Errors returns the recorded error toasts.
func (r *Recorder) Errors() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.errors...)
}
