// ABOUTME: Collaborators the controller reports to and asks for confirmation
// ABOUTME: Presentation layers provide their own implementations

package crud

import (
	"context"
	"log/slog"
)

// Notifier receives user-facing outcomes of mutations. Failure notifications
// are meant to block until the user acknowledges them.
type Notifier interface {
	Success(message string)
	Failure(message string, err error)
}

// Confirmer asks the user to acknowledge a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// LogNotifier reports outcomes to a logger only
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Success(message string) {
	n.Logger.Info(message)
}

func (n LogNotifier) Failure(message string, err error) {
	n.Logger.Error(message, "error", err)
}
