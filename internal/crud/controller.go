// ABOUTME: Generic controller for one resource collection and its edit form
// ABOUTME: Lists, creates, updates, and deletes through a Resource adapter

package crud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/markalston/newsdesk/internal/client"
)

// Resource adapts one API resource type T with form draft D to the controller
type Resource[T, D any] interface {
	// Name and Plural are lower-case resource names used in messages
	Name() string
	Plural() string
	ItemID(item T) int
	NewDraft() D
	DraftFrom(item T) D
	// Validate checks required fields; editing is true when updating
	Validate(draft D, editing bool) error

	List(ctx context.Context, api *client.Client) ([]T, error)
	Create(ctx context.Context, api *client.Client, draft D) error
	Update(ctx context.Context, api *client.Client, id int, draft D) error
	Delete(ctx context.Context, api *client.Client, id int) error

	CanDelete() bool
	DeletePrompt(item T) string
}

// APIProvider hands out the client bound to the current session token
type APIProvider interface {
	Client() *client.Client
}

// Controller manages one collection view and one create/edit form. It holds
// the session only through APIProvider and never writes to it.
type Controller[T, D any] struct {
	res    Resource[T, D]
	api    APIProvider
	notify Notifier
	logger *slog.Logger

	mu        sync.Mutex
	items     []T
	draft     D
	editingID int
	editing   bool
	busy      bool
	closed    bool
}

// ControllerOption configures a Controller
type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	notify Notifier
	logger *slog.Logger
}

// WithNotifier sets where success and failure notifications go
func WithNotifier(n Notifier) ControllerOption {
	return func(o *controllerOptions) { o.notify = n }
}

// WithLogger sets the controller logger
func WithLogger(l *slog.Logger) ControllerOption {
	return func(o *controllerOptions) { o.logger = l }
}

// NewController creates a controller with an empty collection and draft
func NewController[T, D any](res Resource[T, D], api APIProvider, opts ...ControllerOption) *Controller[T, D] {
	o := controllerOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notify == nil {
		o.notify = LogNotifier{Logger: o.logger}
	}

	return &Controller[T, D]{
		res:    res,
		api:    api,
		notify: o.notify,
		logger: o.logger.With("resource", res.Name()),
		draft:  res.NewDraft(),
	}
}

// Resource returns the adapter the controller was built with
func (c *Controller[T, D]) Resource() Resource[T, D] {
	return c.res
}

// List fetches the collection and replaces the in-memory items with it
func (c *Controller[T, D]) List(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	items, err := c.res.List(ctx, c.api.Client())
	if err != nil {
		c.logger.Warn("list failed", "error", err)
		return fmt.Errorf("list %s: %w", c.res.Plural(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.logger.Debug("discarding list result after close")
		return nil
	}
	c.items = items
	return nil
}

// Items returns a copy of the current collection
func (c *Controller[T, D]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Find returns the listed item with the given id
func (c *Controller[T, D]) Find(id int) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if c.res.ItemID(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// BeginCreate clears the draft and leaves edit mode
func (c *Controller[T, D]) BeginCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// BeginEdit fills the draft from item and enters edit mode for its id
func (c *Controller[T, D]) BeginEdit(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = c.res.DraftFrom(item)
	c.editingID = c.res.ItemID(item)
	c.editing = true
}

// CancelEdit clears the draft and leaves edit mode. It never calls the server.
func (c *Controller[T, D]) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// SetDraft replaces the live draft without submitting it
func (c *Controller[T, D]) SetDraft(d D) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = d
}

// Draft returns the live draft
func (c *Controller[T, D]) Draft() D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// EditingID returns the id being edited, if any
func (c *Controller[T, D]) EditingID() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingID, c.editing
}

// Busy reports whether a mutation is in flight
func (c *Controller[T, D]) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Submit validates draft and sends it as an update when editing, or a create
// otherwise. On success the draft is cleared, edit mode ends, success is
// notified, and the collection is refetched. On failure the draft and edit
// mode are kept so the user can retry.
func (c *Controller[T, D]) Submit(ctx context.Context, draft D) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.draft = draft
	editing, id := c.editing, c.editingID
	if err := c.res.Validate(draft, editing); err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy = true
	c.mu.Unlock()

	api := c.api.Client()
	verb := "created"
	var err error
	if editing {
		verb = "updated"
		err = c.res.Update(ctx, api, id, draft)
	} else {
		err = c.res.Create(ctx, api, draft)
	}

	c.mu.Lock()
	c.busy = false
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarding submit result after close", "error", err)
		return err
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("submit failed", "editing", editing, "id", id, "error", err)
		c.notify.Failure(fmt.Sprintf("Could not save %s", c.res.Name()), err)
		return fmt.Errorf("save %s: %w", c.res.Name(), err)
	}
	// An edit started while the request was in flight keeps its draft.
	if c.editing == editing && c.editingID == id {
		c.resetLocked()
	}
	c.mu.Unlock()

	c.logger.Info("saved", "action", verb, "id", id)
	c.notify.Success(fmt.Sprintf("%s %s", capitalize(c.res.Name()), verb))
	c.refetch(ctx)
	return nil
}

// Delete removes the item with id after confirm acknowledges the prompt. No
// request is sent unless the confirmation is explicit.
func (c *Controller[T, D]) Delete(ctx context.Context, id int, confirm Confirmer) error {
	if !c.res.CanDelete() {
		return ErrDeleteDisabled
	}
	if confirm == nil {
		return ErrNotConfirmed
	}

	prompt := fmt.Sprintf("Delete %s #%d?", c.res.Name(), id)
	if item, ok := c.Find(id); ok {
		prompt = c.res.DeletePrompt(item)
	}
	ok, err := confirm.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		return ErrNotConfirmed
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	err = c.res.Delete(ctx, c.api.Client(), id)

	c.mu.Lock()
	c.busy = false
	if c.closed {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("delete failed", "id", id, "error", err)
		c.notify.Failure(fmt.Sprintf("Could not delete %s", c.res.Name()), err)
		return fmt.Errorf("delete %s: %w", c.res.Name(), err)
	}
	if c.editing && c.editingID == id {
		c.resetLocked()
	}
	c.mu.Unlock()

	c.logger.Info("deleted", "id", id)
	c.notify.Success(fmt.Sprintf("%s deleted", capitalize(c.res.Name())))
	c.refetch(ctx)
	return nil
}

// Close detaches the controller; results that arrive afterwards are dropped
func (c *Controller[T, D]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// refetch reloads the collection after a mutation. Its failure does not undo
// the mutation, so it is reported but not returned.
func (c *Controller[T, D]) refetch(ctx context.Context) {
	if err := c.List(ctx); err != nil && !errors.Is(err, ErrClosed) {
		c.notify.Failure(fmt.Sprintf("Could not refresh %s", c.res.Plural()), err)
	}
}

func (c *Controller[T, D]) resetLocked() {
	c.draft = c.res.NewDraft()
	c.editingID = 0
	c.editing = false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
