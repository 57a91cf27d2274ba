// ABOUTME: Adapts the typed CRUD controllers to the console's table and forms
// ABOUTME: One view per tab: posts, categories, and admins

package tui

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/bubbles/table"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
	"github.com/markalston/newsdesk/internal/resources"
	"github.com/markalston/newsdesk/internal/richtext"
	"github.com/markalston/newsdesk/internal/tui/forms"
	"github.com/markalston/newsdesk/internal/tui/menu"
)

// openForm is a draft form bound to the controller that submits it
type openForm struct {
	form   *forms.Form
	submit func(ctx context.Context) error
}

// resourceView is what the console needs from a tab
type resourceView interface {
	Noun() string
	Load(ctx context.Context) error
	Columns() []table.Column
	Rows() []table.Row
	IDAt(i int) (int, bool)
	Create() openForm
	Edit(id int) (openForm, bool)
	Reopen() openForm
	CancelEdit()
	CanDelete() bool
	DeletePrompt(id int) string
	Delete(ctx context.Context, id int, confirmed bool) error
	Close()
}

// view implements resourceView over a typed controller
type view[T, D any] struct {
	ctrl    *crud.Controller[T, D]
	columns []table.Column
	row     func(T) table.Row
	build   func(d D, editing bool) (*forms.Form, func() D)
	// also runs alongside List when set
	also func(ctx context.Context) error
}

func (v *view[T, D]) Noun() string { return v.ctrl.Resource().Name() }

func (v *view[T, D]) Load(ctx context.Context) error {
	if v.also == nil {
		return v.ctrl.List(ctx)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.ctrl.List(gctx) })
	g.Go(func() error { return v.also(gctx) })
	return g.Wait()
}

func (v *view[T, D]) Columns() []table.Column { return v.columns }

func (v *view[T, D]) Rows() []table.Row {
	items := v.ctrl.Items()
	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, v.row(item))
	}
	return rows
}

func (v *view[T, D]) IDAt(i int) (int, bool) {
	items := v.ctrl.Items()
	if i < 0 || i >= len(items) {
		return 0, false
	}
	return v.ctrl.Resource().ItemID(items[i]), true
}

func (v *view[T, D]) Create() openForm {
	v.ctrl.BeginCreate()
	return v.open(false)
}

func (v *view[T, D]) Edit(id int) (openForm, bool) {
	item, ok := v.ctrl.Find(id)
	if !ok {
		return openForm{}, false
	}
	v.ctrl.BeginEdit(item)
	return v.open(true), true
}

// Reopen rebuilds the form from the controller's retained draft
func (v *view[T, D]) Reopen() openForm {
	_, editing := v.ctrl.EditingID()
	return v.open(editing)
}

func (v *view[T, D]) open(editing bool) openForm {
	f, draft := v.build(v.ctrl.Draft(), editing)
	return openForm{
		form: f,
		submit: func(ctx context.Context) error {
			return v.ctrl.Submit(ctx, draft())
		},
	}
}

func (v *view[T, D]) CancelEdit() { v.ctrl.CancelEdit() }

func (v *view[T, D]) CanDelete() bool { return v.ctrl.Resource().CanDelete() }

func (v *view[T, D]) DeletePrompt(id int) string {
	if item, ok := v.ctrl.Find(id); ok {
		return v.ctrl.Resource().DeletePrompt(item)
	}
	return fmt.Sprintf("Delete %s #%d?", v.Noun(), id)
}

// Delete runs the controller delete with the answer the user already gave
func (v *view[T, D]) Delete(ctx context.Context, id int, confirmed bool) error {
	return v.ctrl.Delete(ctx, id, crud.ConfirmFunc(func(context.Context, string) (bool, error) {
		return confirmed, nil
	}))
}

func (v *view[T, D]) Close() { v.ctrl.Close() }

// newViews builds the three tab views sharing one notifier
func newViews(api crud.APIProvider, pageSize int, opts ...crud.ControllerOption) map[menu.Tab]resourceView {
	categories := resources.NewCategoriesController(api, opts...)
	posts := resources.NewPostsController(api, pageSize, opts...)
	admins := resources.NewAdminsController(api, opts...)

	return map[menu.Tab]resourceView{
		menu.TabPosts: &view[client.Post, resources.PostDraft]{
			ctrl: posts,
			columns: []table.Column{
				{Title: "ID", Width: 5},
				{Title: "Title", Width: 32},
				{Title: "Category", Width: 14},
				{Title: "Excerpt", Width: 40},
			},
			row: func(p client.Post) table.Row {
				return table.Row{strconv.Itoa(p.ID), p.Title, p.CategoryName, richtext.Excerpt(p.Content, 40)}
			},
			build: func(d resources.PostDraft, editing bool) (*forms.Form, func() resources.PostDraft) {
				f := forms.NewPostForm(d, categories.Items(), editing)
				return f.Form, f.Draft
			},
			also: categories.List,
		},
		menu.TabCategories: &view[client.Category, resources.CategoryDraft]{
			ctrl: categories,
			columns: []table.Column{
				{Title: "ID", Width: 5},
				{Title: "Name", Width: 32},
				{Title: "Slug", Width: 32},
			},
			row: func(c client.Category) table.Row {
				return table.Row{strconv.Itoa(c.ID), c.Name, c.Slug}
			},
			build: func(d resources.CategoryDraft, editing bool) (*forms.Form, func() resources.CategoryDraft) {
				f := forms.NewCategoryForm(d, editing)
				return f.Form, f.Draft
			},
		},
		menu.TabAdmins: &view[client.Admin, resources.AdminDraft]{
			ctrl: admins,
			columns: []table.Column{
				{Title: "ID", Width: 5},
				{Title: "Name", Width: 24},
				{Title: "Email", Width: 30},
				{Title: "Bio", Width: 30},
			},
			row: func(a client.Admin) table.Row {
				return table.Row{strconv.Itoa(a.ID), a.Name, a.Email, a.Bio}
			},
			build: func(d resources.AdminDraft, editing bool) (*forms.Form, func() resources.AdminDraft) {
				f := forms.NewAdminForm(d, editing)
				return f.Form, f.Draft
			},
		},
	}
}

// notice is one notification waiting to be shown
type notice struct {
	message string
	err     error
}

// noticeQueue collects controller notifications raised inside commands so the
// UI can show them on its own goroutine
type noticeQueue struct {
	mu    sync.Mutex
	items []notice
}

func (q *noticeQueue) Success(message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, notice{message: message})
}

func (q *noticeQueue) Failure(message string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, notice{message: message, err: err})
}

// drain returns and clears the queued notices
func (q *noticeQueue) drain() []notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}
