// ABOUTME: Tests for the generic CRUD controller
// ABOUTME: Drives real resource adapters against the recording fake backend

package crud_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/newsdesk/internal/apitest"
	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
	"github.com/markalston/newsdesk/internal/resources"
)

type staticAPI struct{ c *client.Client }

func (s staticAPI) Client() *client.Client { return s.c }

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Failure(msg string, _ error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, msg)
}

func answer(ok bool) crud.Confirmer {
	return crud.ConfirmFunc(func(context.Context, string) (bool, error) { return ok, nil })
}

func setup(t *testing.T, opts ...apitest.Option) (*apitest.Server, staticAPI) {
	t.Helper()
	srv, ts := apitest.NewTestServer(t, append([]apitest.Option{apitest.WithRequireAuth()}, opts...)...)
	apitest.Seed(srv)
	return srv, staticAPI{c: client.New(ts.URL).WithToken(srv.Token())}
}

func TestList_ReplacesCollection(t *testing.T) {
	for _, envelope := range []bool{false, true} {
		var opts []apitest.Option
		if envelope {
			opts = append(opts, apitest.WithEnvelope())
		}
		srv, api := setup(t, opts...)
		ctrl := resources.NewCategoriesController(api)
		ctx := context.Background()

		require.NoError(t, ctrl.List(ctx))
		assert.Len(t, ctrl.Items(), 2)

		srv.AddCategory("Sports")
		require.NoError(t, ctrl.List(ctx))

		names := []string{}
		for _, c := range ctrl.Items() {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"Technology", "World", "Sports"}, names, "envelope=%v", envelope)
	}
}

func TestBeginEditThenCancel_NoServerCalls(t *testing.T) {
	srv, api := setup(t)
	ctrl := resources.NewPostsController(api, 10)
	ctx := context.Background()
	require.NoError(t, ctrl.List(ctx))

	before := ctrl.Items()
	srv.ResetCalls()

	ctrl.BeginEdit(before[0])
	id, editing := ctrl.EditingID()
	assert.True(t, editing)
	assert.Equal(t, before[0].ID, id)
	assert.Equal(t, before[0].Title, ctrl.Draft().Title)

	ctrl.CancelEdit()
	_, editing = ctrl.EditingID()
	assert.False(t, editing)
	assert.Equal(t, resources.PostDraft{}, ctrl.Draft())
	assert.Equal(t, before, ctrl.Items())
	assert.Empty(t, srv.Calls())
}

func TestSubmit_CreateCategory(t *testing.T) {
	srv, api := setup(t)
	notes := &recordingNotifier{}
	ctrl := resources.NewCategoriesController(api, crud.WithNotifier(notes))
	ctx := context.Background()

	ctrl.BeginCreate()
	require.NoError(t, ctrl.Submit(ctx, resources.CategoryDraft{Name: "Sports"}))

	posts := srv.CallsTo(http.MethodPost, "/categories")
	require.Len(t, posts, 1)
	assert.JSONEq(t, `{"name":"Sports"}`, string(posts[0].Body))

	assert.Equal(t, []string{"Category created"}, notes.successes)
	assert.Empty(t, notes.failures)
	assert.Len(t, ctrl.Items(), 3)
}

func TestSubmit_EmptyCategoryNameSendsNothing(t *testing.T) {
	srv, api := setup(t)
	ctrl := resources.NewCategoriesController(api)
	srv.ResetCalls()

	err := ctrl.Submit(context.Background(), resources.CategoryDraft{Name: "   "})

	var ve *crud.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
	assert.True(t, crud.IsLocal(err))
	assert.Empty(t, srv.CallsTo(http.MethodPost, "/categories"))
	assert.Equal(t, "   ", ctrl.Draft().Name)
}

func TestSubmit_EditPostIssuesOnePutThenRefetch(t *testing.T) {
	srv, api := setup(t)
	srv.AddPost(client.Post{ID: 42, Title: "Old title", Content: "<p>body</p>"})

	ctrl := resources.NewPostsController(api, 10)
	ctx := context.Background()
	require.NoError(t, ctrl.List(ctx))

	item, ok := ctrl.Find(42)
	require.True(t, ok)
	ctrl.BeginEdit(item)

	draft := ctrl.Draft()
	draft.Title = "New title"
	srv.ResetCalls()

	require.NoError(t, ctrl.Submit(ctx, draft))

	calls := srv.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPut, calls[0].Method)
	assert.Equal(t, "/posts/42", calls[0].Path)
	assert.Contains(t, string(calls[0].JSONPart), `"title":"New title"`)
	assert.Equal(t, http.MethodGet, calls[1].Method)
	assert.Equal(t, "/posts", calls[1].Path)

	_, editing := ctrl.EditingID()
	assert.False(t, editing)
	assert.Equal(t, resources.PostDraft{}, ctrl.Draft())

	refreshed, ok := ctrl.Find(42)
	require.True(t, ok)
	assert.Equal(t, "New title", refreshed.Title)
}

func TestSubmit_RoutingIgnoresDraftContent(t *testing.T) {
	srv, api := setup(t)
	ctrl := resources.NewCategoriesController(api)
	ctx := context.Background()
	require.NoError(t, ctrl.List(ctx))

	world := ctrl.Items()[1]
	ctrl.BeginEdit(world)
	srv.ResetCalls()

	// A draft copied from another item still updates the item being edited
	require.NoError(t, ctrl.Submit(ctx, resources.CategoryDraft{Name: "Technology"}))

	assert.Len(t, srv.CallsTo(http.MethodPut, "/categories/"+strconv.Itoa(world.ID)), 1)
	assert.Empty(t, srv.CallsTo(http.MethodPost, "/categories"))
}

func TestSubmit_ServerFailureKeepsDraftAndEditMode(t *testing.T) {
	srv, api := setup(t)
	notes := &recordingNotifier{}
	ctrl := resources.NewCategoriesController(api, crud.WithNotifier(notes))
	ctx := context.Background()
	require.NoError(t, ctrl.List(ctx))

	tech := ctrl.Items()[0]
	ctrl.BeginEdit(tech)
	srv.FailNext(http.MethodPut, "/categories/"+strconv.Itoa(tech.ID), http.StatusConflict, "name already taken")

	draft := resources.CategoryDraft{Name: "World"}
	err := ctrl.Submit(ctx, draft)

	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusConflict))
	assert.False(t, crud.IsLocal(err))
	id, editing := ctrl.EditingID()
	assert.True(t, editing)
	assert.Equal(t, tech.ID, id)
	assert.Equal(t, draft, ctrl.Draft())
	assert.Equal(t, []string{"Could not save category"}, notes.failures)
	assert.Empty(t, notes.successes)
}

func TestSubmit_RefetchFailureIsNotified(t *testing.T) {
	srv, api := setup(t)
	notes := &recordingNotifier{}
	ctrl := resources.NewCategoriesController(api, crud.WithNotifier(notes))

	srv.FailNext(http.MethodGet, "/categories", http.StatusInternalServerError, "boom")
	require.NoError(t, ctrl.Submit(context.Background(), resources.CategoryDraft{Name: "Sports"}))

	assert.Equal(t, []string{"Category created"}, notes.successes)
	assert.Equal(t, []string{"Could not refresh categories"}, notes.failures)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	srv, api := setup(t)
	ctrl := resources.NewPostsController(api, 10)
	ctx := context.Background()
	require.NoError(t, ctrl.List(ctx))
	id := ctrl.Items()[0].ID
	path := "/posts/" + strconv.Itoa(id)

	assert.ErrorIs(t, ctrl.Delete(ctx, id, nil), crud.ErrNotConfirmed)
	assert.ErrorIs(t, ctrl.Delete(ctx, id, answer(false)), crud.ErrNotConfirmed)

	boom := errors.New("tty closed")
	err := ctrl.Delete(ctx, id, crud.ConfirmFunc(func(context.Context, string) (bool, error) {
		return false, boom
	}))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, srv.CallsTo(http.MethodDelete, path))

	require.NoError(t, ctrl.Delete(ctx, id, answer(true)))
	assert.Len(t, srv.CallsTo(http.MethodDelete, path), 1)
	_, found := ctrl.Find(id)
	assert.False(t, found)
}

func TestDelete_PromptDescribesItem(t *testing.T) {
	_, api := setup(t)
	ctrl := resources.NewCategoriesController(api)
	ctx := context.Background()
	require.NoError(t, ctrl.List(ctx))

	var prompt string
	confirm := crud.ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return false, nil
	})
	_ = ctrl.Delete(ctx, ctrl.Items()[0].ID, confirm)

	assert.Contains(t, prompt, `"Technology"`)
	assert.Contains(t, prompt, "uncategorized")
}

func TestDelete_DisabledForAdmins(t *testing.T) {
	srv, api := setup(t)
	ctrl := resources.NewAdminsController(api)
	ctx := context.Background()
	require.NoError(t, ctrl.List(ctx))

	asked := false
	confirm := crud.ConfirmFunc(func(context.Context, string) (bool, error) {
		asked = true
		return true, nil
	})

	err := ctrl.Delete(ctx, ctrl.Items()[0].ID, confirm)
	assert.ErrorIs(t, err, crud.ErrDeleteDisabled)
	assert.False(t, asked)
	for _, c := range srv.Calls() {
		assert.NotEqual(t, http.MethodDelete, c.Method)
	}
}

func TestSubmit_BusyRejectsSecondMutation(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	ctrl := crud.NewController[string, string](&blockingResource{entered: entered, release: release}, staticAPI{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- ctrl.Submit(ctx, "first") }()
	<-entered

	assert.True(t, ctrl.Busy())
	assert.ErrorIs(t, ctrl.Submit(ctx, "second"), crud.ErrBusy)
	assert.ErrorIs(t, ctrl.Delete(ctx, 1, answer(true)), crud.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, ctrl.Busy())
}

func TestSubmit_KeepsEditStartedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	ctrl := crud.NewController[string, string](&blockingResource{entered: entered, release: release}, staticAPI{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- ctrl.Submit(ctx, "new note") }()
	<-entered

	ctrl.BeginEdit("other")

	close(release)
	require.NoError(t, <-done)

	id, editing := ctrl.EditingID()
	assert.True(t, editing)
	assert.Equal(t, 1, id)
	assert.Equal(t, "other", ctrl.Draft())
}

func TestClose_DiscardsLateResults(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	res := &blockingResource{entered: entered, release: release}
	notes := &recordingNotifier{}
	ctrl := crud.NewController[string, string](res, staticAPI{}, crud.WithNotifier(notes))
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- ctrl.Submit(ctx, "draft") }()
	<-entered

	ctrl.Close()
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, notes.successes)
	assert.Equal(t, 0, res.lists)
	assert.Equal(t, "draft", ctrl.Draft())
	assert.ErrorIs(t, ctrl.List(ctx), crud.ErrClosed)
	assert.ErrorIs(t, ctrl.Submit(ctx, "again"), crud.ErrClosed)
}

// blockingResource holds Create until release is closed
type blockingResource struct {
	entered chan struct{}
	release chan struct{}
	lists   int
}

func (r *blockingResource) Name() string                    { return "note" }
func (r *blockingResource) Plural() string                  { return "notes" }
func (r *blockingResource) ItemID(string) int               { return 1 }
func (r *blockingResource) NewDraft() string                { return "" }
func (r *blockingResource) DraftFrom(item string) string    { return item }
func (r *blockingResource) Validate(string, bool) error     { return nil }
func (r *blockingResource) CanDelete() bool                 { return true }
func (r *blockingResource) DeletePrompt(item string) string { return "delete " + item }
func (r *blockingResource) Update(context.Context, *client.Client, int, string) error {
	return nil
}
func (r *blockingResource) Delete(context.Context, *client.Client, int) error { return nil }

func (r *blockingResource) List(context.Context, *client.Client) ([]string, error) {
	r.lists++
	return []string{"x"}, nil
}

func (r *blockingResource) Create(context.Context, *client.Client, string) error {
	close(r.entered)
	<-r.release
	return nil
}
