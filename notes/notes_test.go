package notes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/notebook-go/apperror"
	"github.com/user/notebook-go/auth"
	"github.com/user/notebook-go/metrics"
)

var (
	ann = &auth.Identity{UserID: "user-ann"}
	bob = &auth.Identity{UserID: "user-bob"}
)

type fixture struct {
	store   *MemoryStore
	svc     *Service
	metrics *metrics.Metrics
}

func newFixture() *fixture {
	store := NewMemoryStore()
	m := metrics.NewNop()
	return &fixture{
		store:   store,
		svc:     NewService(store, NewOwnershipGuard(store, m, nil)),
		metrics: m,
	}
}

func (f *fixture) create(t *testing.T, owner *auth.Identity, title string) *Note {
	t.Helper()
	n, err := f.svc.Create(context.Background(), owner, CreateNoteRequest{
		Title:       title,
		Description: "a long enough description",
	})
	require.NoError(t, err)
	return n
}

func TestCreate_DefaultsAndOwner(t *testing.T) {
	f := newFixture()
	n := f.create(t, ann, "Groceries")

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, ann.UserID, n.UserID)
	assert.Equal(t, DefaultTag, n.Tag)
	assert.False(t, n.CreatedAt.IsZero())
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), ann, CreateNoteRequest{Title: "   ", Description: "abc"})
	require.True(t, apperror.IsValidationError(err))

	appErr, _ := apperror.FromError(err)
	assert.Len(t, appErr.Fields, 2)

	notes, err := f.svc.List(context.Background(), ann)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestList_OnlyOwnNotes(t *testing.T) {
	f := newFixture()
	f.create(t, ann, "a1")
	f.create(t, ann, "a2")
	f.create(t, bob, "b1")

	annNotes, err := f.svc.List(context.Background(), ann)
	require.NoError(t, err)
	assert.Len(t, annNotes, 2)
	for _, n := range annNotes {
		assert.Equal(t, ann.UserID, n.UserID)
	}

	bobNotes, err := f.svc.List(context.Background(), bob)
	require.NoError(t, err)
	require.Len(t, bobNotes, 1)
	assert.Equal(t, "b1", bobNotes[0].Title)
}

func TestUpdate_PartialFields(t *testing.T) {
	f := newFixture()
	n := f.create(t, ann, "Groceries")

	updated, err := f.svc.Update(context.Background(), ann, n.ID, UpdateNoteRequest{Tag: "Shopping"})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Title)
	assert.Equal(t, n.Description, updated.Description)
	assert.Equal(t, "Shopping", updated.Tag)

	_, err = f.svc.Update(context.Background(), ann, n.ID, UpdateNoteRequest{Description: "abc"})
	assert.True(t, apperror.IsValidationError(err))

	same, err := f.svc.Update(context.Background(), ann, n.ID, UpdateNoteRequest{})
	require.NoError(t, err)
	assert.Equal(t, updated, same)
}

func TestUpdate_CrossUserForbiddenAndUnchanged(t *testing.T) {
	f := newFixture()
	n := f.create(t, ann, "Private")

	_, err := f.svc.Update(context.Background(), bob, n.ID, UpdateNoteRequest{Title: "pwned"})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	stored, err := f.store.GetNote(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, stored)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OwnershipDenialsTotal.WithLabelValues(OpUpdate)))
}

func TestDelete_CrossUserForbiddenAndUnchanged(t *testing.T) {
	f := newFixture()
	n := f.create(t, ann, "Private")

	_, err := f.svc.Delete(context.Background(), bob, n.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.store.GetNote(context.Background(), n.ID)
	require.NoError(t, err)
}

func TestDelete_Owner(t *testing.T) {
	f := newFixture()
	n := f.create(t, ann, "Temp")

	deleted, err := f.svc.Delete(context.Background(), ann, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, deleted.ID)

	_, err = f.store.GetNote(context.Background(), n.ID)
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestMutations_NonexistentNote(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Update(context.Background(), ann, "does-not-exist", UpdateNoteRequest{Title: "x"})
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.Delete(context.Background(), bob, "does-not-exist")
	assert.True(t, apperror.IsNotFound(err))
}

func TestGuard_RequiresIdentity(t *testing.T) {
	f := newFixture()
	n := f.create(t, ann, "x")

	_, err := f.svc.guard.Check(context.Background(), nil, n.ID, OpDelete)
	assert.True(t, apperror.IsAuthError(err))
}

func newRouter(f *fixture, caller *auth.Identity) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.NewContextWithIdentity(req.Context(), caller)))
		})
	})
	NewNoteHandler(f.svc).RegisterRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNoteHandler_Flow(t *testing.T) {
	f := newFixture()
	asAnn := newRouter(f, ann)
	asBob := newRouter(f, bob)

	rec := do(asAnn, http.MethodPost, "/create", `{"title":"Groceries","description":"Milk, eggs","tag":"Home"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Home", created.Tag)

	rec = do(asAnn, http.MethodGet, "/fetch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(asBob, http.MethodGet, "/fetch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(asBob, http.MethodPut, "/update/"+created.ID, `{"title":"mine now"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(asBob, http.MethodDelete, "/delete/"+created.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(asAnn, http.MethodPut, "/update/"+created.ID, `{"title":"Groceries!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Groceries!"`)

	rec = do(asAnn, http.MethodDelete, "/delete/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted DeleteNoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, "Note has been deleted", deleted.Message)
	assert.Equal(t, created.ID, deleted.Note.ID)

	rec = do(asAnn, http.MethodDelete, "/delete/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
