package design

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysdraw/sysdraw/backend-go/internal/asset"
	"github.com/sysdraw/sysdraw/backend-go/internal/auth"
	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/typeid"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	assets, err := asset.NewStore(t.TempDir(), "/thumbnails/")
	require.NoError(t, err)
	return NewService(newMemRepo(), assets)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 2))))
	return buf.Bytes()
}

func TestServiceCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	doc := document.NewSampleDocument("")
	d, err := s.Create(ctx, "user_a", doc)
	require.NoError(t, err)
	require.NoError(t, typeid.Validate(d.ID, typeid.PrefixDesign))
	assert.Equal(t, doc.Meta.Name, d.Name)
	assert.Empty(t, doc.ID, "the caller's document is not modified")

	got, loaded, err := s.Get(ctx, d.ID, "user_a")
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, d.ID, loaded.ID)
	assert.Len(t, loaded.Shapes, len(doc.Shapes))
	assert.Len(t, loaded.Connections, len(doc.Connections))

	_, _, err = s.Get(ctx, d.ID, "user_b")
	require.ErrorIs(t, err, ErrForbidden)
	_, _, err = s.Get(ctx, "dsgn_missing", "user_a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDefaultName(t *testing.T) {
	s := newTestService(t)
	d, err := s.Create(context.Background(), "user_a", document.NewDocument("", ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultName, d.Name)
}

func TestServiceSave(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	d, err := s.Create(ctx, "user_a", document.NewDocument("", "First"))
	require.NoError(t, err)

	next := document.NewSampleDocument("ignored")
	next.Meta.Name = "Second"
	saved, err := s.Save(ctx, d.ID, "user_a", next)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)
	assert.Equal(t, "Second", saved.Name)

	_, loaded, err := s.Get(ctx, d.ID, "user_a")
	require.NoError(t, err)
	assert.Equal(t, d.ID, loaded.ID, "the stored id wins over the body's")
	assert.Len(t, loaded.Shapes, len(next.Shapes))

	_, err = s.Save(ctx, d.ID, "user_b", next)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = s.Save(ctx, "dsgn_missing", "user_a", next)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceThumbnails(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	d, err := s.Create(ctx, "user_a", document.NewDocument("", "Thumbs"))
	require.NoError(t, err)

	_, err = s.LatestThumbnail(ctx, d.ID, "user_a")
	require.ErrorIs(t, err, ErrNotFound)

	th, err := s.UploadThumbnail(ctx, d.ID, "user_a", bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, 4, th.Width)
	assert.True(t, strings.HasPrefix(th.URL, "/thumbnails/thumb_"))

	_, doc, err := s.Get(ctx, d.ID, "user_a")
	require.NoError(t, err)
	assert.Equal(t, th.URL, doc.Meta.Thumbnail)

	_, err = s.UploadThumbnail(ctx, d.ID, "user_a", strings.NewReader("nope"))
	require.ErrorIs(t, err, asset.ErrInvalidImage)
	_, err = s.UploadThumbnail(ctx, d.ID, "user_b", bytes.NewReader(pngBytes(t)))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestServiceListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	list, err := s.List(ctx, "user_a")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	a, err := s.Create(ctx, "user_a", document.NewDocument("", "A"))
	require.NoError(t, err)
	_, err = s.Create(ctx, "user_b", document.NewDocument("", "B"))
	require.NoError(t, err)

	list, err = s.List(ctx, "user_a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	require.ErrorIs(t, s.Delete(ctx, a.ID, "user_b"), ErrForbidden)
	require.NoError(t, s.Delete(ctx, a.ID, "user_a"))
	require.ErrorIs(t, s.Delete(ctx, a.ID, "user_a"), ErrNotFound)
}

func TestServiceCollabHooks(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	d, err := s.Create(ctx, "user_a", document.NewDocument("", "Room"))
	require.NoError(t, err)

	require.NoError(t, s.Authorize(ctx, d.ID, "user_a"))
	require.ErrorIs(t, s.Authorize(ctx, d.ID, "user_b"), ErrForbidden)

	doc, err := s.LoadDocument(ctx, d.ID)
	require.NoError(t, err)
	doc.Shapes = append(doc.Shapes, document.NewShape("rectangle-1", document.KindRectangle, 10, 10, 1))
	doc.Reindex()
	require.NoError(t, s.StoreDocument(ctx, d.ID, doc))

	again, err := s.LoadDocument(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, again.HasShape("rectangle-1"))

	_, err = s.LoadDocument(ctx, "dsgn_missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func newTestServer(t *testing.T) (*httptest.Server, *auth.Service) {
	t.Helper()
	authSvc, err := auth.NewService("test-secret")
	require.NoError(t, err)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authSvc.AuthMiddleware)
	NewHandler(newTestService(t)).Register(api)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, authSvc
}

func clientFor(t *testing.T, srv *httptest.Server, authSvc *auth.Service, userID string) *Client {
	t.Helper()
	token, err := authSvc.IssueToken(auth.Identity{UserID: userID}, time.Hour)
	require.NoError(t, err)
	return NewClient(srv.URL+"/api/", token, WithHTTPClient(srv.Client()))
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv, authSvc := newTestServer(t)
	c := clientFor(t, srv, authSvc, "user_a")

	doc := document.NewSampleDocument("")
	id, err := c.Save(ctx, doc)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	loaded, err := c.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID)
	loaded.ID = ""
	assert.True(t, document.Equal(doc, loaded))

	loaded.ID = id
	loaded.Meta.Name = "Renamed"
	again, err := c.Save(ctx, loaded)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	require.NoError(t, c.UploadThumbnail(ctx, id, pngBytes(t)))

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Name)
	assert.Equal(t, 2, list[0].Version)
	assert.NotEmpty(t, list[0].ThumbnailURL)

	require.NoError(t, c.Delete(ctx, id))
	_, err = c.Load(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	srv, authSvc := newTestServer(t)
	owner := clientFor(t, srv, authSvc, "user_a")
	other := clientFor(t, srv, authSvc, "user_b")

	id, err := owner.Save(ctx, document.NewDocument("", "Private"))
	require.NoError(t, err)

	_, err = other.Load(ctx, id)
	require.ErrorIs(t, err, ErrForbidden)

	anon := NewClient(srv.URL+"/api", "", WithHTTPClient(srv.Client()))
	_, err = anon.Load(ctx, id)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "missing authorization header", se.Message)

	err = owner.UploadThumbnail(ctx, id, []byte("not a png"))
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
}

func TestHandlerRejectsBadBody(t *testing.T) {
	srv, authSvc := newTestServer(t)
	token, err := authSvc.IssueToken(auth.Identity{UserID: "user_a"}, time.Hour)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/designs", strings.NewReader("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
