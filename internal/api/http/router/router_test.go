package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apicontext "github.com/dtroode/postkeeper-server/internal/api/http/context"
	"github.com/dtroode/postkeeper-server/internal/auth"
	"github.com/dtroode/postkeeper-server/internal/metrics"
	"github.com/dtroode/postkeeper-server/internal/model"
	"github.com/dtroode/postkeeper-server/internal/render"
	"github.com/dtroode/postkeeper-server/internal/repository/memory"
	"github.com/dtroode/postkeeper-server/internal/service"
	"github.com/dtroode/postkeeper-server/internal/testutil"
	"github.com/dtroode/postkeeper-server/internal/token"
)

type fakeRevocation struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (f *fakeRevocation) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti], nil
}

func (f *fakeRevocation) revoke(jti string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
}

type testEnv struct {
	handler    http.Handler
	jwt        *token.JWT
	revocation *fakeRevocation
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	lg := testutil.MakeNoopLogger()
	reg := prometheus.NewRegistry()

	jwt := token.NewJWT("secret", "postkeeper")
	rev := &fakeRevocation{revoked: map[string]bool{}}
	authenticator := auth.NewAuthenticator(auth.NewCredentialExtractor(lg), jwt, rev, lg)
	postService := service.NewPost(memory.NewPostRepository(), render.NewMarkdown(), nil, 10, lg)

	r := New(postService, authenticator, auth.NewAuthorizer(lg), apicontext.NewManager(), metrics.New(reg),
		Options{Gatherer: reg, AllowedOrigins: []string{"*"}}, lg)

	return &testEnv{handler: r.Register(), jwt: jwt, revocation: rev}
}

func (e *testEnv) token(t *testing.T, roles ...string) (string, string) {
	t.Helper()
	raw, claims, err := e.jwt.Issue(model.Subject{ID: "editor", Roles: roles}, time.Hour)
	require.NoError(t, err)
	return raw, claims.TokenID
}

func (e *testEnv) do(method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Kind
}

func createBody(title string) string {
	published := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	return `{"author":"ann","title":"` + title + `","content":"# Hello\n\nworld","tags":["go"],` +
		`"meta":{"keywords":["golang"]},"published_at":"` + published + `"}`
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestRouter_CreatePost_Auth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	noRole, _ := env.token(t, model.RolePostDelete)
	withRole, _ := env.token(t, model.RolePostCreate)
	revoked, jti := env.token(t, model.RolePostCreate)
	env.revocation.revoke(jti)

	tests := []struct {
		name     string
		bearer   string
		wantCode int
		wantKind string
	}{
		{name: "no token", bearer: "", wantCode: http.StatusForbidden, wantKind: "not_authenticated"},
		{name: "garbage token", bearer: "garbage", wantCode: http.StatusForbidden, wantKind: "invalid_token"},
		{name: "revoked token", bearer: revoked, wantCode: http.StatusForbidden, wantKind: "invalid_token"},
		{name: "missing role", bearer: noRole, wantCode: http.StatusUnauthorized, wantKind: "not_authorized"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := env.do(http.MethodPost, "/api/posts", tt.bearer, createBody("Auth "+tt.name))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantKind, errorKind(t, rec))
		})
	}

	rec := env.do(http.MethodPost, "/api/posts", withRole, createBody("Allowed"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_PostLifecycle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	bearer, _ := env.token(t, model.RolePostCreate, model.RolePostUpdate, model.RolePostDelete)

	rec := env.do(http.MethodPost, "/api/posts", bearer, createBody("Hello World"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "hello-world", created.Slug)

	rec = env.do(http.MethodPost, "/api/posts", bearer, createBody("Hello World"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", errorKind(t, rec))

	rec = env.do(http.MethodGet, "/api/posts/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1")

	rec = env.do(http.MethodGet, "/api/posts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []model.Post `json:"items"`
		Total int          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Empty(t, page.Items[0].Content)

	rec = env.do(http.MethodPatch, "/api/posts/"+created.ID, bearer, `{"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Renamed"`)

	rec = env.do(http.MethodPatch, "/api/posts/"+created.ID, bearer, `{"unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodDelete, "/api/posts/"+created.ID, bearer, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/posts/"+created.ID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorKind(t, rec))

	rec = env.do(http.MethodDelete, "/api/posts/"+created.ID, bearer, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_GetPostByDateAndSlug(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	bearer, _ := env.token(t, model.RolePostCreate)

	rec := env.do(http.MethodPost, "/api/posts", bearer, createBody("Dated Post"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	p := created.PublishedAt.UTC()
	path := "/api/posts/" + p.Format("2006") + "/" + p.Format("1") + "/" + p.Format("2") + "/dated-post"
	rec = env.do(http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = env.do(http.MethodGet, "/api/posts/2024/xx/01/dated-post", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", errorKind(t, rec))

	rec = env.do(http.MethodGet, "/api/posts/2024/13/01/dated-post", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Me(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = env.do(http.MethodGet, "/api/me", "garbage", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	bearer, jti := env.token(t, model.RolePostCreate)
	rec = env.do(http.MethodGet, "/api/me", bearer, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"editor"`)
	assert.Contains(t, rec.Body.String(), jti)
}

func TestRouter_ArchiveAndAll(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/posts/archive", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/posts/all", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_AttachmentsDisabled(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/posts/p1/attachments/a1", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "infrastructure", errorKind(t, rec))
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.do(http.MethodGet, "/health", "", "")
	rec := env.do(http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `postkeeper_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRouter_CORS(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://blog.example")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
