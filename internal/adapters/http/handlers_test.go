package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reelmates/watchparty/internal/auth"
	"github.com/reelmates/watchparty/internal/domain"
	"github.com/stretchr/testify/require"
)

// memDirectory is an in-memory stand-in for the Mongo-backed directory with
// the same contract semantics.
type memDirectory struct {
	mu      sync.Mutex
	byID    map[domain.PartyID]*domain.Party
	byTitle map[string]domain.PartyID
	secrets map[domain.PartyID]string
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		byID:    make(map[domain.PartyID]*domain.Party),
		byTitle: make(map[string]domain.PartyID),
		secrets: make(map[domain.PartyID]string),
	}
}

func (d *memDirectory) Create(_ context.Context, title string, isPrivate bool, password string, creator domain.UserID, displayName string) (*domain.Party, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byTitle[title]; ok {
		return nil, domain.ErrDuplicateTitle
	}
	p, err := domain.NewParty(title, isPrivate, creator, displayName)
	if err != nil {
		return nil, err
	}
	d.byID[p.ID] = p
	d.byTitle[title] = p.ID
	if isPrivate {
		d.secrets[p.ID] = password
	}
	return p.Stripped(), nil
}

func (d *memDirectory) Join(_ context.Context, id domain.PartyID, uid domain.UserID, displayName, password string) (*domain.Party, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if p.IsPrivate {
		if password == "" {
			return nil, domain.ErrPasswordRequired
		}
		if password != d.secrets[id] {
			return nil, domain.ErrInvalidPassword
		}
	}
	if p.HasMember(uid) {
		return nil, domain.ErrAlreadyMember
	}
	p.Members = append(p.Members, domain.Member{UserID: uid, DisplayName: displayName, JoinedAt: time.Now()})
	return p.Stripped(), nil
}

func (d *memDirectory) Leave(_ context.Context, id domain.PartyID, uid domain.UserID) (*domain.Party, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	kept := p.Members[:0]
	for _, m := range p.Members {
		if m.UserID != uid {
			kept = append(kept, m)
		}
	}
	p.Members = kept
	return p.Stripped(), nil
}

func (d *memDirectory) AddTags(_ context.Context, id domain.PartyID, tags []string) (*domain.Party, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	merged, err := domain.MergeTags(p.Tags, tags)
	if err != nil {
		return nil, err
	}
	p.Tags = merged
	return p.Stripped(), nil
}

func (d *memDirectory) RemoveTags(_ context.Context, id domain.PartyID, tags []string) (*domain.Party, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Tags = domain.FilterTags(p.Tags, tags)
	return p.Stripped(), nil
}

func (d *memDirectory) Get(_ context.Context, id domain.PartyID) (*domain.Party, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Stripped(), nil
}

func (d *memDirectory) List(_ context.Context) ([]*domain.Party, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*domain.Party, 0, len(d.byID))
	for _, p := range d.byID {
		out = append(out, p.Stripped())
	}
	return out, nil
}

type memLog struct {
	mu   sync.Mutex
	msgs []*domain.Message
}

func (l *memLog) Append(_ context.Context, partyID domain.PartyID, sender, displayName, content string) (*domain.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := &domain.Message{PartyID: partyID, Sender: sender, DisplayName: displayName, Content: content, Timestamp: time.Now()}
	l.msgs = append(l.msgs, msg)
	return msg, nil
}

func (l *memLog) ListByParty(_ context.Context, partyID domain.PartyID) ([]*domain.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []*domain.Message{}
	for _, m := range l.msgs {
		if m.PartyID == partyID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fixture struct {
	router   *gin.Engine
	dir      *memDirectory
	verifier *auth.TokenVerifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := newMemDirectory()
	verifier := auth.NewTokenVerifier("test-secret", "watchparty")
	h := &PartyHandler{Directory: dir, Log: &memLog{}}

	r := gin.New()
	api := r.Group("/api")
	api.GET("/tags", h.ListAllowedTags)
	parties := api.Group("/parties", AuthMiddleware(verifier))
	parties.GET("", h.ListParties)
	parties.POST("", h.CreateParty)
	parties.GET("/:id", h.GetParty)
	parties.POST("/:id/join", h.JoinParty)
	parties.POST("/:id/leave", h.LeaveParty)
	parties.GET("/:id/messages", h.ListMessages)
	parties.GET("/:id/tags", h.GetTags)
	parties.POST("/:id/tags", h.AddTags)
	parties.DELETE("/:id/tags", h.RemoveTags)

	return &fixture{router: r, dir: dir, verifier: verifier}
}

func (f *fixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) tokenFor(t *testing.T, uid domain.UserID) string {
	t.Helper()
	token, err := f.verifier.Issue(uid, time.Hour)
	require.NoError(t, err)
	return token
}

func TestCreateParty(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, "user-a")

	w := f.do(t, http.MethodPost, "/api/parties", token, `{"title":"Movie Night","display_name":"Alice"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var p domain.Party
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Equal(t, "Movie Night", p.Title)
	require.Len(t, p.Members, 1)
	require.Equal(t, domain.UserID("user-a"), p.Members[0].UserID)
	require.NotContains(t, w.Body.String(), "password_hash")
}

func TestCreateParty_DuplicateTitle(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, "user-a")

	w := f.do(t, http.MethodPost, "/api/parties", token, `{"title":"Movie Night","display_name":"Alice"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/parties", token, `{"title":"Movie Night","display_name":"Alice"}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateParty_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/parties", "", `{"title":"Movie Night","display_name":"Alice"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJoinPrivateParty_PasswordFlow(t *testing.T) {
	f := newFixture(t)
	owner := f.tokenFor(t, "user-a")
	guest := f.tokenFor(t, "user-b")

	w := f.do(t, http.MethodPost, "/api/parties", owner, `{"title":"Secret","is_private":true,"password":"p1","display_name":"Alice"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var p domain.Party
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	base := fmt.Sprintf("/api/parties/%s/join", p.ID)

	w = f.do(t, http.MethodPost, base, guest, `{"display_name":"Bob"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, base, guest, `{"display_name":"Bob","password":"p2"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, base, guest, `{"display_name":"Bob","password":"p1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Len(t, p.Members, 2)

	// Joining twice is a conflict.
	w = f.do(t, http.MethodPost, base, guest, `{"display_name":"Bob","password":"p1"}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestJoinParty_NotFound(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, "user-a")

	w := f.do(t, http.MethodPost, "/api/parties/no-such-id/join", token, `{"display_name":"Alice"}`)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTagEndpoints(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, "user-a")

	w := f.do(t, http.MethodPost, "/api/parties", token, `{"title":"Movie Night","display_name":"Alice"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var p domain.Party
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	base := fmt.Sprintf("/api/parties/%s/tags", p.ID)

	w = f.do(t, http.MethodPost, base, token, `{"tags":["comedy","not-a-genre"]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// The failed batch left the tag set untouched.
	w = f.do(t, http.MethodGet, base, token, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"tags":[]}`, w.Body.String())

	w = f.do(t, http.MethodPost, base, token, `{"tags":["comedy","drama","comedy"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"tags":["comedy","drama"]}`, w.Body.String())

	w = f.do(t, http.MethodDelete, base, token, `{"tags":["drama","sci-fi"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"tags":["comedy"]}`, w.Body.String())
}

func TestLeaveParty_Idempotent(t *testing.T) {
	f := newFixture(t)
	owner := f.tokenFor(t, "user-a")
	stranger := f.tokenFor(t, "user-z")

	w := f.do(t, http.MethodPost, "/api/parties", owner, `{"title":"Movie Night","display_name":"Alice"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var p domain.Party
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

	// Leaving a party the user never joined returns the party unchanged.
	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/parties/%s/leave", p.ID), stranger, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Len(t, p.Members, 1)
}

func TestListAllowedTags_NoAuthRequired(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/tags", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "sci-fi")
}
