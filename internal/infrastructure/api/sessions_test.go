package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/weirdqq-coder/troyyon/internal/application/session"
	"github.com/weirdqq-coder/troyyon/internal/application/usecases"
)

type blockingClient struct {
	release chan struct{}
}

func (b *blockingClient) Execute(ctx context.Context, input usecases.TryOnInput) (*usecases.TryOnOutput, error) {
	<-b.release
	return nil, nil
}

func TestSessionManager_FromRequest(t *testing.T) {
	sm := NewSessionManager(func() *session.Controller {
		return session.NewController(usecases.NewIngestUseCase(0), &blockingClient{})
	}, time.Hour)

	rec := httptest.NewRecorder()
	first := sm.FromRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	if again := sm.FromRequest(rec, req); again != first {
		t.Errorf("same cookie should return the same controller")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Errorf("known session should not set a new cookie")
	}

	if got, ok := sm.Lookup(req); !ok || got != first {
		t.Errorf("Lookup() = %v, %v", got, ok)
	}

	unknown := httptest.NewRequest(http.MethodGet, "/", nil)
	unknown.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "stale"})
	if _, ok := sm.Lookup(unknown); ok {
		t.Errorf("Lookup() should miss an unknown session")
	}
	sm.FromRequest(httptest.NewRecorder(), unknown)
	if sm.Len() != 2 {
		t.Errorf("Len() = %d, want 2", sm.Len())
	}
}

func TestSessionManager_CleanupInactive(t *testing.T) {
	client := &blockingClient{release: make(chan struct{})}
	defer close(client.release)

	ingest := usecases.NewIngestUseCase(0)
	sm := NewSessionManager(func() *session.Controller {
		return session.NewController(ingest, client)
	}, time.Hour)

	sm.FromRequest(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	busy := sm.FromRequest(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	ctx := context.Background()
	if err := busy.SelectImage(ctx, session.RoleSubject, bytesReader("a"), "image/png"); err != nil {
		t.Fatalf("SelectImage: %v", err)
	}
	if err := busy.SelectImage(ctx, session.RoleGarment, bytesReader("b"), "image/png"); err != nil {
		t.Fatalf("SelectImage: %v", err)
	}
	if _, err := busy.StartGenerate(ctx); err != nil {
		t.Fatalf("StartGenerate: %v", err)
	}

	if cleaned := sm.CleanupInactive(time.Now()); cleaned != 0 {
		t.Errorf("fresh sessions cleaned = %d, want 0", cleaned)
	}

	if cleaned := sm.CleanupInactive(time.Now().Add(3 * time.Hour)); cleaned != 1 {
		t.Errorf("cleaned = %d, want 1", cleaned)
	}
	if sm.Len() != 1 {
		t.Errorf("in-flight session should survive, Len() = %d", sm.Len())
	}
}

func bytesReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
