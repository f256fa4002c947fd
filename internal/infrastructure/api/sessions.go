package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/weirdqq-coder/troyyon/internal/application/session"
)

const sessionCookieName = "tryon_session"

// SessionManager keeps one controller per browser session.
type SessionManager struct {
	newController func() *session.Controller
	idleTimeout   time.Duration

	mutex    sync.RWMutex
	sessions map[string]*session.Controller
}

func NewSessionManager(newController func() *session.Controller, idleTimeout time.Duration) *SessionManager {
	if idleTimeout <= 0 {
		idleTimeout = 2 * time.Hour
	}
	return &SessionManager{
		newController: newController,
		idleTimeout:   idleTimeout,
		sessions:      make(map[string]*session.Controller),
	}
}

// FromRequest returns the caller's controller, creating a session and setting
// the cookie when the request has none or names an unknown one.
func (sm *SessionManager) FromRequest(w http.ResponseWriter, r *http.Request) *session.Controller {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		sm.mutex.RLock()
		controller, ok := sm.sessions[cookie.Value]
		sm.mutex.RUnlock()
		if ok {
			return controller
		}
	}

	id := uuid.NewString()
	controller := sm.newController()

	sm.mutex.Lock()
	sm.sessions[id] = controller
	active := len(sm.sessions)
	sm.mutex.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Debug().Str("session", id).Int("active", active).Msg("created session")
	return controller
}

// Lookup finds an existing session without creating one.
func (sm *SessionManager) Lookup(r *http.Request) (*session.Controller, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, false
	}
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	controller, ok := sm.sessions[cookie.Value]
	return controller, ok
}

func (sm *SessionManager) Len() int {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return len(sm.sessions)
}

// CleanupInactive drops sessions idle for longer than the timeout. A session
// with a request in flight is kept until it settles.
func (sm *SessionManager) CleanupInactive(now time.Time) int {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	cleaned := 0
	for id, controller := range sm.sessions {
		if controller.State().InFlight {
			continue
		}
		if now.Sub(controller.LastActive()) > sm.idleTimeout {
			delete(sm.sessions, id)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Info().Int("cleaned", cleaned).Int("active", len(sm.sessions)).Msg("cleaned up inactive sessions")
	}
	return cleaned
}

// StartCleanupRoutine runs CleanupInactive until ctx is done.
func (sm *SessionManager) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				sm.CleanupInactive(now)
			}
		}
	}()
}
