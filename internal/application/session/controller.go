package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/weirdqq-coder/troyyon/internal/application/usecases"
	"github.com/weirdqq-coder/troyyon/internal/domain"
	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
	"github.com/weirdqq-coder/troyyon/internal/domain/valueobjects"
)

type Role string

const (
	RoleSubject Role = "subject"
	RoleGarment Role = "garment"
)

// ErrInFlight is returned when Generate is called while a request is still pending.
var ErrInFlight = errors.New("a try-on request is already in flight")

// ParseRole accepts the canonical role names and the aliases used by upload forms.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "subject", "person", "user":
		return RoleSubject, nil
	case "garment", "clothing", "cloth":
		return RoleGarment, nil
	}
	return "", fmt.Errorf("unknown image role %q", s)
}

type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, mediaType string) (*valueobjects.NormalizedImage, error)
}

type TryOnClient interface {
	Execute(ctx context.Context, input usecases.TryOnInput) (*usecases.TryOnOutput, error)
}

// State is a snapshot of one session. Images are shared, never copied; they are immutable.
type State struct {
	Subject       *valueobjects.NormalizedImage
	Garment       *valueobjects.NormalizedImage
	InFlight      bool
	Result        *valueobjects.NormalizedImage
	LastError     string
	LastRequestID entities.TryOnRequestID
}

func (s State) CanGenerate() bool {
	return s.Subject != nil && s.Garment != nil && !s.InFlight
}

// StateView is the JSON shape pushed to the browser.
type StateView struct {
	Subject     string `json:"subject,omitempty"`
	Garment     string `json:"garment,omitempty"`
	InFlight    bool   `json:"inFlight"`
	Result      string `json:"result,omitempty"`
	Error       string `json:"error,omitempty"`
	RequestID   string `json:"requestId,omitempty"`
	CanGenerate bool   `json:"canGenerate"`
}

func (s State) View() StateView {
	return StateView{
		Subject:     displayable(s.Subject),
		Garment:     displayable(s.Garment),
		InFlight:    s.InFlight,
		Result:      displayable(s.Result),
		Error:       s.LastError,
		RequestID:   string(s.LastRequestID),
		CanGenerate: s.CanGenerate(),
	}
}

func displayable(img *valueobjects.NormalizedImage) string {
	if img == nil {
		return ""
	}
	return img.DisplayableForm()
}

// Controller owns one session's State. It is the only writer; callers read snapshots.
type Controller struct {
	ingester Ingester
	client   TryOnClient

	mu          sync.Mutex
	state       State
	lastActive  time.Time
	subscribers map[int]chan State
	nextSubID   int
}

func NewController(ingester Ingester, client TryOnClient) *Controller {
	return &Controller{
		ingester:    ingester,
		client:      client,
		lastActive:  time.Now(),
		subscribers: make(map[int]chan State),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastActive reports when a user action last touched this session.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// SelectImage ingests r and stores it under role. On failure the stored image
// for role is kept and LastError is set.
func (c *Controller) SelectImage(ctx context.Context, role Role, r io.Reader, mediaType string) error {
	if role != RoleSubject && role != RoleGarment {
		return fmt.Errorf("unknown image role %q", role)
	}

	image, err := c.ingester.Ingest(ctx, r, mediaType)
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewIngestionError(err)
		}
		log.Warn().Err(err).Str("role", string(role)).Msg("image selection failed")
		c.update(func(s *State) {
			s.LastError = domain.Message(err)
		})
		return err
	}

	c.update(func(s *State) {
		switch role {
		case RoleSubject:
			s.Subject = image
		case RoleGarment:
			s.Garment = image
		}
	})
	return nil
}

// ClearImage drops the image for role and nothing else.
func (c *Controller) ClearImage(role Role) {
	c.update(func(s *State) {
		switch role {
		case RoleSubject:
			s.Subject = nil
		case RoleGarment:
			s.Garment = nil
		}
	})
}

// StartGenerate begins one generation cycle and returns a channel closed on
// settlement. It returns ErrInFlight while a cycle is pending, and a
// precondition error (also stored in LastError) when an image is missing.
// The request is detached from ctx cancellation; it only ends by settling.
func (c *Controller) StartGenerate(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.state.InFlight {
		c.mu.Unlock()
		return nil, ErrInFlight
	}

	if c.state.Subject == nil || c.state.Garment == nil {
		err := domain.NewPreconditionError()
		c.state.LastError = domain.Message(err)
		c.touchAndPublishLocked()
		c.mu.Unlock()
		return nil, err
	}

	input := usecases.TryOnInput{
		Subject: c.state.Subject,
		Garment: c.state.Garment,
	}
	c.state.InFlight = true
	c.state.Result = nil
	c.state.LastError = ""
	c.state.LastRequestID = ""
	c.touchAndPublishLocked()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.settle(c.run(context.WithoutCancel(ctx), input))
	}()
	return done, nil
}

// Generate runs one cycle and blocks until it settles.
func (c *Controller) Generate(ctx context.Context) error {
	done, err := c.StartGenerate(ctx)
	if err != nil {
		return err
	}
	<-done
	return nil
}

func (c *Controller) run(ctx context.Context, input usecases.TryOnInput) (output *usecases.TryOnOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("try-on client panicked")
			output, err = nil, domain.NewRemoteError("", fmt.Errorf("panic: %v", r))
		}
	}()
	return c.client.Execute(ctx, input)
}

func (c *Controller) settle(output *usecases.TryOnOutput, err error) {
	if err == nil && (output == nil || output.Image == nil) {
		err = domain.NewNoResultError("", nil)
	}
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewRemoteError("", err)
		}
		// the cause stays in the log; users only see the classified message
		log.Warn().Err(err).Str("kind", string(domain.KindOf(err))).Msg("try-on request failed")
	}

	c.update(func(s *State) {
		s.InFlight = false
		if err != nil {
			s.Result = nil
			s.LastError = domain.Message(err)
			return
		}
		s.Result = output.Image
		s.LastError = ""
		s.LastRequestID = output.RequestID
	})
}

// Subscribe returns a channel that always holds the most recent state once it
// changes. Slow readers skip intermediate states. Call cancel to stop.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	ch := make(chan State, 1)
	c.subscribers[id] = ch
	ch <- c.state

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	c.touchAndPublishLocked()
}

func (c *Controller) touchAndPublishLocked() {
	c.lastActive = time.Now()
	for _, ch := range c.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- c.state
	}
}
