// Package portal implements the role-gated shell every portal page is rendered through.
//
// A Shell starts in Loading, checks the session store once when mounted, then settles on
// Unauthenticated (authentication screen), Authenticated (navigation shell routed by role)
// or CheckFailed (the check errored or timed out).
package portal

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core/user"
)

const DefaultCheckTimeout = 5 * time.Second

var (
	ErrCheckTimeout      = errors.New("session check timed out")
	ErrInvalidTransition = errors.New("invalid shell transition")
)

type State int

const (
	Loading State = iota
	Unauthenticated
	Authenticated
	CheckFailed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "LOADING"
	case Unauthenticated:
		return "UNAUTHENTICATED"
	case Authenticated:
		return "AUTHENTICATED"
	case CheckFailed:
		return "CHECK_FAILED"
	}
	return "UNKNOWN"
}

// SessionStore is the session collaborator the shell consumes.
// CurrentUser reports a missing session with ok == false, never with an error.
type SessionStore interface {
	CurrentUser(ctx context.Context) (usr user.User, ok bool, err error)
	Logout(ctx context.Context) error
}

type Options struct {
	CheckTimeout time.Duration
}

type Option func(*Options)

func WithCheckTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.CheckTimeout = d
		}
	}
}

// Shell is owned by a single request or session; it is safe for concurrent use.
type Shell struct {
	store SessionStore
	opts  Options
	once  sync.Once

	mu       sync.Mutex
	state    State
	usr      *user.User
	menuOpen bool
	checkErr error
}

func New(store SessionStore, opts ...Option) *Shell {
	o := Options{CheckTimeout: DefaultCheckTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Shell{store: store, opts: o, state: Loading}
}

type checkResult struct {
	usr user.User
	ok  bool
	err error
}

// Mount performs the session check. Only the first call checks; later calls return the current state.
func (s *Shell) Mount(ctx context.Context) State {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.opts.CheckTimeout)
		defer cancel()

		done := make(chan checkResult, 1)
		go func() {
			usr, ok, err := s.store.CurrentUser(ctx)
			done <- checkResult{usr: usr, ok: ok, err: err}
		}()

		var res checkResult
		select {
		case res = <-done:
		case <-ctx.Done():
			res.err = ctx.Err()
		}
		if res.err != nil && ctx.Err() == context.DeadlineExceeded {
			res.err = ErrCheckTimeout
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state != Loading { // a login callback won the race
			return
		}
		switch {
		case res.err != nil:
			s.state = CheckFailed
			s.checkErr = res.err
		case res.ok:
			usr := res.usr
			s.usr = &usr
			s.state = Authenticated
		default:
			s.state = Unauthenticated
		}
	})
	return s.State()
}

// Login is the authentication callback: it is invoked once per successful login or registration.
func (s *Shell) Login(u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Unauthenticated, CheckFailed:
		s.usr = &u
		s.state = Authenticated
		s.checkErr = nil
		s.menuOpen = false
		return nil
	}
	return errors.Wrapf(ErrInvalidTransition, "login from %s", s.state)
}

// SignOut logs out of the session store and returns to the authentication screen.
// Calling it more than once has the same effect as calling it once. The state changes even
// when the store fails to log out; that error is returned for logging only.
func (s *Shell) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.usr = nil
	s.menuOpen = false
	s.state = Unauthenticated
	s.checkErr = nil
	s.mu.Unlock()

	return errors.Wrap(s.store.Logout(ctx), "logging out")
}

// ToggleMenu flips the mobile menu while authenticated and returns whether it is open.
func (s *Shell) ToggleMenu() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Authenticated {
		s.menuOpen = !s.menuOpen
	}
	return s.menuOpen
}

func (s *Shell) CloseMenu() {
	s.mu.Lock()
	s.menuOpen = false
	s.mu.Unlock()
}

func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the authenticated user, if any.
func (s *Shell) User() (user.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usr == nil {
		return user.User{}, false
	}
	return *s.usr, true
}

// Err returns why the session check failed.
func (s *Shell) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkErr
}
