// Package session owns the lifecycle of authenticated sessions.
//
// A session is a persisted row identified by a UUID; clients hold a signed JWT whose
// `jti` is the session ID. Ending a session revokes the row so its tokens stop resolving
// even before they expire.
package session

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/user"
)

var (
	ErrNoSession      = errors.New("no session")
	ErrNotFound       = errors.New("session not found")
	ErrRefreshExpired = errors.New("refresh has expired")

	audience = "ADZ4NEEDZ Portal"
)

type Session struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt time.Time  `db:"expires_at"` // end of the refresh window
	RevokedAt *time.Time `db:"revoked_at"`
}

// Active reports whether the session is neither revoked nor expired at t.
func (s Session) Active(t time.Time) bool {
	return s.RevokedAt == nil && t.Before(s.ExpiresAt)
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Role         string `json:"role,omitempty"`       // MENTOR -> mentor views
	Department   string `json:"department,omitempty"` // scopes tasks & class sessions
}

func (c *Claims) IsMentor() bool { return user.Role(c.Role) == user.RoleMentor }

type Repository interface {
	CreateSession(ctx context.Context, s Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	// RevokeSession sets RevokedAt if not already set. It returns ErrNotFound for unknown sessions.
	RevokeSession(ctx context.Context, id string, at time.Time) error
	// DeleteExpiredSessions removes sessions whose refresh window ended before t.
	DeleteExpiredSessions(ctx context.Context, t time.Time) (int, error)
}

// Manager creates, resolves and invalidates sessions.
type Manager struct {
	repo   Repository
	usrSvc user.Service

	key      []byte
	issuer   string
	expDelta time.Duration
	refDelta time.Duration
	now      func() time.Time
}

func NewManager(repo Repository, usrSvc user.Service, conf *core.Config, now ...func() time.Time) *Manager {
	m := &Manager{
		repo:     repo,
		usrSvc:   usrSvc,
		key:      []byte(conf.SecretKey),
		issuer:   conf.AppName,
		expDelta: conf.Server.JWTExpirationDelta,
		refDelta: conf.Server.JWTRefreshExpirationDelta,
		now:      time.Now,
	}
	if len(now) > 0 {
		m.now = now[0]
	}
	return m
}

// SigningKey is the HS256 key tokens are signed with.
func (m *Manager) SigningKey() []byte { return m.key }

func (m *Manager) claims(u user.User, sessID string, origIat int64) *Claims {
	now := m.now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sessID,
			Issuer:    m.issuer,
			Subject:   u.ID,
			Audience:  audience,
			ExpiresAt: now.Add(m.expDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: origIat,
		Name:         u.FullName,
		Role:         string(u.Role),
		Department:   string(u.Department),
	}
}

// Sign generates a signed JWT token string representing the Claims.
func (m *Manager) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(m.key)
	return ss, errors.Wrap(err, "signing token")
}

func (m *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return m.key, nil
}

// Parse verifies the token signature, then its expiry and issue time against the manager's clock.
func (m *Manager) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	claims := new(Claims)
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(token, claims, m.keyFunc); err != nil {
		return nil, ErrNoSession
	}
	now := m.now().Unix()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyIssuedAt(now, false) {
		return nil, ErrNoSession
	}
	return claims, nil
}

// Start persists a new session for u and returns it with its first token.
func (m *Manager) Start(ctx context.Context, u user.User) (Session, string, error) {
	now := m.now().UTC()
	sess, err := m.repo.CreateSession(ctx, Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.refDelta),
	})
	if err != nil {
		return Session{}, "", errors.Wrap(err, "creating session")
	}
	token, err := m.Sign(m.claims(u, sess.ID, now.Unix()))
	if err != nil {
		return Session{}, "", err
	}
	return sess, token, nil
}

// Resolve returns the user of the live session the token belongs to.
// It returns ErrNoSession for empty, invalid, expired or revoked tokens and for deactivated users.
func (m *Manager) Resolve(ctx context.Context, token string) (user.User, Session, error) {
	claims, err := m.Parse(token)
	if err != nil {
		return user.User{}, Session{}, err
	}
	return m.ResolveClaims(ctx, claims)
}

// ResolveClaims is Resolve for claims that were already verified.
func (m *Manager) ResolveClaims(ctx context.Context, claims *Claims) (user.User, Session, error) {
	sess, err := m.repo.GetSession(ctx, claims.Id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return user.User{}, Session{}, ErrNoSession
		}
		return user.User{}, Session{}, errors.Wrap(err, "finding session")
	}
	if !sess.Active(m.now()) || sess.UserID != claims.Subject {
		return user.User{}, Session{}, ErrNoSession
	}

	usr, err := m.usrSvc.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, Session{}, ErrNoSession
		}
		return user.User{}, Session{}, errors.Wrap(err, "finding session user")
	}
	if !usr.IsActive {
		return user.User{}, Session{}, ErrNoSession
	}
	return usr, sess, nil
}

// End revokes the session the token belongs to.
// Unknown, expired, already revoked or malformed tokens are not an error.
func (m *Manager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims := new(Claims)
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(token, claims, m.keyFunc); err != nil || claims.Id == "" {
		return nil
	}
	if err := m.repo.RevokeSession(ctx, claims.Id, m.now().UTC()); err != nil && errors.Cause(err) != ErrNotFound {
		return errors.Wrap(err, "revoking session")
	}
	return nil
}

// Refresh issues a new token for the session while its refresh window is open.
func (m *Manager) Refresh(ctx context.Context, token string) (string, error) {
	claims, err := m.Parse(token)
	if err != nil {
		return "", err
	}
	// check if refresh has not expired
	if m.now().After(time.Unix(claims.OrigIssuedAt, 0).Add(m.refDelta)) {
		return "", ErrRefreshExpired
	}
	usr, sess, err := m.ResolveClaims(ctx, claims)
	if err != nil {
		return "", err
	}
	return m.Sign(m.claims(usr, sess.ID, claims.OrigIssuedAt))
}

// Purge deletes sessions whose refresh window has ended.
func (m *Manager) Purge(ctx context.Context) (int, error) {
	return m.repo.DeleteExpiredSessions(ctx, m.now().UTC())
}
