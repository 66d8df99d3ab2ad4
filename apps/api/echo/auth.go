package echoapi

import (
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core/session"
	"github.com/adz4needz/portal/core/user"
)

const (
	tokenContextKey   = "userToken"
	contextUserKey    = "user"
	contextSessionKey = "session"

	bearerScheme = "Bearer"
)

// newJWTMiddleware verifies the bearer token and stores it in the context under tokenContextKey.
func newJWTMiddleware(mgr *session.Manager) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    mgr.SigningKey(),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(session.Claims),
		AuthScheme:    bearerScheme,
	})
}

// sessionMiddleware resolves the verified token to its live session and user.
// Tokens of revoked sessions or deactivated users are rejected even though their signature is valid.
func sessionMiddleware(mgr *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			usr, sess, err := mgr.ResolveClaims(ctx.Request().Context(), claims)
			if err != nil {
				if errors.Cause(err) == session.ErrNoSession {
					return errUnauthorized
				}
				return errors.Wrap(err, "resolving session")
			}
			ctx.Set(contextUserKey, usr)
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func getContextToken(ctx echo.Context) (*jwt.Token, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		return token, nil
	}
	return nil, errUnauthorized
}

func getContextClaims(ctx echo.Context) (*session.Claims, error) {
	token, err := getContextToken(ctx)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*session.Claims); ok {
		return claims, nil
	}
	return nil, errUnauthorized
}

// getContextUser returns the user resolved by sessionMiddleware.
func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

// bearerToken returns the raw token of the Authorization header, for endpoints where authentication is optional.
func bearerToken(ctx echo.Context) string {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	l := len(bearerScheme)
	if len(auth) > l+1 && strings.EqualFold(auth[:l], bearerScheme) {
		return strings.TrimSpace(auth[l+1:])
	}
	return ""
}
