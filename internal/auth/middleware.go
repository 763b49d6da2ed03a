package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"little-lemon/internal/httpx"
	"little-lemon/internal/logger"
	"little-lemon/internal/models"
	"little-lemon/internal/roles"
	"little-lemon/internal/store"
)

type ctxKey struct{}

func WithRequester(ctx context.Context, requester models.Requester) context.Context {
	return context.WithValue(ctx, ctxKey{}, requester)
}

func RequesterFrom(ctx context.Context) (models.Requester, bool) {
	requester, ok := ctx.Value(ctxKey{}).(models.Requester)
	return requester, ok
}

// Requester returns the authenticated requester, writing a 401 when the
// request never passed through Middleware.
func Requester(w http.ResponseWriter, r *http.Request) (models.Requester, bool) {
	requester, ok := RequesterFrom(r.Context())
	if !ok {
		httpx.WriteStatus(w, r, http.StatusUnauthorized, "authentication required")
	}
	return requester, ok
}

// UserLookup resolves the user named by a token.
type UserLookup interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticator verifies the bearer token, loads the user and resolves its
// roles. Handlers downstream read the result with RequesterFrom.
type Authenticator struct {
	tokens   *Tokens
	users    UserLookup
	resolver *roles.Resolver
	logger   *logger.Logger
	gate     FailureGate
}

// FailureGate runs before a 401 is written. It returns false when it has
// already answered the request itself.
type FailureGate func(w http.ResponseWriter, r *http.Request) bool

func NewAuthenticator(tokens *Tokens, users UserLookup, resolver *roles.Resolver, log *logger.Logger) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		users:    users,
		resolver: resolver,
		logger:   log,
	}
}

// GateFailures installs gate on every rejection path.
func (a *Authenticator) GateFailures(gate FailureGate) {
	a.gate = gate
}

func (a *Authenticator) unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	if a.gate != nil && !a.gate(w, r) {
		return
	}
	httpx.WriteStatus(w, r, http.StatusUnauthorized, message)
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := logger.RequestID(ctx)

		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			a.unauthorized(w, r, "missing or invalid token")
			return
		}

		claims, err := a.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			a.logger.Debug("auth_failed", "Token rejected", requestID, map[string]interface{}{
				"reason": err.Error(),
			})
			a.unauthorized(w, r, "invalid token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			a.unauthorized(w, r, "invalid token")
			return
		}

		user, err := a.users.UserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				a.unauthorized(w, r, "unknown user")
				return
			}
			httpx.WriteError(w, r, a.logger, "auth_user_lookup", err)
			return
		}

		requester, err := a.resolver.Resolve(ctx, *user)
		if err != nil {
			httpx.WriteError(w, r, a.logger, "auth_resolve_roles", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithRequester(ctx, requester)))
	})
}
