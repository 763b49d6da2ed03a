// Package httpapi assembles the HTTP surface: middleware, authentication,
// throttling and the cart and order routes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"little-lemon/internal/auth"
	"little-lemon/internal/httpx"
	"little-lemon/internal/logger"
	"little-lemon/internal/services/cart"
	"little-lemon/internal/services/order"
	"little-lemon/internal/throttle"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators NewRouter wires together. Throttler and
// Broker may be nil.
type Deps struct {
	Logger         *logger.Logger
	Authenticator  *auth.Authenticator
	Throttler      *throttle.Throttler
	Cart           *cart.Handler
	Orders         *order.Handler
	Database       Pinger
	Broker         Pinger
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}
	if d.Throttler != nil {
		r.Use(d.Throttler.Anonymous)
		d.Authenticator.GateFailures(d.Throttler.RejectedCredentials)
	}

	r.Get("/health", healthHandler(d.Database, d.Broker))

	r.Group(func(r chi.Router) {
		r.Use(d.Authenticator.Middleware)
		if d.Throttler != nil {
			r.Use(d.Throttler.User)
		}
		d.Cart.Routes(r)
		d.Orders.Routes(r)
	})

	return r
}
