package httpapi

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterOptions struct {
	// AuthMiddleware guards every route except /healthz, /auth/login and /auth/activate.
	// Defaults to session authentication through the admins service.
	AuthMiddleware func(http.Handler) http.Handler
	Logger         *zap.Logger

	// LoginRateLimitRPM bounds login and activation attempts per client IP per minute.
	LoginRateLimitRPM int
	// Now drives the rate limiter; defaults to time.Now.
	Now func() time.Time

	// TrustedProxies are the only peers whose X-Forwarded-For and X-Real-IP headers are
	// honoured. Empty means the socket address is always the client.
	TrustedProxies []netip.Prefix
}

// NewRouter constructs the API HTTP router with session authentication.
func NewRouter(api *Server) http.Handler {
	return NewRouterWithOptions(api, RouterOptions{})
}

func NewRouterWithOptions(api *Server, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = api.logger
	}
	auth := opts.AuthMiddleware
	if auth == nil {
		auth = NewAuthMiddleware(api.admins)
	}
	limiter := newIPRateLimiter(opts.LoginRateLimitRPM, opts.Now)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(trustedRealIP(opts.TrustedProxies))
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/auth/login", api.login)
		r.Post("/auth/activate", api.activate)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/auth/logout", api.logout)
		r.Get("/auth/me", api.me)
		r.Post("/auth/password", api.changePassword)

		r.Route("/admins", func(r chi.Router) {
			r.Get("/", api.listAdmins)
			r.Post("/", api.inviteAdmin)
			r.Route("/{adminId}", func(r chi.Router) {
				r.Get("/", api.getAdmin)
				r.Patch("/", api.updateAdmin)
				r.Delete("/", api.deleteAdmin)
				r.Post("/invitation", api.resendInvitation)
				r.Post("/disable", api.disableAdmin)
				r.Post("/enable", api.enableAdmin)
			})
		})

		r.Route("/seasons", func(r chi.Router) {
			r.Get("/", api.listSeasons)
			r.Post("/", api.createSeason)
			r.Get("/current", api.getCurrentSeason)
			r.Route("/{seasonId}", func(r chi.Router) {
				r.Get("/", api.getSeason)
				r.Patch("/", api.updateSeason)
				r.Delete("/", api.deleteSeason)
				r.Post("/current", api.setCurrentSeason)
				r.Get("/memberships", api.listSeasonRoster)
				r.Get("/stats", api.getSeasonStats)
				r.Get("/export", api.exportSeason)
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", api.listMembers)
			r.Post("/", api.createMember)
			r.Get("/export", api.exportMembers)
			r.Route("/{memberId}", func(r chi.Router) {
				r.Get("/", api.getMember)
				r.Patch("/", api.updateMember)
				r.Delete("/", api.deleteMember)
				r.Get("/picture", api.getMemberPicture)
				r.Put("/picture", api.putMemberPicture)
				r.Delete("/picture", api.deleteMemberPicture)
				r.Get("/memberships", api.listMemberMemberships)
				r.Put("/memberships/{seasonId}", api.registerMembership)
				r.Delete("/memberships/{seasonId}", api.unregisterMembership)
			})
		})

		r.Get("/dashboard", api.getDashboard)
	})
	return r
}
