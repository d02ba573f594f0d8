package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-contacts-api/internal/application/auth"
	"github.com/go-contacts-api/internal/application/contact"
	"github.com/go-contacts-api/internal/application/user"
	"github.com/go-contacts-api/internal/config"
	"github.com/go-contacts-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-contacts-api/internal/infrastructure/jwt"
	rediscache "github.com/go-contacts-api/internal/infrastructure/redis"
	s3infra "github.com/go-contacts-api/internal/infrastructure/s3"
	"github.com/go-contacts-api/internal/infrastructure/smtp"
	"github.com/go-contacts-api/internal/infrastructure/sns"
	"github.com/go-contacts-api/internal/pkg/id"
	"github.com/go-contacts-api/internal/transport/http/handler"
	appmiddleware "github.com/go-contacts-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	ContactRepo *dynamo.ContactRepo
	UserCache   *rediscache.UserCache
	S3Store     *s3infra.Store
	Mailer      smtp.Mailer
	Events      sns.EventPublisher
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.BanUserAgents(cfg.BannedUserAgents))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:   deps.UserRepo,
		Cache:      deps.UserCache,
		Tokens:     deps.JWTProvider,
		Mailer:     deps.Mailer,
		Events:     deps.Events,
		CacheTTL:   cfg.CacheTTL,
		AppBaseURL: cfg.AppBaseURL,
		NewID:      id.New,
	})
	contactSvc := contact.NewService(contact.ServiceDeps{
		ContactRepo: deps.ContactRepo,
		NewID:       id.New,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:    deps.UserRepo,
		Cache:       deps.UserCache,
		AvatarStore: deps.S3Store,
		CacheTTL:    cfg.CacheTTL,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	contactH := handler.NewContactHandler(contactSvc)
	userH := handler.NewUserHandler(userSvc)

	authMw := appmiddleware.Auth(authSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", healthH.Check)

		r.With(sensitiveRL.Limit).Post("/auth/signup", authH.Signup)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.Post("/auth/refresh", authH.Refresh)
		r.Get("/auth/confirmed_email/{token}", authH.ConfirmEmail)
		r.With(sensitiveRL.Limit).Post("/auth/request_email", authH.RequestConfirmEmail)

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/logout", authH.Logout)

			r.Get("/contacts", contactH.List)
			r.Post("/contacts", contactH.Create)
			r.Get("/contacts/birthdays", contactH.Birthdays)
			r.Get("/contacts/{id}", contactH.Get)
			r.Put("/contacts/{id}", contactH.Update)
			r.Delete("/contacts/{id}", contactH.Delete)

			r.Get("/users/me", userH.Me)
			r.Patch("/users/avatar", userH.UpdateAvatar)
			r.Put("/users/password", userH.ChangePassword)
		})
	})

	return r
}
