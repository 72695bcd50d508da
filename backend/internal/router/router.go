package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ligaac/practica/backend/internal/setup"
	mw "github.com/ligaac/practica/shared/middleware"
	"github.com/ligaac/practica/shared/middleware/metrics"
	rl "github.com/ligaac/practica/shared/middleware/ratelimiter"
)

// New creates the chi router with every route of the API.
// IMPORTANT! ratelimiters set with .Use limit requests for all endpoints of that group combined
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config.Public

	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CorsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Location", "Content-Disposition"},
		MaxAge:         300,
	}))
	r.Use(mw.SecurityHeaders{
		HSTS:            cfg.SecureCookies,
		CSP:             mw.APICSP,
		PrivatePrefixes: []string{"/v1/export/", "/upload/cv/"},
	}.Handler)
	r.Use(mw.StripCookies("/v1/", "/upload/"))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	clientIP := mw.GetIP
	if cfg.TrustProxy {
		clientIP = mw.GetProxiedIP
	}

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// CV documents are public by link, like the rest of /upload
	r.Get("/upload/cv/{profileId}/{basename}", h.DownloadCV)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(auth chi.Router) {
			// Login endpoints: burst of 5 then 5 per minute, by IP and by email
			auth.Group(func(login chi.Router) {
				login.Use(authMw.OptionalAuth())
				login.Use(mw.RateLimit(rl.Login(), clientIP))
				login.Use(mw.RateLimit(rl.Login(), mw.GetEmailFromBody))
				login.Use(mw.GlobalRateLimit(rl.Rps100()))
				login.Post("/login", h.Login)
				login.Post("/staff/login", h.StaffLogin)
			})

			auth.With(authMw.OptionalAuth()).Post("/logout", h.Logout)
			auth.With(authMw.NeedAuth()).Get("/tokens", h.Sessions)
		})

		// Public catalogue
		v1.Group(func(public chi.Router) {
			public.Use(mw.RateLimit(rl.Rps10(), clientIP))
			public.Get("/companies", h.Companies)
			public.Get("/companies/{slug}", h.Company)
		})

		// The signed token in the query is the only credential
		v1.With(mw.RateLimit(rl.OnceInSecond(), clientIP)).
			Get("/export/companies/{companyId}/applicants", h.ExportApplicants)

		// Logged-in user routes
		v1.Group(func(loggedIn chi.Router) {
			loggedIn.Use(authMw.NeedAuth())
			loggedIn.Use(mw.RateLimit(rl.Rps10(), mw.GetUserIDFromContext))

			loggedIn.Get("/me", h.Me)
			loggedIn.Patch("/me/profile", h.UpdateProfile)
			loggedIn.Post("/me/applications/{offerId}", h.Apply)
			loggedIn.Delete("/me/applications/{offerId}", h.Withdraw)
			loggedIn.With(mw.RateLimit(rl.OnceInSecond(), mw.GetUserIDFromContext)).Post("/upload/cv", h.UploadCV)
		})

		// Staff routes, scoped by group membership inside the services
		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(authMw.StaffOnly())

			admin.Get("/companies", h.AdminCompanies)
			admin.With(authMw.SuperuserOnly()).Post("/companies", h.CreateCompany)
			admin.Get("/companies/{companyId}/export_link", h.ExportLink)
			admin.Put("/companies/{companyId}/slug", h.RenameCompany)
			admin.Get("/offers", h.AdminOffers)
			admin.Post("/offers", h.CreateOffer)
			admin.Get("/applicants", h.AdminApplicants)
		})
	})

	return r
}
