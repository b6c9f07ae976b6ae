package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"urbangen/internal/http/handlers"
	"urbangen/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(*app.Logger),
		middleware.CORS([]string{app.Cfg.CORSAllowedOrigin}),
	)

	r.Get("/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute))
			r.Post("/register", app.Register)
			r.Post("/login", app.Login)
		})

		r.Get("/modules", app.ListModules)
		r.Get("/packages", app.ListPackages)
		r.Get("/images/{id}", app.GetImage)

		// Webhook is signed by the gateway, not by a user token.
		r.Post("/payment/notify", app.PaymentNotify)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(app.Cfg.JWTSecret))

			r.Get("/user", app.Me)
			r.Get("/user/credits", app.Credits)
			r.Post("/generate", app.Generate)
			r.Post("/save-image", app.SaveImage)
			r.Get("/records", app.ListRecords)
			r.Post("/payment/orders", app.CreateOrder)
			r.Get("/payment/orders/{id}", app.QueryOrder)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/stats", app.AdminStats)
				r.Get("/records", app.AdminRecords)
				r.Get("/orders", app.AdminOrders)
				r.Put("/users/{id}/credits", app.UpdateCredits)
			})
		})
	})

	return r
}
