package httpapi

import (
	"net/http"

	"fishball-groupbuy/internal/config"
	"fishball-groupbuy/internal/groupbuy"
	"fishball-groupbuy/internal/http/handlers"
	"fishball-groupbuy/internal/middleware"
	"fishball-groupbuy/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func NewRouter(svc *groupbuy.Service, logger *zap.Logger, cfg config.Config, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{Service: svc, Logger: logger, Config: cfg}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.CatalogGet)

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", h.GroupCreate)
			r.Get("/", h.GroupList)

			r.Route("/{groupId}", func(r chi.Router) {
				r.Get("/", h.GroupGet)
				r.Patch("/info", h.GroupInfoPatch)
				r.Put("/leader-notes", h.GroupLeaderNotesPut)
				r.Get("/aggregate", h.GroupAggregate)
				r.Post("/verify-token", h.GroupVerifyToken)

				r.Post("/orders", h.OrderCreate)
				r.Put("/orders/{orderId}", h.OrderUpdate)
				r.Delete("/orders/{orderId}", h.OrderDelete)
				r.Post("/members", h.MemberAdd)

				r.Post("/submit", h.GroupSubmit)
				r.Post("/cancel-submission", h.GroupCancelSubmission)
				r.Post("/confirm", h.GroupConfirm)
				r.Post("/cancel-confirmation", h.GroupCancelConfirmation)
				r.Post("/close", h.GroupClose)
				r.Post("/complete", h.GroupComplete)

				r.Put("/price-adjustments/{productId}", h.PriceAdjustmentPut)
				r.Put("/shipping-status", h.ShippingStatusPut)
				r.Put("/vendor-notes", h.VendorNotesPut)
			})
		})
	})

	r.Get("/ws/group/{groupId}", wsServer.GroupWS)

	return r
}
