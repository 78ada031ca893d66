package handler

import (
	"net/http"

	"github.com/dnadawa/Prkcar-Backend/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds the route handlers
type Router struct {
	notifyHandler      *NotifyHandler
	scheduleHandler    *ScheduleHandler
	recognitionHandler *RecognitionHandler
	userHandler        *UserHandler
	deliveryHandler    *DeliveryHandler
	healthHandler      *HealthHandler
	corsConfig         middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	notifyHandler *NotifyHandler,
	scheduleHandler *ScheduleHandler,
	recognitionHandler *RecognitionHandler,
	userHandler *UserHandler,
	deliveryHandler *DeliveryHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		notifyHandler:      notifyHandler,
		scheduleHandler:    scheduleHandler,
		recognitionHandler: recognitionHandler,
		userHandler:        userHandler,
		deliveryHandler:    deliveryHandler,
		healthHandler:      healthHandler,
		corsConfig:         corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(rt.corsConfig))

	r.Post("/send", rt.notifyHandler.Send)
	r.Post("/sendSchedule", rt.scheduleHandler.SendSchedule)
	r.Post("/expire", rt.scheduleHandler.Expire)
	r.Post("/plateRecognize", rt.recognitionHandler.Recognize)
	r.Post("/sendEmail", rt.userHandler.SendEmail)
	r.Get("/deleteUser/{email}", rt.userHandler.DeleteUser)
	r.Get("/deliveries", rt.deliveryHandler.List)

	r.Get("/health", rt.healthHandler.Health)
	r.Get("/ready", rt.healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<h1>Hello</h1>"))
	})

	return r
}
