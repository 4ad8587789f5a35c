package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/mind-engage/neurocare/internal/assessment"
	"github.com/mind-engage/neurocare/internal/storage"
	"github.com/mind-engage/neurocare/internal/syncx"
)

// Deps are the collaborators the router mounts. Blobs, Events and Metrics
// are optional.
type Deps struct {
	Service     *assessment.Service
	Blobs       storage.BlobStore
	Events      *syncx.EventRepo
	Metrics     http.Handler
	Ready       func(ctx context.Context) error
	CORSOrigins []string

	RateLimit rate.Limit
	Burst     int
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("Welcome to Neurocare")) })
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		w.WriteHeader(200)
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.Blobs != nil {
		r.Route("/assets", func(ar chi.Router) {
			MountAssets(ar, d.Blobs)
		})
	}

	r.Route("/api", func(ar chi.Router) {
		write := ar.With()
		if d.RateLimit > 0 {
			write = ar.With(RateLimit(d.RateLimit, d.Burst))
		}
		write.Post("/submit", SubmitHandler(d.Service))
		write.Post("/responses", RecordResponsesHandler(d.Service))

		ar.Get("/user/{email}", GetUserHandler(d.Service))
		ar.Get("/submissions", ListSubmissionsHandler(d.Service))
		ar.Get("/conditions", ListConditionsHandler(d.Service))
		ar.Get("/questions", QuestionGroupsHandler(d.Service, d.Blobs))
		ar.Get("/questions/{condition}", QuestionsHandler(d.Service, d.Blobs))
		if d.Events != nil {
			ar.Get("/events", ListEventsHandler(d.Events))
		}
	})
	return r
}
