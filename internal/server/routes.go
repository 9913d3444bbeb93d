package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

func SetupRoutes(service *Service, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: opts.AllowCredentials,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", service.Health)

		r.Route("/upload", func(r chi.Router) {
			r.Post("/subjects", service.UploadSubjects)
			r.Post("/student-info", service.UploadStudentInfo)
			r.Get("/status", service.UploadStatus)
			r.Delete("/clear", service.ClearUploads)
		})

		r.Route("/preview", func(r chi.Router) {
			r.Get("/subjects", service.PreviewSubjects)
			r.Get("/student/{roll_no}", service.GetStudent)
			r.Put("/student/{roll_no}", service.UpdateStudent)
			r.Get("/backlog", service.GetBacklog)
			r.Put("/backlog/{roll_no}", service.UpdateBacklog)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Post("/generate", service.GenerateReports)
			r.Get("/list", service.ListReports)
			r.Get("/download/{filename}", service.DownloadReport)
			r.Get("/download-zip", service.DownloadZip)
			r.Delete("/clear", service.ClearReports)
		})
	})

	return r
}
