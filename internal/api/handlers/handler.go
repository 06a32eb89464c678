// handler.go — основной обработчик API, собирающий маршруты сервиса.
// JSON API под /api/v1, HTML-страницы просмотра, раздача blob и health trio.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/qrshare/internal/api/middleware"
	"github.com/bigkaa/qrshare/internal/blobstore"
	"github.com/bigkaa/qrshare/internal/service"
)

// APIHandler — основной обработчик API сервиса qrshare.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	shares *service.ShareService
	access *service.AccessService
	blobs  blobstore.BlobStore
	health *HealthHandler
	logger *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	shares *service.ShareService,
	access *service.AccessService,
	blobs blobstore.BlobStore,
	health *HealthHandler,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		shares: shares,
		access: access,
		blobs:  blobs,
		health: health,
		logger: logger.With(slog.String("component", "api_handler")),
	}
}

// Router собирает chi-маршрутизатор со всеми endpoints и middleware.
func (h *APIHandler) Router(logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.CORS())

	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)

	r.Route("/api/v1/shares", func(r chi.Router) {
		r.Post("/text", h.CreateTextShare)
		r.Post("/file", h.CreateFileShare)

		r.Route("/text/{shareID}", func(r chi.Router) {
			r.Get("/", h.GetTextShare)
			r.Post("/unlock", h.UnlockTextShare)
			r.Get("/qr", h.TextShareQR)
			r.Get("/qr.pdf", h.TextShareQRPDF)
		})
		r.Route("/file/{shareID}", func(r chi.Router) {
			r.Get("/", h.GetFileShare)
			r.Post("/unlock", h.UnlockFileShare)
			r.Get("/qr", h.FileShareQR)
			r.Get("/qr.pdf", h.FileShareQRPDF)
		})
	})

	r.Get("/uploads/*", h.ServeUpload)

	r.Get("/view", h.ViewText)
	r.Post("/view", h.ViewText)
	r.Get("/view-file", h.ViewFile)
	r.Post("/view-file", h.ViewFile)

	return r
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
