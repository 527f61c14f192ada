package httpx

import (
	"log/slog"
	"net/http"

	"github.com/ncdist/rw-automator/internal/service"
)

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	Jobs   *service.JobService
	Logger *slog.Logger // Logger for request logging and panic recovery (optional)
}

// NewRouter creates and configures the HTTP router. The API carries no
// authentication of its own; the dashboard in front of it owns identity.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	jobHandlers := &JobHandlers{Svc: services.Jobs}
	registerJobRoutes(mux, jobHandlers)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return Recover(logger)(Logging(logger)(mux))
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.Handle("POST /api/jobs", http.HandlerFunc(h.CreateJob))
	mux.Handle("GET /api/jobs/current", http.HandlerFunc(h.GetCurrentJobs))
	mux.Handle("GET /api/jobs/history", http.HandlerFunc(h.GetJobHistory))
	mux.Handle("GET /api/jobs/{id}/status", http.HandlerFunc(h.GetJobStatus))
	mux.Handle("POST /api/jobs/statuses", http.HandlerFunc(h.GetJobStatuses))
}
