package dashboard

import (
	"log/slog"
	"net/http"
)

// Dashboard serves the product-search web UI. It is a static page that
// talks to the JSON API; mounting it on the API server keeps requests
// same-origin.
type Dashboard struct {
	logger *slog.Logger
}

// New creates a dashboard handler.
func New(logger *slog.Logger) *Dashboard {
	return &Dashboard{
		logger: logger.With("component", "dashboard"),
	}
}

func (d *Dashboard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(dashboardHTML))
}
