package receipt

import (
	"log/slog"
	"net/http"
)

// Server handles HTTP requests for receipts and the dashboard. The frontend
// is served separately; this process only exposes the CORS-enabled API.
type Server struct {
	service *Service
	mux     *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(service *Service) *Server {
	return NewServerWithMux(service, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers to responses and answers preflights
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux.
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/receipts/{id}/file", s.handleGetReceiptFile)
	s.mux.HandleFunc("GET /api/receipts/{id}", s.handleGetReceipt)
	s.mux.HandleFunc("DELETE /api/receipts/{id}", s.handleDeleteReceipt)
	s.mux.HandleFunc("GET /api/receipts", s.handleListReceipts)
	s.mux.HandleFunc("POST /api/receipts", s.handleUploadReceipt)

	s.mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /", s.handleRoot)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s)
}

// ServeHTTP implements http.Handler. The mux is wrapped with the CORS
// middleware so preflight OPTIONS requests are answered before routing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.mux.ServeHTTP)(w, r)
}
