package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/pipeline"
)

// Backend is the part of pipeline.Service the HTTP surface uses.
type Backend interface {
	Current() (*pipeline.Result, error)
	Loading() bool
	Search(filter model.Filter) ([]model.Company, error)
	Company(id string) (model.Company, error)
	Reload(ctx context.Context) (*pipeline.Result, error)
}

type Handler struct {
	Backend Backend
	Logger  *zap.Logger
}

// NewRouter wires the read-only routes plus POST /reload.
func NewRouter(backend Backend, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := Handler{Backend: backend, Logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/companies", h.ListCompanies).Methods(http.MethodGet)
	r.HandleFunc("/companies/{id}", h.GetCompany).Methods(http.MethodGet)
	r.HandleFunc("/filters", h.Filters).Methods(http.MethodGet)
	r.HandleFunc("/statistics", h.Statistics).Methods(http.MethodGet)
	r.HandleFunc("/reload", h.Reload).Methods(http.MethodPost)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not found")
	})

	r.Use(RequestID)
	r.Use(Logging(logger))
	r.Use(Cors)
	return r
}
