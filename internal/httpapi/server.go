// Package httpapi exposes the REST API: gorilla/mux routing, bearer-token
// middleware and one handler file per resource.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/agrilink/agrilink/internal/auth"
	"github.com/agrilink/agrilink/internal/config"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/internal/store"
	"github.com/agrilink/agrilink/internal/upload"
)

// Server holds the handlers' shared dependencies.
type Server struct {
	cfg     config.Config
	store   *store.Store
	auth    *auth.Service
	uploads *upload.Service
}

// NewServer wires the API over the store and services.
func NewServer(cfg config.Config, st *store.Store, authSvc *auth.Service, uploads *upload.Service) *Server {
	return &Server{cfg: cfg, store: st, auth: authSvc, uploads: uploads}
}

// Router builds the full route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware)

	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploads.Dir()))))

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Auth.
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.authenticate(s.handleLogout)).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", s.authenticate(s.handleMe)).Methods(http.MethodGet)
	api.HandleFunc("/auth/me", s.authenticate(s.handleUpdateMe)).Methods(http.MethodPut)
	api.HandleFunc("/auth/password/forgot", s.handleForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/password/reset", s.handleResetPassword).Methods(http.MethodPost)

	// Categories.
	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.requireRole(s.handleCreateCategory)).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", s.requireRole(s.handleUpdateCategory)).Methods(http.MethodPut)
	api.HandleFunc("/categories/{id}", s.requireRole(s.handleDeleteCategory)).Methods(http.MethodDelete)

	// Products.
	api.HandleFunc("/products", s.handleListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.handleGetProduct).Methods(http.MethodGet)
	api.HandleFunc("/products", s.requireRole(s.handleCreateProduct, models.RoleFarmer)).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", s.authenticate(s.handleUpdateProduct)).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", s.authenticate(s.handleDeleteProduct)).Methods(http.MethodDelete)

	// Orders.
	api.HandleFunc("/orders", s.requireRole(s.handleCreateOrder, models.RoleCustomer)).Methods(http.MethodPost)
	api.HandleFunc("/orders", s.authenticate(s.handleListOrders)).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.authenticate(s.handleGetOrder)).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", s.authenticate(s.handleOrderStatus)).Methods(http.MethodPost)

	// Consultations.
	api.HandleFunc("/consultations", s.requireRole(s.handleCreateConsultation, models.RoleFarmer)).Methods(http.MethodPost)
	api.HandleFunc("/consultations", s.authenticate(s.handleListConsultations)).Methods(http.MethodGet)
	api.HandleFunc("/consultations/{id}", s.authenticate(s.handleGetConsultation)).Methods(http.MethodGet)
	api.HandleFunc("/consultations/{id}/status", s.authenticate(s.handleConsultationStatus)).Methods(http.MethodPost)

	// Tips.
	api.HandleFunc("/tips", s.handleListTips).Methods(http.MethodGet)
	api.HandleFunc("/tips/saved", s.authenticate(s.handleListSavedTips)).Methods(http.MethodGet)
	api.HandleFunc("/tips/categories", s.handleListTipCategories).Methods(http.MethodGet)
	api.HandleFunc("/tips/categories", s.requireRole(s.handleCreateTipCategory)).Methods(http.MethodPost)
	api.HandleFunc("/tips/categories/{id}", s.requireRole(s.handleUpdateTipCategory)).Methods(http.MethodPut)
	api.HandleFunc("/tips/categories/{id}", s.requireRole(s.handleDeleteTipCategory)).Methods(http.MethodDelete)
	api.HandleFunc("/tips/{id}", s.handleGetTip).Methods(http.MethodGet)
	api.HandleFunc("/tips", s.requireRole(s.handleCreateTip, models.RoleExpert)).Methods(http.MethodPost)
	api.HandleFunc("/tips/{id}", s.authenticate(s.handleUpdateTip)).Methods(http.MethodPut)
	api.HandleFunc("/tips/{id}", s.authenticate(s.handleDeleteTip)).Methods(http.MethodDelete)
	api.HandleFunc("/tips/{id}/like", s.authenticate(s.handleLikeTip)).Methods(http.MethodPost)
	api.HandleFunc("/tips/{id}/save", s.authenticate(s.handleSaveTip)).Methods(http.MethodPost)

	// Success stories.
	api.HandleFunc("/stories", s.handleListStories).Methods(http.MethodGet)
	api.HandleFunc("/stories/{id}", s.handleGetStory).Methods(http.MethodGet)
	api.HandleFunc("/stories", s.requireRole(s.handleCreateStory, models.RoleFarmer, models.RoleExpert)).Methods(http.MethodPost)
	api.HandleFunc("/stories/{id}", s.authenticate(s.handleUpdateStory)).Methods(http.MethodPut)
	api.HandleFunc("/stories/{id}", s.authenticate(s.handleDeleteStory)).Methods(http.MethodDelete)
	api.HandleFunc("/stories/{id}/like", s.authenticate(s.handleLikeStory)).Methods(http.MethodPost)
	api.HandleFunc("/stories/{id}/comments", s.handleListStoryComments).Methods(http.MethodGet)
	api.HandleFunc("/stories/{id}/comments", s.authenticate(s.handleCreateStoryComment)).Methods(http.MethodPost)
	api.HandleFunc("/comments/{id}", s.authenticate(s.handleDeleteStoryComment)).Methods(http.MethodDelete)

	// Community messages.
	api.HandleFunc("/messages", s.handleListMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages", s.authenticate(s.handleCreateMessage)).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id}", s.authenticate(s.handleDeleteMessage)).Methods(http.MethodDelete)
	api.HandleFunc("/messages/{id}/like", s.authenticate(s.handleLikeMessage)).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id}/replies", s.handleListReplies).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id}/replies", s.authenticate(s.handleCreateReply)).Methods(http.MethodPost)
	api.HandleFunc("/replies/{id}", s.authenticate(s.handleDeleteReply)).Methods(http.MethodDelete)
	api.HandleFunc("/replies/{id}/like", s.authenticate(s.handleLikeReply)).Methods(http.MethodPost)

	return r
}

// handleHealth reports liveness including a database ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Pool.Ping(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// removeUploads deletes stored files whose owning row is gone. Best effort:
// a leftover file is only disk waste, so failures are logged, not surfaced.
func (s *Server) removeUploads(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.uploads.Remove(p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("failed to remove upload")
		}
	}
}
