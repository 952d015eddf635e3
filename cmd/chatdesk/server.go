package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"chatdesk/internal/constants"
	"chatdesk/internal/errors"
	"chatdesk/internal/httputil"
	"chatdesk/internal/metrics"
	"chatdesk/internal/middleware"
	"chatdesk/internal/models"
	"chatdesk/internal/notify"
	"chatdesk/internal/service"
)

type Server struct {
	router    *mux.Router
	cfg       *models.Config
	logger    *logrus.Logger
	events    *service.Dispatcher
	chats     *service.ChatService
	messages  *service.MessageService
	reactions *service.ReactionService
	hub       *notify.Hub
	server    *http.Server
}

func NewServer(cfg *models.Config, events *service.Dispatcher, chats *service.ChatService, messages *service.MessageService, reactions *service.ReactionService, hub *notify.Hub, logger *logrus.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		cfg:       cfg,
		logger:    logger,
		events:    events,
		chats:     chats,
		messages:  messages,
		reactions: reactions,
		hub:       hub,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Websocket upgrade needs the raw ResponseWriter, so it stays outside
	// the observability wrapper.
	s.router.HandleFunc("/ws", s.hub.ServeHTTP).Methods(http.MethodGet)

	r := s.router.PathPrefix("/").Subrouter()
	r.Use(middleware.Observability(s.logger))

	r.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)
	r.HandleFunc("/webhook", s.handleWebhook()).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chats", s.handleListChats()).Methods(http.MethodGet)
	api.HandleFunc("/chats/{id}/messages", s.handleListMessages()).Methods(http.MethodGet)
	api.HandleFunc("/chats/{id}/status", s.handleChatStatus()).Methods(http.MethodPatch)
	api.HandleFunc("/messages/{id}/reactions", s.handleListReactions()).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  constants.DefaultServerReadTimeoutSec * time.Second,
		WriteTimeout: constants.DefaultServerWriteTimeoutSec * time.Second,
		IdleTimeout:  constants.DefaultServerIdleTimeoutSec * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Server.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"clients": s.hub.ClientCount(),
		})
	}
}

// handleWebhook ingests upstream events. It acknowledges receipt regardless
// of processing outcome; upstream retries on non-2xx are undesirable for a
// fire-and-forget path.
func (s *Server) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := verifySignature(r, s.cfg.Server.WebhookSecret)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"client_ip": httputil.GetClientIP(r),
				"error":     err,
			}).Warn("Webhook signature verification failed")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var env models.WebhookEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			s.logger.WithError(err).Warn("Webhook payload is not valid JSON")
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := s.events.Dispatch(r.Context(), &env); err != nil {
			code := errors.GetCode(err)
			metrics.IncrementCounter("webhook_processing_errors_total",
				map[string]string{"code": string(code)}, "Webhook processing failures by error code")
			s.logger.WithFields(logrus.Fields{
				service.LogFieldEventType: env.Type,
				service.LogFieldError:     err,
				"code":                    code,
			}).Error("Webhook processing failed")
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleListChats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r, constants.DefaultChatListLimit)
		chats, err := s.chats.ListChats(r.Context(), limit, offset)
		if err != nil {
			s.logger.WithError(err).Error("Failed to list chats")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.writeJSON(w, http.StatusOK, chats)
	}
}

func (s *Server) handleListMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID := mux.Vars(r)["id"]
		limit, offset := pageParams(r, constants.DefaultMessageListLimit)
		msgs, err := s.messages.ListMessages(r.Context(), chatID, limit, offset)
		if err != nil {
			s.logger.WithError(err).Error("Failed to list messages")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.writeJSON(w, http.StatusOK, msgs)
	}
}

func (s *Server) handleChatStatus() http.HandlerFunc {
	type statusRequest struct {
		Status models.ChatStatus `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		chatID := mux.Vars(r)["id"]

		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !models.ValidChatStatus(req.Status) {
			http.Error(w, "Invalid chat status", http.StatusBadRequest)
			return
		}

		chat, err := s.chats.SetChatStatus(r.Context(), chatID, req.Status)
		if err != nil {
			s.logger.WithError(err).Error("Failed to update chat status")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if chat == nil {
			http.Error(w, "Chat not found", http.StatusNotFound)
			return
		}

		s.hub.NotifyChatChanged(chat)
		s.writeJSON(w, http.StatusOK, chat)
	}
}

func (s *Server) handleListReactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID := mux.Vars(r)["id"]
		reactions, err := s.reactions.ReactionsForMessage(r.Context(), messageID)
		if err != nil {
			s.logger.WithError(err).Error("Failed to list reactions")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if reactions == nil {
			reactions = []models.Reaction{}
		}
		s.writeJSON(w, http.StatusOK, reactions)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func pageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
