package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Rmx21/knowledgeKeeper/pkg/config"
	"github.com/Rmx21/knowledgeKeeper/pkg/interview"
)

// SessionOwner reports who holds the cross-process session lock. Nil when
// the orchestrator runs without redis.
type SessionOwner interface {
	Owner(ctx context.Context) (string, error)
}

type Handler struct {
	controller *interview.Controller
	registry   *interview.Registry
	lock       SessionOwner
	config     *config.Config
	logger     *logrus.Logger
}

func NewHandler(controller *interview.Controller, registry *interview.Registry, lock SessionOwner, cfg *config.Config, logger *logrus.Logger) *Handler {
	return &Handler{
		controller: controller,
		registry:   registry,
		lock:       lock,
		config:     cfg,
		logger:     logger,
	}
}

type startInterviewRequest struct {
	UserID      string   `json:"user_id"`
	PhoneNumber string   `json:"phone_number"`
	Questions   []string `json:"questions,omitempty"`
	Analysis    string   `json:"analysis,omitempty"`
}

// StartInterview kicks off one interview asynchronously. The question list
// comes either literally or extracted from analysis text. A live session
// gets 409.
func (h *Handler) StartInterview(w http.ResponseWriter, r *http.Request) {
	var request startInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.UserID == "" || request.PhoneNumber == "" {
		http.Error(w, "user_id and phone_number are required", http.StatusBadRequest)
		return
	}

	var source interview.QuestionSource
	switch {
	case len(request.Questions) > 0:
		source = interview.StaticQuestions(request.Questions)
	case request.Analysis != "":
		source = interview.AnalysisSource{Analysis: request.Analysis, MaxQuestions: h.config.MaxQuestions}
	default:
		http.Error(w, "questions or analysis is required", http.StatusBadRequest)
		return
	}

	questions := source.Questions()
	if len(questions) == 0 {
		http.Error(w, "no questions could be extracted", http.StatusBadRequest)
		return
	}

	if _, live := h.registry.Current(); live {
		http.Error(w, "an interview session is already in progress", http.StatusConflict)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id":   request.UserID,
		"questions": len(questions),
	}).Info("Interview requested")

	// the interview spans minutes of polling; run it detached from the
	// request context, which dies as soon as 202 is written
	go func() {
		result := h.controller.ConductInterview(context.Background(), request.UserID, request.PhoneNumber, questions)
		if !result.Success {
			h.logger.WithFields(logrus.Fields{
				"user_id": request.UserID,
				"message": result.Message,
			}).Warn("Interview finished unsuccessfully")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "accepted",
		"user_id":   request.UserID,
		"questions": len(questions),
	})
}

// CurrentSession returns a snapshot of the live interview, 404 when idle
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	session, live := h.registry.Current()
	if !live {
		http.Error(w, "no interview session in progress", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	_, live := h.registry.Current()
	response := map[string]interface{}{
		"instance_id":    h.config.InstanceID,
		"session_active": live,
	}
	if h.lock != nil {
		if owner, err := h.lock.Owner(r.Context()); err == nil {
			response["lock_owner"] = owner
		} else {
			h.logger.WithError(err).Debug("Failed to read session lock owner")
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
