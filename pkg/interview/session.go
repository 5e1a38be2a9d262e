package interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
	"github.com/Rmx21/knowledgeKeeper/pkg/metrics"
	"github.com/Rmx21/knowledgeKeeper/pkg/models"
)

// SessionLock is the optional cross-process claim backing the registry.
// A nil lock degrades to in-process exclusivity only.
type SessionLock interface {
	Acquire(ctx context.Context, ownerID string) (bool, error)
	Refresh(ctx context.Context, ownerID string) error
	Release(ctx context.Context, ownerID string) error
}

// Handle is the single-owner view of one live interview session. The
// controller and the delivery loop mutate it; everything else reads
// snapshots.
type Handle struct {
	mu      sync.Mutex
	session models.InterviewSession
}

func (h *Handle) Snapshot() models.InterviewSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.session
	s.Questions = append([]string(nil), h.session.Questions...)
	return s
}

func (h *Handle) SetStatus(status models.SessionStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session.Status = status
}

func (h *Handle) SetContact(contactID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session.ContactID = contactID
}

func (h *Handle) SetDelivered(count int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session.DeliveredCount = count
}

// Registry enforces the one-live-session invariant. It is the only factory
// for Handles; a second Begin while a session is live is refused.
type Registry struct {
	mu     sync.Mutex
	active *Handle

	lock    SessionLock
	logger  *logrus.Logger
	metrics *metrics.Metrics

	refreshEvery  time.Duration
	stopHeartbeat chan struct{}
}

func NewRegistry(lock SessionLock, logger *logrus.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		lock:         lock,
		logger:       logger,
		metrics:      m,
		refreshEvery: constants.MinutesToDuration(constants.DefaultSessionRefreshMinutes),
	}
}

// Begin claims the session slot and returns the handle for the new session.
// When a redis lock is configured the claim is also taken there, so two
// orchestrator processes cannot dial at the same time.
func (r *Registry) Begin(ctx context.Context, userID, phoneNumber, language string, questions []string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil, fmt.Errorf("an interview session is already in progress")
	}

	sessionID := uuid.New().String()
	if r.lock != nil {
		ok, err := r.lock.Acquire(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("an interview session is already in progress elsewhere")
		}
		// an interview can outlive the lock TTL (delivery ceiling plus
		// recording and transcription waits), so keep the claim alive
		// until Finish
		r.stopHeartbeat = make(chan struct{})
		go r.heartbeat(sessionID, r.stopHeartbeat)
	}

	if language == "" {
		language = constants.DefaultLanguage
	}

	handle := &Handle{
		session: models.InterviewSession{
			SessionID:   sessionID,
			UserID:      userID,
			PhoneNumber: phoneNumber,
			Language:    language,
			Status:      models.StatusInitiating,
			Questions:   append([]string(nil), questions...),
			StartedAt:   time.Now(),
		},
	}
	r.active = handle
	r.metrics.ActiveSessions.Set(1)
	r.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"user_id":    userID,
	}).Info("Interview session started")

	return handle, nil
}

// Finish releases the slot. The handle is reset to idle and no longer owned.
func (r *Registry) Finish(ctx context.Context, handle *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != handle {
		return
	}

	sessionID := handle.Snapshot().SessionID
	if r.lock != nil {
		close(r.stopHeartbeat)
		r.stopHeartbeat = nil
		if err := r.lock.Release(ctx, sessionID); err != nil {
			r.logger.WithError(err).Warn("Failed to release session lock")
		}
	}

	handle.SetStatus(models.StatusIdle)
	r.active = nil
	r.metrics.ActiveSessions.Set(0)
	r.logger.WithField("session_id", sessionID).Info("Interview session finished")
}

// Current returns a snapshot of the live session, if any
func (r *Registry) Current() (models.InterviewSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return models.InterviewSession{}, false
	}
	return r.active.Snapshot(), true
}

// heartbeat extends the lock TTL until stop is closed. A failed refresh is
// logged and retried on the next tick; the interview itself keeps running.
func (r *Registry) heartbeat(sessionID string, stop <-chan struct{}) {
	ticker := time.NewTicker(r.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := r.lock.Refresh(ctx, sessionID); err != nil {
				r.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to refresh session lock")
			}
			cancel()
		}
	}
}
