package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/faceclock/internal/domain"
	"github.com/attendly/faceclock/internal/liveness"
	"github.com/attendly/faceclock/internal/pipeline"
	"github.com/attendly/faceclock/internal/provider"
	"github.com/attendly/faceclock/internal/storage"
)

// DefaultSessionTTL is how long an idle capture session survives before a
// lazy sweep reclaims it.
const DefaultSessionTTL = 2 * time.Minute

// KioskService owns the capture sessions. Each session gets its own liveness
// state so one user's blink can never authorize another; frames within a
// session are serialized, sessions run concurrently.
type KioskService struct {
	pipeline   *pipeline.Pipeline
	detector   provider.FaceDetector
	photos     storage.PhotoStore
	liveness   liveness.Config
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*kioskSession
}

type kioskSession struct {
	mu        sync.Mutex
	liveness  *liveness.Session
	createdAt time.Time
	lastSeen  time.Time
}

// SessionInfo describes a capture session to the API layer.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func NewKioskService(p *pipeline.Pipeline, detector provider.FaceDetector, photos storage.PhotoStore, livenessCfg liveness.Config, logger *slog.Logger) *KioskService {
	return &KioskService{
		pipeline:   p,
		detector:   detector,
		photos:     photos,
		liveness:   livenessCfg,
		sessionTTL: DefaultSessionTTL,
		logger:     logger.With("component", "kiosk"),
		now:        time.Now,
		sessions:   make(map[string]*kioskSession),
	}
}

// StartSession creates a new capture session with fresh liveness state.
func (s *KioskService) StartSession() SessionInfo {
	now := s.now()
	session := &kioskSession{
		liveness:  liveness.NewSession(s.detector, s.liveness, s.logger),
		createdAt: now,
		lastSeen:  now,
	}

	id := uuid.New().String()

	s.mu.Lock()
	s.sweepLocked(now)
	s.sessions[id] = session
	s.mu.Unlock()

	s.logger.Debug("capture session started", "session_id", id)
	return SessionInfo{ID: id, CreatedAt: now}
}

// EndSession discards a capture session and its liveness evidence.
func (s *KioskService) EndSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// ProcessFrame runs one camera frame through the recognition pipeline.
// Malformed frames degrade to a WAIT result; only an unknown session is an
// error to the caller.
func (s *KioskService) ProcessFrame(ctx context.Context, id string, frameData []byte) (pipeline.Result, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		session.lastSeen = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return pipeline.Result{}, domain.ErrSessionNotFound
	}

	frame, _, err := image.Decode(bytes.NewReader(frameData))
	if err != nil {
		s.logger.Debug("frame decode failed", "session_id", id, "error", err)
		return pipeline.Result{Status: pipeline.StatusWait, Message: "still scanning"}, nil
	}

	// One frame at a time per session; the liveness state machine is not
	// meaningful under interleaved frames.
	session.mu.Lock()
	defer session.mu.Unlock()

	photoRef := s.savePhoto(ctx, id, frameData)

	result := s.pipeline.Recognize(ctx, id, session.liveness, frame, photoRef)

	// Keep the snapshot only when it documents an attendance event.
	if result.Status != pipeline.StatusRecognized && photoRef != "" {
		if err := s.photos.Remove(ctx, photoRef); err != nil {
			s.logger.Warn("frame snapshot cleanup failed", "ref", photoRef, "error", err)
		}
	}

	return result, nil
}

func (s *KioskService) savePhoto(ctx context.Context, sessionID string, frameData []byte) string {
	name := fmt.Sprintf("capture_%s.jpg", uuid.New())
	ref, err := s.photos.Save(ctx, name, frameData)
	if err != nil {
		s.logger.Warn("frame snapshot save failed", "session_id", sessionID, "error", err)
		return ""
	}
	return ref
}

// sweepLocked drops sessions idle past the TTL. Called with s.mu held; no
// background timer is needed since kiosks create sessions continuously.
func (s *KioskService) sweepLocked(now time.Time) {
	for id, session := range s.sessions {
		if now.Sub(session.lastSeen) > s.sessionTTL {
			delete(s.sessions, id)
			s.logger.Debug("capture session expired", "session_id", id)
		}
	}
}
