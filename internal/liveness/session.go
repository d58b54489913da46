package liveness

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/attendly/faceclock/internal/provider"
)

// Confidence weights for the three liveness signals.
const (
	textureWeight  = 0.3
	blinkWeight    = 0.4
	movementWeight = 0.3
)

// Config holds the tunables of a liveness session.
type Config struct {
	// DetectionInterval is how many frames a detected face box is reused
	// before detection runs again.
	DetectionInterval int
	// TextureMinScore is the texture score above which the texture check
	// passes.
	TextureMinScore float64
	// EyeClosedRatio is the eye aspect ratio (height/width) below which the
	// eyes count as closed.
	EyeClosedRatio float64
	// BlinkClosedFrames is the minimum consecutive closed frames for a
	// reopening to register as a completed blink.
	BlinkClosedFrames int
	// MovementMinPixels is the face-center displacement that counts as head
	// movement.
	MovementMinPixels float64
	// WindowCap bounds the sliding vote window.
	WindowCap int
	// WindowMin is the number of votes required before the window produces a
	// verdict.
	WindowMin int
	// PassRatio is the fraction of passing votes at which the window verdict
	// is LIVE.
	PassRatio float64
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		DetectionInterval: 10,
		TextureMinScore:   0.4,
		EyeClosedRatio:    0.3,
		BlinkClosedFrames: 2,
		MovementMinPixels: 15,
		WindowCap:         150,
		WindowMin:         30,
		PassRatio:         0.4,
	}
}

// Session accumulates liveness evidence across the frames of one capture
// stream. A Session must not be shared across concurrent users: a blink from
// one person must never authorize another. The hosting layer owns one Session
// per kiosk capture session and calls Reset between users.
type Session struct {
	detector provider.FaceDetector
	cadence  Cadence
	cfg      Config
	logger   *slog.Logger

	mu sync.Mutex

	frameIndex int
	face       *provider.DetectedFace

	closedFrames int
	totalBlinks  int

	lastCenter        *image.Point
	movementsDetected int
	directionChanges  int
	lastDirection     int // -1 left, +1 right, 0 unset

	window []frameVote
}

// NewSession creates a session with the given detector and config.
func NewSession(detector provider.FaceDetector, cfg Config, logger *slog.Logger) *Session {
	return &Session{
		detector: detector,
		cadence:  DetectEveryNFrames(cfg.DetectionInterval),
		cfg:      cfg,
		logger:   logger.With("component", "liveness"),
	}
}

// Reset clears all accumulated evidence. Call it at the start of each capture
// session and after a verdict has been consumed, so evidence from one user
// never carries over to the next.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frameIndex = 0
	s.face = nil
	s.closedFrames = 0
	s.totalBlinks = 0
	s.lastCenter = nil
	s.movementsDetected = 0
	s.directionChanges = 0
	s.lastDirection = 0
	s.window = nil
}

// Evaluate ingests one frame and returns the session's current verdict.
func (s *Session) Evaluate(ctx context.Context, frame image.Image) (Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.frameIndex
	s.frameIndex++

	if s.cadence.ShouldDetect(idx, s.face != nil) {
		faces, err := s.detector.DetectFaces(ctx, frame)
		if err != nil {
			return Evaluation{}, fmt.Errorf("liveness detection: %w", err)
		}
		if len(faces) == 0 {
			s.face = nil
			return Evaluation{
				Verdict:      VerdictNotLive,
				Message:      "no face detected",
				WindowFrames: len(s.window),
			}, nil
		}
		face, _ := provider.Largest(faces)
		s.face = &face
		s.observeMovement(face.Box)
	}

	s.observeBlink(ctx, frame)

	score, _ := textureScore(frame, s.face.Box)
	texturePassed := score > s.cfg.TextureMinScore

	blinkConfirmed := s.totalBlinks >= 1
	movementConfirmed := s.directionChanges >= 1 || s.movementsDetected >= 3

	confidence := 0.0
	checksPassed := 0
	if texturePassed {
		confidence += textureWeight
		checksPassed++
	}
	if blinkConfirmed {
		confidence += blinkWeight
		checksPassed++
	}
	if movementConfirmed {
		confidence += movementWeight
		checksPassed++
	}

	// A completed blink or a deliberate head turn is a strong anti-spoof
	// signal that a static photo cannot reproduce, so it short-circuits the
	// voting window.
	if blinkConfirmed || movementConfirmed {
		s.logger.Debug("liveness confirmed",
			"blinks", s.totalBlinks,
			"direction_changes", s.directionChanges,
			"movements", s.movementsDetected,
			"confidence", confidence,
		)
		return Evaluation{
			Verdict:      VerdictLive,
			Confidence:   confidence,
			ChecksPassed: checksPassed,
			WindowFrames: len(s.window),
		}, nil
	}

	s.recordVote(frameVote{
		passed:     checksPassed >= 2 && confidence >= 0.5,
		confidence: confidence,
	})
	return s.windowVerdict(), nil
}

// observeMovement updates the movement counters from a freshly detected box.
func (s *Session) observeMovement(box image.Rectangle) {
	center := image.Pt((box.Min.X+box.Max.X)/2, (box.Min.Y+box.Max.Y)/2)
	defer func() { s.lastCenter = &center }()

	if s.lastCenter == nil {
		return
	}
	dx := float64(center.X - s.lastCenter.X)
	dy := float64(center.Y - s.lastCenter.Y)
	if math.Hypot(dx, dy) <= s.cfg.MovementMinPixels {
		return
	}
	s.movementsDetected++

	// Only horizontally dominated motion counts toward the left/right
	// challenge gesture.
	if math.Abs(dx) <= math.Abs(dy) {
		return
	}
	dir := 1
	if dx < 0 {
		dir = -1
	}
	if s.lastDirection != 0 && dir != s.lastDirection {
		s.directionChanges++
	}
	s.lastDirection = dir
}

// observeBlink updates the blink counters from the eye regions of the current
// frame. When fewer than two eye regions are visible the detector's own
// eyes-open attribute stands in; without either signal the frame is
// indeterminate and leaves the counters untouched.
func (s *Session) observeBlink(ctx context.Context, frame image.Image) {
	eyes, err := s.detector.DetectEyes(ctx, frame, s.face.Box)
	if err != nil {
		s.logger.Debug("eye detection failed", "error", err)
		return
	}
	if len(eyes) < 2 {
		if s.face.EyesOpen != nil {
			s.observeEyeState(*s.face.EyesOpen)
		}
		return
	}

	ratio := (eyeAspect(eyes[0]) + eyeAspect(eyes[1])) / 2
	s.observeEyeState(ratio >= s.cfg.EyeClosedRatio)
}

// observeEyeState advances the blink counter: a reopening after enough
// consecutive closed frames counts as one completed blink.
func (s *Session) observeEyeState(open bool) {
	if !open {
		s.closedFrames++
		return
	}
	if s.closedFrames >= s.cfg.BlinkClosedFrames {
		s.totalBlinks++
	}
	s.closedFrames = 0
}

func eyeAspect(r image.Rectangle) float64 {
	if r.Dx() == 0 {
		return 0
	}
	return float64(r.Dy()) / float64(r.Dx())
}

// recordVote appends to the sliding window, evicting the oldest entry once
// the cap is reached.
func (s *Session) recordVote(v frameVote) {
	s.window = append(s.window, v)
	if len(s.window) > s.cfg.WindowCap {
		s.window = s.window[1:]
	}
}

// windowVerdict debounces the accumulated votes. The pass ratio bar is low on
// purpose: the window exists to reject sustained spoofing, not to demand
// continuous perfect evidence.
func (s *Session) windowVerdict() Evaluation {
	n := len(s.window)
	if n < s.cfg.WindowMin {
		return Evaluation{
			Verdict:      VerdictAnalyzing,
			Message:      fmt.Sprintf("analyzing (%d/%d frames)", n, s.cfg.WindowMin),
			WindowFrames: n,
		}
	}

	passed := 0
	var sum float64
	for _, v := range s.window {
		if v.passed {
			passed++
		}
		sum += v.confidence
	}
	passRatio := float64(passed) / float64(n)
	avg := sum / float64(n)

	if passRatio >= s.cfg.PassRatio {
		return Evaluation{
			Verdict:      VerdictLive,
			Confidence:   avg,
			WindowFrames: n,
		}
	}
	return Evaluation{
		Verdict:      VerdictNotLive,
		Confidence:   avg,
		Message:      "liveness checks failed",
		WindowFrames: n,
	}
}
