package pipeline

import (
	"context"
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/attendly/faceclock/internal/audit"
	"github.com/attendly/faceclock/internal/domain"
	"github.com/attendly/faceclock/internal/embedding"
	"github.com/attendly/faceclock/internal/liveness"
	"github.com/attendly/faceclock/internal/provider"
	"github.com/attendly/faceclock/internal/settings"
)

// Status is the kiosk-facing outcome of one frame.
type Status string

const (
	// StatusWait tells the kiosk to keep streaming frames. All internal
	// failures degrade to this status so a live kiosk never stops on a 5xx.
	StatusWait Status = "WAIT"
	// StatusUnknown means a live face was seen but matched no enrolled employee.
	StatusUnknown Status = "UNKNOWN"
	// StatusRecognized means an enrolled employee was matched and the
	// attendance ledger was updated.
	StatusRecognized Status = "RECOGNIZED"
)

// Result is the outcome of recognizing one frame.
type Result struct {
	Status     Status                  `json:"status"`
	Message    string                  `json:"message,omitempty"`
	Liveness   liveness.Evaluation     `json:"liveness"`
	EmployeeID int64                   `json:"employee_id,omitempty"`
	Name       string                  `json:"name,omitempty"`
	Similarity float64                 `json:"similarity,omitempty"`
	Attendance *domain.AttendanceEvent `json:"attendance,omitempty"`
}

// LivenessEvaluator is the per-session liveness surface the pipeline consumes.
type LivenessEvaluator interface {
	Evaluate(ctx context.Context, frame image.Image) (liveness.Evaluation, error)
	Reset()
}

// Matcher finds the closest enrolled identity for an embedding.
type Matcher interface {
	Match(ctx context.Context, query []float64, threshold float64) (embedding.Match, bool, error)
}

// Ledger applies a recognition to the attendance records.
type Ledger interface {
	Apply(ctx context.Context, employeeID int64, now time.Time, photoRef string, cooldown time.Duration) (domain.AttendanceEvent, error)
}

// Pipeline orchestrates liveness, matching and the attendance ledger for the
// kiosk recognition path.
type Pipeline struct {
	faces    provider.FaceProvider
	matcher  Matcher
	ledger   Ledger
	settings *settings.Manager
	audit    audit.Logger
	logger   *slog.Logger
	now      func() time.Time
}

func New(faces provider.FaceProvider, matcher Matcher, ledger Ledger, mgr *settings.Manager, auditLogger audit.Logger, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		faces:    faces,
		matcher:  matcher,
		ledger:   ledger,
		settings: mgr,
		audit:    auditLogger,
		logger:   logger.With("component", "pipeline"),
		now:      time.Now,
	}
}

// Recognize runs one frame through liveness, matching and the ledger. It
// never returns an error: recognition-path failures are logged and degraded
// to a WAIT result so the capture UI keeps scanning.
func (p *Pipeline) Recognize(ctx context.Context, sessionID string, session LivenessEvaluator, frame image.Image, photoRef string) Result {
	eval, err := session.Evaluate(ctx, frame)
	if err != nil {
		p.logger.Warn("liveness evaluation failed", "session_id", sessionID, "error", err)
		return Result{Status: StatusWait, Message: "still scanning"}
	}
	if !eval.Live() {
		msg := eval.Message
		if msg == "" {
			msg = "still scanning"
		}
		return Result{Status: StatusWait, Message: msg, Liveness: eval}
	}

	cfg := p.settings.Snapshot()

	faces, err := p.faces.DetectFaces(ctx, frame)
	if err != nil {
		p.logger.Warn("face detection failed", "session_id", sessionID, "error", err)
		return Result{Status: StatusWait, Message: "still scanning", Liveness: eval}
	}
	if len(faces) == 0 {
		return Result{Status: StatusUnknown, Message: "no face detected", Liveness: eval}
	}
	// Bystanders are tolerated here; only the largest face is recognized.
	face, _ := provider.Largest(faces)
	if face.Confidence < cfg.MinConfidence {
		return Result{Status: StatusWait, Message: "face not clear enough", Liveness: eval}
	}

	emb, err := p.faces.ExtractEmbedding(ctx, frame, face.Box)
	if err != nil {
		p.logger.Warn("embedding extraction failed", "session_id", sessionID, "error", err)
		return Result{Status: StatusWait, Message: "still scanning", Liveness: eval}
	}

	match, ok, err := p.matcher.Match(ctx, emb, cfg.MatchThreshold)
	if err != nil {
		p.logger.Warn("embedding match failed", "session_id", sessionID, "error", err)
		return Result{Status: StatusWait, Message: "still scanning", Liveness: eval}
	}
	if !ok {
		_ = p.audit.Log(ctx, audit.Event{
			EventType: audit.EventMatchDecision,
			SessionID: sessionID,
			Success:   false,
			Metadata:  map[string]string{"threshold": formatFloat(cfg.MatchThreshold)},
		})
		return Result{Status: StatusUnknown, Message: "face not recognized", Liveness: eval}
	}

	_ = p.audit.Log(ctx, audit.Event{
		EventType:  audit.EventMatchDecision,
		EmployeeID: match.EmployeeID,
		SessionID:  sessionID,
		Success:    true,
		Metadata: map[string]string{
			"similarity": formatFloat(match.Similarity),
			"threshold":  formatFloat(cfg.MatchThreshold),
		},
	})

	event, err := p.ledger.Apply(ctx, match.EmployeeID, p.now(), photoRef, cfg.Cooldown)
	if err != nil {
		p.logger.Error("attendance update failed",
			"session_id", sessionID,
			"employee_id", match.EmployeeID,
			"error", err,
		)
		return Result{Status: StatusWait, Message: "still scanning", Liveness: eval}
	}

	_ = p.audit.Log(ctx, audit.Event{
		EventType:  audit.EventAttendanceTransition,
		EmployeeID: match.EmployeeID,
		SessionID:  sessionID,
		Success:    true,
		Metadata: map[string]string{
			"outcome": string(event.Outcome),
			"reason":  event.Reason,
		},
	})

	// The liveness verdict is consumed by this transition; fresh evidence is
	// required for the next person in front of the kiosk.
	session.Reset()

	return Result{
		Status:     StatusRecognized,
		Liveness:   eval,
		EmployeeID: match.EmployeeID,
		Name:       match.DisplayName,
		Similarity: match.Similarity,
		Attendance: &event,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
