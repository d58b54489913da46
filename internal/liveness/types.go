package liveness

// Verdict is the per-call outcome of a liveness evaluation.
type Verdict string

const (
	// VerdictLive means the session accumulated enough evidence of a live subject
	VerdictLive Verdict = "LIVE"
	// VerdictNotLive means the evidence points at a photo or replay
	VerdictNotLive Verdict = "NOT_LIVE"
	// VerdictAnalyzing means the voting window has not filled yet
	VerdictAnalyzing Verdict = "ANALYZING"
)

// Evaluation is the result of evaluating one frame.
type Evaluation struct {
	Verdict      Verdict `json:"verdict"`
	Confidence   float64 `json:"confidence"`
	Message      string  `json:"message,omitempty"`
	ChecksPassed int     `json:"checks_passed"`
	WindowFrames int     `json:"window_frames"`
}

// Live reports whether this evaluation authorizes recognition.
func (e Evaluation) Live() bool {
	return e.Verdict == VerdictLive
}

// frameVote is one entry in the sliding voting window.
type frameVote struct {
	passed     bool
	confidence float64
}
