package liveness

// Cadence decides when a frame must run real face detection instead of
// reusing the cached bounding box. Pulled out as a strategy so the
// amortization policy is testable without driving a camera loop.
type Cadence interface {
	// ShouldDetect is called with the zero-based index of the frame within
	// the session and whether a cached box exists.
	ShouldDetect(frameIndex int, haveCachedBox bool) bool
}

// EveryN re-runs detection every Nth frame, and always when no cached box
// exists.
type EveryN struct {
	N int
}

// DetectEveryNFrames returns the standard cadence.
func DetectEveryNFrames(n int) EveryN {
	return EveryN{N: n}
}

func (e EveryN) ShouldDetect(frameIndex int, haveCachedBox bool) bool {
	if !haveCachedBox {
		return true
	}
	if e.N <= 1 {
		return true
	}
	return frameIndex%e.N == 0
}
