package provider

import (
	"context"
	"image"
)

// FaceDetector locates faces and eye regions in a decoded frame.
// Implementations wrap an external detection capability; the core never
// depends on the model internals.
type FaceDetector interface {
	// DetectFaces returns every face found in the frame, with bounding box
	// in pixel coordinates. An empty slice means no face, not an error.
	DetectFaces(ctx context.Context, img image.Image) ([]DetectedFace, error)

	// DetectEyes returns eye regions inside the given face box. Providers
	// without eye localization return an empty slice; the blink signal then
	// simply never fires for that provider.
	DetectEyes(ctx context.Context, img image.Image, face image.Rectangle) ([]image.Rectangle, error)
}

// EmbeddingExtractor produces a fixed-length embedding for one face.
type EmbeddingExtractor interface {
	// ExtractEmbedding returns the embedding for the face at the given box.
	ExtractEmbedding(ctx context.Context, img image.Image, face image.Rectangle) ([]float64, error)
}

// FaceProvider is the full detection + embedding capability.
type FaceProvider interface {
	FaceDetector
	EmbeddingExtractor
}

// DetectedFace represents a detected face in the frame
type DetectedFace struct {
	Box        image.Rectangle `json:"box"`
	Confidence float64         `json:"confidence"`
	Quality    float64         `json:"quality"`
	EyesOpen   *bool           `json:"eyes_open,omitempty"`
	Pose       *Pose           `json:"pose,omitempty"`
}

// Pose represents face orientation angles
type Pose struct {
	Pitch float64 `json:"pitch"` // up/down rotation
	Roll  float64 `json:"roll"`  // tilted rotation
	Yaw   float64 `json:"yaw"`   // left/right rotation
}

// Largest returns the face with the biggest bounding box area, or false if
// the slice is empty. The recognition path tolerates bystanders by picking
// the dominant face; enrollment rejects multi-face input outright.
func Largest(faces []DetectedFace) (DetectedFace, bool) {
	if len(faces) == 0 {
		return DetectedFace{}, false
	}

	best := faces[0]
	bestArea := best.Box.Dx() * best.Box.Dy()
	for _, f := range faces[1:] {
		if area := f.Box.Dx() * f.Box.Dy(); area > bestArea {
			best = f
			bestArea = area
		}
	}
	return best, true
}
