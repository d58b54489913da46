package provider

import (
	"context"
	"fmt"
)

// Type defines supported face capability backends
type Type string

const (
	// TypeMock is the deterministic in-process provider (dev/test)
	TypeMock Type = "mock"
	// TypeDeepFace is a DeepFace-compatible HTTP service (detection + embeddings)
	TypeDeepFace Type = "deepface"
	// TypeRekognition uses AWS Rekognition for detection, paired with a
	// DeepFace extractor for embeddings (Rekognition does not expose them)
	TypeRekognition Type = "rekognition"
)

// Composite pairs an independent detector and extractor into one FaceProvider.
type Composite struct {
	FaceDetector
	EmbeddingExtractor
}

var _ FaceProvider = (*Composite)(nil)

// FactoryFuncs are the backend constructors the factory dispatches to.
// Split out so the selection logic is testable without AWS credentials or a
// running DeepFace service.
type FactoryFuncs struct {
	Mock        func() FaceProvider
	DeepFace    func() FaceProvider
	Rekognition func(ctx context.Context) (FaceDetector, error)
}

// New creates a FaceProvider for the configured backend type.
func New(ctx context.Context, t Type, funcs FactoryFuncs) (FaceProvider, error) {
	switch t {
	case TypeRekognition:
		detector, err := funcs.Rekognition(ctx)
		if err != nil {
			return nil, fmt.Errorf("create rekognition detector: %w", err)
		}
		extractor := funcs.DeepFace()
		return &Composite{FaceDetector: detector, EmbeddingExtractor: extractor}, nil

	case TypeDeepFace:
		return funcs.DeepFace(), nil

	case TypeMock, "":
		// Default to the mock for dev/test environments
		return funcs.Mock(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			t, TypeMock, TypeDeepFace, TypeRekognition)
	}
}
