package deepface

import "errors"

var (
	// ErrServiceUnavailable indicates the DeepFace service could not be reached
	// after all retries
	ErrServiceUnavailable = errors.New("deepface service unavailable")

	// ErrInvalidResponse indicates the service returned a body we could not parse
	ErrInvalidResponse = errors.New("invalid deepface response")

	// ErrNoFaceInResponse indicates the service found no face to embed
	ErrNoFaceInResponse = errors.New("no face in deepface response")
)
