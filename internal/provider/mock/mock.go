// Package mock implements a deterministic FaceProvider for development and
// tests: no model, no network, embeddings derived from frame content.
package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"
	"math"

	"github.com/attendly/faceclock/internal/domain"
	"github.com/attendly/faceclock/internal/provider"
)

const minFrameSide = 32

type Provider struct{}

func New() *Provider {
	return &Provider{}
}

var _ provider.FaceProvider = (*Provider)(nil)

// DetectFaces reports a single centered face covering 60% of the frame.
func (p *Provider) DetectFaces(_ context.Context, img image.Image) ([]provider.DetectedFace, error) {
	b := img.Bounds()
	if b.Dx() < minFrameSide || b.Dy() < minFrameSide {
		return nil, domain.ErrInvalidImage
	}

	w, h := b.Dx(), b.Dy()
	box := image.Rect(
		b.Min.X+w/5, b.Min.Y+h/5,
		b.Min.X+w*4/5, b.Min.Y+h*4/5,
	)

	eyesOpen := true
	return []provider.DetectedFace{
		{
			Box:        box,
			Confidence: 0.99,
			Quality:    0.95,
			EyesOpen:   &eyesOpen,
			Pose:       &provider.Pose{},
		},
	}, nil
}

// DetectEyes places two open-eye regions at the usual positions in the
// upper half of the face box.
func (p *Provider) DetectEyes(_ context.Context, _ image.Image, face image.Rectangle) ([]image.Rectangle, error) {
	w, h := face.Dx(), face.Dy()
	if w < 4 || h < 4 {
		return nil, nil
	}

	eyeW, eyeH := w/5, h/8
	eyeY := face.Min.Y + h/3

	left := image.Rect(face.Min.X+w/5, eyeY, face.Min.X+w/5+eyeW, eyeY+eyeH)
	right := image.Rect(face.Max.X-w/5-eyeW, eyeY, face.Max.X-w/5, eyeY+eyeH)
	return []image.Rectangle{left, right}, nil
}

// ExtractEmbedding hashes a pixel sample of the face crop into a
// deterministic unit-norm embedding, so the same frame always maps to the
// same identity.
func (p *Provider) ExtractEmbedding(_ context.Context, img image.Image, face image.Rectangle) ([]float64, error) {
	crop := face.Intersect(img.Bounds())
	if crop.Empty() {
		return nil, domain.ErrNoFaceDetected
	}

	digest := sha256.New()
	stepX := max(1, crop.Dx()/16)
	stepY := max(1, crop.Dy()/16)
	var px [8]byte
	for y := crop.Min.Y; y < crop.Max.Y; y += stepY {
		for x := crop.Min.X; x < crop.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			binary.LittleEndian.PutUint32(px[:4], uint32(r))
			binary.LittleEndian.PutUint32(px[4:], uint32(g)^uint32(b))
			digest.Write(px[:])
		}
	}
	hash := digest.Sum(nil)

	embedding := make([]float64, domain.EmbeddingDim)
	for i := range embedding {
		embedding[i] = (float64(hash[i%len(hash)])/255.0)*2 - 1
	}

	var norm float64
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding, nil
}
