package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/attendly/faceclock/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels

	jpegQuality = 90
)

// Provider implements provider.FaceProvider against a DeepFace-compatible
// represent endpoint. It is stateless; embeddings are not persisted service-side.
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

var _ provider.FaceProvider = (*Provider)(nil)

// DetectFaces detects faces in the frame
func (p *Provider) DetectFaces(ctx context.Context, img image.Image) ([]provider.DetectedFace, error) {
	imageBase64, err := encodeFrame(img)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		area := result.FacialArea
		faceArea := float64(area.W * area.H)

		faces = append(faces, provider.DetectedFace{
			Box:        image.Rect(area.X, area.Y, area.X+area.W, area.Y+area.H),
			Confidence: calculateConfidence(faceArea),
			Quality:    calculateQuality(faceArea),
		})
	}

	return faces, nil
}

// DetectEyes synthesizes eye boxes around the detector's eye landmarks.
// Landmarks carry no openness information, so the boxes use a fixed open-eye
// aspect ratio; with this provider the blink signal stays quiet and liveness
// relies on texture and head movement.
func (p *Provider) DetectEyes(ctx context.Context, img image.Image, face image.Rectangle) ([]image.Rectangle, error) {
	imageBase64, err := encodeFrame(img)
	if err != nil {
		return nil, fmt.Errorf("detect eyes: %w", err)
	}

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("detect eyes: %w", err)
	}

	eyeW := face.Dx() / 5
	eyeH := eyeW / 2
	if eyeW == 0 || eyeH == 0 {
		return nil, nil
	}

	var eyes []image.Rectangle
	for _, result := range resp.Results {
		for _, lm := range [][]int{result.FacialArea.LeftEye, result.FacialArea.RightEye} {
			if len(lm) != 2 {
				continue
			}
			center := image.Pt(lm[0], lm[1])
			if !center.In(face) {
				continue
			}
			eyes = append(eyes, image.Rect(
				center.X-eyeW/2, center.Y-eyeH/2,
				center.X+eyeW/2, center.Y+eyeH/2,
			))
		}
	}

	return eyes, nil
}

// ExtractEmbedding returns the embedding for the face closest to the given box
func (p *Provider) ExtractEmbedding(ctx context.Context, img image.Image, face image.Rectangle) ([]float64, error) {
	imageBase64, err := encodeFrame(img)
	if err != nil {
		return nil, fmt.Errorf("extract embedding: %w", err)
	}

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("extract embedding: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, ErrNoFaceInResponse
	}

	best := resp.Results[0]
	if len(resp.Results) > 1 {
		// Match the caller's face box by center distance
		bestDist := math.MaxFloat64
		target := center(face)
		for _, result := range resp.Results {
			area := result.FacialArea
			c := center(image.Rect(area.X, area.Y, area.X+area.W, area.Y+area.H))
			dx := float64(c.X - target.X)
			dy := float64(c.Y - target.Y)
			if dist := dx*dx + dy*dy; dist < bestDist {
				bestDist = dist
				best = result
			}
		}
	}

	return best.Embedding, nil
}

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

func encodeFrame(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// calculateConfidence estimates confidence from face area; DeepFace does not
// return one, and larger faces are more reliably detected.
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

// calculateQuality estimates quality from face area for the same reason.
func calculateQuality(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.4
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.6 + (normalized * 0.35)
}
