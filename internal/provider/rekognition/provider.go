package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/attendly/faceclock/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100

	jpegQuality = 90
)

// Detector implements provider.FaceDetector using AWS Rekognition DetectFaces.
// Rekognition does not expose raw embeddings, so this detector pairs with a
// separate EmbeddingExtractor (see provider factory).
type Detector struct {
	client *Client
}

// NewDetector creates a Rekognition-backed face detector
func NewDetector(ctx context.Context, cfg Config) (*Detector, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return &Detector{client: client}, nil
}

var _ provider.FaceDetector = (*Detector)(nil)

// DetectFaces detects faces in a frame using the DetectFaces API with full
// attributes. Bounding boxes arrive as frame-relative ratios and are mapped
// to pixel coordinates here.
func (d *Detector) DetectFaces(ctx context.Context, img image.Image) ([]provider.DetectedFace, error) {
	frame, err := encodeFrame(img)
	if err != nil {
		return nil, err
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: frame,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	}

	output, err := d.client.rekognition.DetectFaces(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", mapAccessError(err))
	}

	bounds := img.Bounds()
	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil || detail.Confidence == nil {
			continue
		}
		if float64(*detail.Confidence) < d.client.config.MinConfidence {
			continue
		}

		face := provider.DetectedFace{
			Box:        ratioBoxToRect(detail.BoundingBox, bounds),
			Confidence: float64(*detail.Confidence) / 100,
			Quality:    qualityScore(detail.Quality),
		}
		if detail.EyesOpen != nil {
			open := detail.EyesOpen.Value
			face.EyesOpen = &open
		}
		if detail.Pose != nil {
			face.Pose = &provider.Pose{
				Pitch: deref32(detail.Pose.Pitch),
				Roll:  deref32(detail.Pose.Roll),
				Yaw:   deref32(detail.Pose.Yaw),
			}
		}
		faces = append(faces, face)
	}

	return faces, nil
}

// DetectEyes builds eye rectangles from Rekognition's per-eye corner
// landmarks (leftEyeLeft/Right/Up/Down and the right-eye equivalents), so
// the box aspect ratio tracks actual eye openness.
func (d *Detector) DetectEyes(ctx context.Context, img image.Image, face image.Rectangle) ([]image.Rectangle, error) {
	frame, err := encodeFrame(img)
	if err != nil {
		return nil, err
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: frame,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	}

	output, err := d.client.rekognition.DetectFaces(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("detect eyes: %w", mapAccessError(err))
	}

	bounds := img.Bounds()
	var eyes []image.Rectangle
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		box := ratioBoxToRect(detail.BoundingBox, bounds)
		if !box.Overlaps(face) {
			continue
		}

		landmarks := indexLandmarks(detail.Landmarks, bounds)
		for _, corners := range [][4]types.LandmarkType{
			{types.LandmarkTypeLeftEyeLeft, types.LandmarkTypeLeftEyeRight, types.LandmarkTypeLeftEyeUp, types.LandmarkTypeLeftEyeDown},
			{types.LandmarkTypeRightEyeLeft, types.LandmarkTypeRightEyeRight, types.LandmarkTypeRightEyeUp, types.LandmarkTypeRightEyeDown},
		} {
			if eye, ok := eyeRect(landmarks, corners); ok {
				eyes = append(eyes, eye)
			}
		}
	}

	return eyes, nil
}

func indexLandmarks(landmarks []types.Landmark, bounds image.Rectangle) map[types.LandmarkType]image.Point {
	idx := make(map[types.LandmarkType]image.Point, len(landmarks))
	for _, lm := range landmarks {
		if lm.X == nil || lm.Y == nil {
			continue
		}
		idx[lm.Type] = image.Pt(
			bounds.Min.X+int(float64(*lm.X)*float64(bounds.Dx())),
			bounds.Min.Y+int(float64(*lm.Y)*float64(bounds.Dy())),
		)
	}
	return idx
}

func eyeRect(landmarks map[types.LandmarkType]image.Point, corners [4]types.LandmarkType) (image.Rectangle, bool) {
	left, okL := landmarks[corners[0]]
	right, okR := landmarks[corners[1]]
	up, okU := landmarks[corners[2]]
	down, okD := landmarks[corners[3]]
	if !okL || !okR || !okU || !okD {
		return image.Rectangle{}, false
	}

	rect := image.Rect(left.X, up.Y, right.X, down.Y).Canon()
	if rect.Dx() == 0 {
		return image.Rectangle{}, false
	}
	return rect, true
}

func ratioBoxToRect(box *types.BoundingBox, bounds image.Rectangle) image.Rectangle {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	x0 := bounds.Min.X + int(float64(deref32(box.Left))*w)
	y0 := bounds.Min.Y + int(float64(deref32(box.Top))*h)
	x1 := x0 + int(float64(deref32(box.Width))*w)
	y1 := y0 + int(float64(deref32(box.Height))*h)
	return image.Rect(x0, y0, x1, y1).Intersect(bounds)
}

func qualityScore(q *types.ImageQuality) float64 {
	if q == nil {
		return 0.5
	}
	// Brightness and sharpness come back on a 0-100 scale
	return (float64(deref32(q.Brightness)) + float64(deref32(q.Sharpness))) / 200
}

func deref32(f *float32) float64 {
	if f == nil {
		return 0
	}
	return float64(*f)
}

func encodeFrame(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if buf.Len() < minImageSize || buf.Len() > maxImageSize {
		return nil, fmt.Errorf("%w: encoded frame is %d bytes", ErrInvalidImage, buf.Len())
	}
	return buf.Bytes(), nil
}
