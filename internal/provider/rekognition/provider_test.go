package rekognition

import (
	"image"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatioBoxToRect(t *testing.T) {
	bounds := image.Rect(0, 0, 640, 480)

	tests := []struct {
		name string
		box  types.BoundingBox
		want image.Rectangle
	}{
		{
			name: "centered face",
			box: types.BoundingBox{
				Left: aws.Float32(0.25), Top: aws.Float32(0.25),
				Width: aws.Float32(0.5), Height: aws.Float32(0.5),
			},
			want: image.Rect(160, 120, 480, 360),
		},
		{
			name: "clamped to frame",
			box: types.BoundingBox{
				Left: aws.Float32(0.9), Top: aws.Float32(0.9),
				Width: aws.Float32(0.5), Height: aws.Float32(0.5),
			},
			want: image.Rect(576, 432, 640, 480),
		},
		{
			name: "nil fields collapse to origin",
			box:  types.BoundingBox{},
			want: image.Rect(0, 0, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ratioBoxToRect(&tt.box, bounds))
		})
	}
}

func TestQualityScore(t *testing.T) {
	assert.Equal(t, 0.5, qualityScore(nil))

	q := &types.ImageQuality{
		Brightness: aws.Float32(80),
		Sharpness:  aws.Float32(60),
	}
	assert.InDelta(t, 0.7, qualityScore(q), 0.001)

	assert.Equal(t, 0.0, qualityScore(&types.ImageQuality{}))
}

func TestDeref32(t *testing.T) {
	assert.Equal(t, 0.0, deref32(nil))
	assert.InDelta(t, 1.5, deref32(aws.Float32(1.5)), 0.0001)
}

func TestEyeRect(t *testing.T) {
	corners := [4]types.LandmarkType{
		types.LandmarkTypeLeftEyeLeft,
		types.LandmarkTypeLeftEyeRight,
		types.LandmarkTypeLeftEyeUp,
		types.LandmarkTypeLeftEyeDown,
	}

	landmarks := map[types.LandmarkType]image.Point{
		types.LandmarkTypeLeftEyeLeft:  image.Pt(100, 110),
		types.LandmarkTypeLeftEyeRight: image.Pt(140, 110),
		types.LandmarkTypeLeftEyeUp:    image.Pt(120, 100),
		types.LandmarkTypeLeftEyeDown:  image.Pt(120, 120),
	}

	rect, ok := eyeRect(landmarks, corners)
	require.True(t, ok)
	assert.Equal(t, image.Rect(100, 100, 140, 120), rect)
}

func TestEyeRect_MissingCorner(t *testing.T) {
	corners := [4]types.LandmarkType{
		types.LandmarkTypeLeftEyeLeft,
		types.LandmarkTypeLeftEyeRight,
		types.LandmarkTypeLeftEyeUp,
		types.LandmarkTypeLeftEyeDown,
	}

	landmarks := map[types.LandmarkType]image.Point{
		types.LandmarkTypeLeftEyeLeft: image.Pt(100, 110),
	}

	_, ok := eyeRect(landmarks, corners)
	assert.False(t, ok)
}

func TestEyeRect_ZeroWidth(t *testing.T) {
	corners := [4]types.LandmarkType{
		types.LandmarkTypeLeftEyeLeft,
		types.LandmarkTypeLeftEyeRight,
		types.LandmarkTypeLeftEyeUp,
		types.LandmarkTypeLeftEyeDown,
	}

	landmarks := map[types.LandmarkType]image.Point{
		types.LandmarkTypeLeftEyeLeft:  image.Pt(100, 110),
		types.LandmarkTypeLeftEyeRight: image.Pt(100, 110),
		types.LandmarkTypeLeftEyeUp:    image.Pt(100, 100),
		types.LandmarkTypeLeftEyeDown:  image.Pt(100, 120),
	}

	_, ok := eyeRect(landmarks, corners)
	assert.False(t, ok)
}

func TestIndexLandmarks(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 100)
	landmarks := []types.Landmark{
		{
			Type: types.LandmarkTypeEyeLeft,
			X:    aws.Float32(0.5), Y: aws.Float32(0.5),
		},
		{
			Type: types.LandmarkTypeEyeRight, // nil coordinates, skipped
		},
	}

	idx := indexLandmarks(landmarks, bounds)
	require.Len(t, idx, 1)
	assert.Equal(t, image.Pt(100, 50), idx[types.LandmarkTypeEyeLeft])
}

func TestEncodeFrame(t *testing.T) {
	frame, err := encodeFrame(image.NewRGBA(image.Rect(0, 0, 320, 240)))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(frame), minImageSize)
	assert.LessOrEqual(t, len(frame), maxImageSize)
}
