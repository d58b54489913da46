package deepface

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func representServer(t *testing.T, resp RepresentResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 640, 480))
}

func TestProvider_DetectFaces(t *testing.T) {
	server := representServer(t, RepresentResponse{
		Results: []RepresentResult{
			{FacialArea: FacialArea{X: 100, Y: 80, W: 200, H: 250}},
			{FacialArea: FacialArea{X: 400, Y: 300, W: 30, H: 30}},
		},
	})
	defer server.Close()

	p := NewProvider(testConfig(server.URL))

	faces, err := p.DetectFaces(context.Background(), testFrame())
	require.NoError(t, err)
	require.Len(t, faces, 2)

	assert.Equal(t, image.Rect(100, 80, 300, 330), faces[0].Box)
	assert.Greater(t, faces[0].Confidence, 0.7)
	assert.Greater(t, faces[0].Quality, 0.6)

	// A 30x30 face is below the reliable detection area
	assert.Equal(t, 0.5, faces[1].Confidence)
	assert.Equal(t, 0.4, faces[1].Quality)
}

func TestProvider_DetectFaces_Empty(t *testing.T) {
	server := representServer(t, RepresentResponse{})
	defer server.Close()

	p := NewProvider(testConfig(server.URL))

	faces, err := p.DetectFaces(context.Background(), testFrame())
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestProvider_DetectEyes(t *testing.T) {
	face := image.Rect(100, 80, 300, 330)
	server := representServer(t, RepresentResponse{
		Results: []RepresentResult{
			{
				FacialArea: FacialArea{
					X: 100, Y: 80, W: 200, H: 250,
					LeftEye:  []int{150, 160},
					RightEye: []int{250, 160},
				},
			},
		},
	})
	defer server.Close()

	p := NewProvider(testConfig(server.URL))

	eyes, err := p.DetectEyes(context.Background(), testFrame(), face)
	require.NoError(t, err)
	require.Len(t, eyes, 2)

	// Boxes are centered on the landmarks at a fixed open-eye aspect
	eyeW := face.Dx() / 5
	assert.Equal(t, image.Pt(150, 160), center(eyes[0]))
	assert.Equal(t, eyeW, eyes[0].Dx())
	assert.Equal(t, eyeW/2, eyes[0].Dy())
	assert.Equal(t, image.Pt(250, 160), center(eyes[1]))
}

func TestProvider_DetectEyes_IgnoresLandmarksOutsideFace(t *testing.T) {
	face := image.Rect(100, 80, 300, 330)
	server := representServer(t, RepresentResponse{
		Results: []RepresentResult{
			{
				FacialArea: FacialArea{
					X: 100, Y: 80, W: 200, H: 250,
					LeftEye:  []int{500, 400}, // outside the face box
					RightEye: []int{250, 160},
				},
			},
			{
				FacialArea: FacialArea{X: 0, Y: 0, W: 10, H: 10}, // no landmarks
			},
		},
	})
	defer server.Close()

	p := NewProvider(testConfig(server.URL))

	eyes, err := p.DetectEyes(context.Background(), testFrame(), face)
	require.NoError(t, err)
	require.Len(t, eyes, 1)
	assert.Equal(t, image.Pt(250, 160), center(eyes[0]))
}

func TestProvider_ExtractEmbedding(t *testing.T) {
	server := representServer(t, RepresentResponse{
		Results: []RepresentResult{
			{
				Embedding:  []float64{1, 0, 0},
				FacialArea: FacialArea{X: 0, Y: 0, W: 50, H: 50},
			},
			{
				Embedding:  []float64{0, 1, 0},
				FacialArea: FacialArea{X: 200, Y: 200, W: 100, H: 100},
			},
		},
	})
	defer server.Close()

	p := NewProvider(testConfig(server.URL))

	// The requested box is centered on the second result
	emb, err := p.ExtractEmbedding(context.Background(), testFrame(), image.Rect(190, 190, 310, 310))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, emb)
}

func TestProvider_ExtractEmbedding_NoFace(t *testing.T) {
	server := representServer(t, RepresentResponse{})
	defer server.Close()

	p := NewProvider(testConfig(server.URL))

	_, err := p.ExtractEmbedding(context.Background(), testFrame(), image.Rect(0, 0, 100, 100))
	assert.ErrorIs(t, err, ErrNoFaceInResponse)
}

func TestCalculateConfidence(t *testing.T) {
	tests := []struct {
		name string
		area float64
		want float64
	}{
		{"below minimum", 900, 0.5},
		{"at minimum", minFaceArea, 0.7},
		{"at maximum", maxFaceArea, 0.99},
		{"beyond maximum", maxFaceArea * 2, 0.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calculateConfidence(tt.area), 0.001)
		})
	}
}

func TestCalculateQuality(t *testing.T) {
	assert.Equal(t, 0.4, calculateQuality(100))
	assert.InDelta(t, 0.6, calculateQuality(minFaceArea), 0.001)
	assert.InDelta(t, 0.95, calculateQuality(maxFaceArea), 0.001)
}
