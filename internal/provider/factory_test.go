package provider

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) DetectFaces(context.Context, image.Image) ([]DetectedFace, error) {
	return nil, nil
}

func (s *stubProvider) DetectEyes(context.Context, image.Image, image.Rectangle) ([]image.Rectangle, error) {
	return nil, nil
}

func (s *stubProvider) ExtractEmbedding(context.Context, image.Image, image.Rectangle) ([]float64, error) {
	return nil, nil
}

func testFuncs() FactoryFuncs {
	return FactoryFuncs{
		Mock:     func() FaceProvider { return &stubProvider{name: "mock"} },
		DeepFace: func() FaceProvider { return &stubProvider{name: "deepface"} },
		Rekognition: func(context.Context) (FaceDetector, error) {
			return &stubProvider{name: "rekognition"}, nil
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		providerType Type
		want         string
	}{
		{TypeMock, "mock"},
		{"", "mock"},
		{TypeDeepFace, "deepface"},
	}

	for _, tt := range tests {
		t.Run(string(tt.providerType), func(t *testing.T) {
			p, err := New(context.Background(), tt.providerType, testFuncs())
			require.NoError(t, err)

			stub, ok := p.(*stubProvider)
			require.True(t, ok)
			assert.Equal(t, tt.want, stub.name)
		})
	}
}

func TestNew_RekognitionComposite(t *testing.T) {
	p, err := New(context.Background(), TypeRekognition, testFuncs())
	require.NoError(t, err)

	composite, ok := p.(*Composite)
	require.True(t, ok, "rekognition must pair a detector with a deepface extractor")
	assert.Equal(t, "rekognition", composite.FaceDetector.(*stubProvider).name)
	assert.Equal(t, "deepface", composite.EmbeddingExtractor.(*stubProvider).name)
}

func TestNew_RekognitionError(t *testing.T) {
	funcs := testFuncs()
	funcs.Rekognition = func(context.Context) (FaceDetector, error) {
		return nil, errors.New("no credentials")
	}

	_, err := New(context.Background(), TypeRekognition, funcs)
	assert.ErrorContains(t, err, "no credentials")
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(context.Background(), "onnx", testFuncs())
	assert.ErrorContains(t, err, "unknown provider type")
}

func TestLargest(t *testing.T) {
	small := DetectedFace{Box: image.Rect(0, 0, 50, 50)}
	big := DetectedFace{Box: image.Rect(100, 100, 300, 300)}

	face, ok := Largest([]DetectedFace{small, big, small})
	require.True(t, ok)
	assert.Equal(t, big, face)
}

func TestLargest_Empty(t *testing.T) {
	_, ok := Largest(nil)
	assert.False(t, ok)
}
