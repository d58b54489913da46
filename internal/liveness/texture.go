package liveness

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// cropSide is the side length the face crop is scaled to before texture
// analysis. A fixed size keeps the Laplacian variance comparable across
// cameras and face distances.
const cropSide = 128

// textureScore measures high-frequency detail inside the face box. Printed
// photos and screens lose fine skin texture, so a low Laplacian variance is
// evidence of a presentation attack. The passing bar depends on scene
// brightness: dim frames carry less detail even for live faces.
//
// Returns a score in [0, 1] and the mean brightness of the crop.
func textureScore(img image.Image, face image.Rectangle) (score, brightness float64) {
	crop := face.Intersect(img.Bounds())
	if crop.Dx() < 2 || crop.Dy() < 2 {
		return 0, 0
	}

	gray := image.NewGray(image.Rect(0, 0, cropSide, cropSide))
	xdraw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, crop, xdraw.Src, nil)

	brightness = meanGray(gray)
	variance := laplacianVariance(gray)

	base := varianceBase(brightness)
	return math.Min(1.0, variance/base), brightness
}

// Sharpness scores the high-frequency detail of the face crop in [0, 1].
// Shared with the enrollment quality gate, where a low score means the photo
// is too blurred to produce a stable embedding.
func Sharpness(img image.Image, face image.Rectangle) float64 {
	score, _ := textureScore(img, face)
	return score
}

// varianceBase returns the Laplacian variance that counts as a maximal
// texture score at the given brightness.
func varianceBase(brightness float64) float64 {
	switch {
	case brightness < 85:
		return 300
	case brightness < 170:
		return 400
	default:
		return 500
	}
}

func meanGray(g *image.Gray) float64 {
	b := g.Bounds()
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[(y-b.Min.Y)*g.Stride : (y-b.Min.Y)*g.Stride+b.Dx()]
		for _, p := range row {
			sum += float64(p)
		}
	}
	return sum / float64(b.Dx()*b.Dy())
}

// laplacianVariance convolves the 4-neighbor Laplacian kernel and returns the
// variance of the responses over the interior pixels.
func laplacianVariance(g *image.Gray) float64 {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	responses := make([]float64, 0, (w-2)*(h-2))
	at := func(x, y int) float64 {
		return float64(g.Pix[y*g.Stride+x])
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			r := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			responses = append(responses, r)
		}
	}

	var mean float64
	for _, r := range responses {
		mean += r
	}
	mean /= float64(len(responses))

	var variance float64
	for _, r := range responses {
		d := r - mean
		variance += d * d
	}
	return variance / float64(len(responses))
}
