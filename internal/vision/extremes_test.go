package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindExtremes(t *testing.T) {
	tests := []struct {
		name    string
		contour Contour
		want    Extremes
	}{
		{
			name:    "empty contour",
			contour: nil,
			want:    Extremes{},
		},
		{
			name:    "single point",
			contour: Contour{{4, 9}},
			want:    Extremes{Left: image.Pt(4, 9), Right: image.Pt(4, 9), Top: image.Pt(4, 9), Bottom: image.Pt(4, 9)},
		},
		{
			name:    "collinear diagonal",
			contour: Contour{{0, 0}, {1, 1}, {2, 2}, {3, 3}},
			want:    Extremes{Left: image.Pt(0, 0), Right: image.Pt(3, 3), Top: image.Pt(0, 0), Bottom: image.Pt(3, 3)},
		},
		{
			name:    "diamond",
			contour: Contour{{5, 0}, {10, 5}, {5, 10}, {0, 5}},
			want:    Extremes{Left: image.Pt(0, 5), Right: image.Pt(10, 5), Top: image.Pt(5, 0), Bottom: image.Pt(5, 10)},
		},
		{
			name:    "ties keep first occurrence",
			contour: Contour{{0, 0}, {0, 10}, {10, 10}, {10, 0}},
			want:    Extremes{Left: image.Pt(0, 0), Right: image.Pt(10, 10), Top: image.Pt(0, 0), Bottom: image.Pt(0, 10)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindExtremes(tt.contour))
		})
	}
}

func TestFindExtremes_AxisAlignedRectangle(t *testing.T) {
	e := FindExtremes(Contour{{0, 0}, {0, 10}, {10, 10}, {10, 0}})

	assert.Equal(t, 0, e.Left.X)
	assert.True(t, e.Left.Y >= 0 && e.Left.Y <= 10)
	assert.Equal(t, 10, e.Right.X)
	assert.True(t, e.Right.Y >= 0 && e.Right.Y <= 10)
	assert.Equal(t, 0, e.Top.Y)
	assert.True(t, e.Top.X >= 0 && e.Top.X <= 10)
	assert.Equal(t, 10, e.Bottom.Y)
	assert.True(t, e.Bottom.X >= 0 && e.Bottom.X <= 10)
}

func TestExtremes_Center(t *testing.T) {
	e := Extremes{Left: image.Pt(10, 50), Right: image.Pt(31, 40), Top: image.Pt(20, 5), Bottom: image.Pt(22, 96)}
	assert.Equal(t, image.Pt(20, 50), e.Center())
}

func TestPalmRadius(t *testing.T) {
	e := Extremes{Left: image.Pt(0, 50), Right: image.Pt(100, 50), Top: image.Pt(50, 0), Bottom: image.Pt(50, 140)}
	center := e.Center()

	assert.Equal(t, image.Pt(50, 70), center)
	// farthest extreme is the bottom at 70
	assert.Equal(t, 49, PalmRadius(center, e, DefaultRadiusFraction))
	assert.Equal(t, 70, PalmRadius(center, e, 1))
	assert.Equal(t, 0, PalmRadius(image.Pt(3, 3), Extremes{Left: image.Pt(3, 3), Right: image.Pt(3, 3), Top: image.Pt(3, 3), Bottom: image.Pt(3, 3)}, 0.7))
}
