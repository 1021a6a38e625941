// Package display gives the operator live feedback while a run is recording:
// an OpenCV preview window with landmark dots and status text, and a terminal
// progress bar.
package display

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
)

var (
	textColor  = color.RGBA{0, 255, 0, 0}
	poseColor  = color.RGBA{80, 110, 10, 0}
	faceColor  = color.RGBA{80, 255, 121, 0}
	leftColor  = color.RGBA{121, 22, 76, 0}
	rightColor = color.RGBA{245, 117, 66, 0}
)

const (
	fontScale     = 0.5
	textThickness = 1
	cueThickness  = 2
)

// StartingCue is drawn on frame 0 of every sequence.
const StartingCue = "STARTING COLLECTION"

// StatusLines returns the overlay text for addr and where to draw it.
func StatusLines(addr dataset.Address) ([]string, []image.Point) {
	lines := []string{
		fmt.Sprintf("Collecting frames for %s", addr.Label),
		fmt.Sprintf("Video Number %d", addr.Sequence),
	}
	points := []image.Point{image.Pt(15, 12), image.Pt(15, 32)}
	if addr.Frame == 0 {
		lines = append([]string{StartingCue}, lines...)
		points = append([]image.Point{image.Pt(120, 200)}, points...)
	}
	return lines, points
}

// DrawStatus writes the collection status for addr onto img.
func DrawStatus(img *gocv.Mat, addr dataset.Address) {
	lines, points := StatusLines(addr)
	for i, line := range lines {
		scale, thickness := TextStyle(line)
		gocv.PutText(img, line, points[i], gocv.FontHersheySimplex, scale, textColor, thickness)
	}
}

// TextStyle returns the font scale and stroke thickness for an overlay line.
// The starting cue is drawn with a heavier stroke at the same scale.
func TextStyle(line string) (float64, int) {
	if line == StartingCue {
		return fontScale, cueThickness
	}
	return fontScale, textThickness
}

// DrawLandmarks draws every detected point of r onto img. Coordinates are
// normalized to [0, 1] and scaled to the image size.
func DrawLandmarks(img *gocv.Mat, r *detector.Result) {
	if r.Empty() || img.Empty() {
		return
	}
	w, h := img.Cols(), img.Rows()

	for _, p := range r.Pose {
		drawPoint(img, p.X, p.Y, w, h, 3, poseColor)
	}
	for _, p := range r.Face {
		drawPoint(img, p.X, p.Y, w, h, 1, faceColor)
	}
	for _, p := range r.LeftHand {
		drawPoint(img, p.X, p.Y, w, h, 2, leftColor)
	}
	for _, p := range r.RightHand {
		drawPoint(img, p.X, p.Y, w, h, 2, rightColor)
	}
}

func drawPoint(img *gocv.Mat, x, y float64, w, h, radius int, c color.RGBA) {
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return
	}
	center := image.Pt(int(x*float64(w)), int(y*float64(h)))
	gocv.Circle(img, center, radius, c, -1)
}
