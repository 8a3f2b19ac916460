// Package chart renders sample series as line charts.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/util"
)

// Image size and layout, in pixels.
const (
	Width        = 1000
	Height       = 500
	marginLeft   = 90
	marginRight  = 30
	marginTop    = 50
	marginBottom = 60
	gridLines    = 5
	markerRadius = 3
)

// JPEGQuality - Encoder quality of rendered charts.
const JPEGQuality = 90

// Axis labels.
const (
	XAxisLabel = "Time (seconds)"
	YAxisLabel = "CPU Utilization (%)"
)

var (
	backgroundColor = color.RGBA{0xff, 0xff, 0xff, 0xff}
	axisColor       = color.RGBA{0x00, 0x00, 0x00, 0xff}
	gridColor       = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	lineColor       = color.RGBA{0x1f, 0x77, 0xb4, 0xff}
	face            = basicfont.Face7x13
)

type plot struct {
	img  *image.RGBA
	area image.Rectangle
	xMax float64
	yMax float64
}

// Render - Draw the series as a line chart with markers. An empty series gives empty axes.
func Render(series common.SampleSeries, title string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	xMax, yMax := 0.0, 0.0
	for _, sample := range series {
		xMax = math.Max(xMax, sample.Elapsed)
		yMax = math.Max(yMax, sample.Value)
	}
	p := &plot{
		img:  img,
		area: rectangle(),
		xMax: niceCeil(xMax),
		yMax: niceCeil(yMax),
	}

	p.drawGrid()
	p.drawAxes()
	p.drawSeries(series)

	drawText(img, (Width-textWidth(title))/2, marginTop/2+5, title)
	drawText(img, p.area.Min.X+(p.area.Dx()-textWidth(XAxisLabel))/2, Height-15, XAxisLabel)
	drawVerticalText(img, 15, p.area.Min.Y+(p.area.Dy()+textWidth(YAxisLabel))/2, YAxisLabel)
	return img
}

// RenderJPEG - Render the series and atomically write it as a JPEG file.
func RenderJPEG(series common.SampleSeries, path string, title string) error {
	var buffer bytes.Buffer
	if err := jpeg.Encode(&buffer, Render(series, title), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	if err := util.WriteFileAtomic(path, buffer.Bytes(), 0o644); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"path":    path,
		"samples": len(series),
	}).Info("Chart written")
	return nil
}

// rectangle is the plotting area inside the margins.
func rectangle() image.Rectangle {
	return image.Rect(marginLeft, marginTop, Width-marginRight, Height-marginBottom)
}

// niceCeil rounds up to 1, 2 or 5 times a power of ten. Non-positive values give 1.
func niceCeil(value float64) float64 {
	if value <= 0 {
		return 1
	}
	magnitude := math.Pow(10, math.Floor(math.Log10(value)))
	for _, step := range []float64{1, 2, 5, 10} {
		if value <= step*magnitude {
			return step * magnitude
		}
	}
	return 10 * magnitude
}

func (p *plot) point(sample common.Sample) image.Point {
	x := p.area.Min.X + int(math.Round(sample.Elapsed/p.xMax*float64(p.area.Dx())))
	y := p.area.Max.Y - int(math.Round(sample.Value/p.yMax*float64(p.area.Dy())))
	return image.Pt(clamp(x, p.area.Min.X, p.area.Max.X), clamp(y, p.area.Min.Y, p.area.Max.Y))
}

func (p *plot) drawGrid() {
	for i := 0; i <= gridLines; i++ {
		fraction := float64(i) / gridLines
		x := p.area.Min.X + int(math.Round(fraction*float64(p.area.Dx())))
		y := p.area.Max.Y - int(math.Round(fraction*float64(p.area.Dy())))
		drawLine(p.img, image.Pt(x, p.area.Min.Y), image.Pt(x, p.area.Max.Y), gridColor)
		drawLine(p.img, image.Pt(p.area.Min.X, y), image.Pt(p.area.Max.X, y), gridColor)

		xLabel := formatTick(fraction * p.xMax)
		drawText(p.img, x-textWidth(xLabel)/2, p.area.Max.Y+18, xLabel)
		yLabel := formatTick(fraction * p.yMax)
		drawText(p.img, p.area.Min.X-8-textWidth(yLabel), y+4, yLabel)
	}
}

func (p *plot) drawAxes() {
	drawLine(p.img, image.Pt(p.area.Min.X, p.area.Min.Y), image.Pt(p.area.Min.X, p.area.Max.Y), axisColor)
	drawLine(p.img, image.Pt(p.area.Min.X, p.area.Max.Y), image.Pt(p.area.Max.X, p.area.Max.Y), axisColor)
}

func (p *plot) drawSeries(series common.SampleSeries) {
	for i := 1; i < len(series); i++ {
		from, to := p.point(series[i-1]), p.point(series[i])
		drawLine(p.img, from, to, lineColor)
		drawLine(p.img, from.Add(image.Pt(0, 1)), to.Add(image.Pt(0, 1)), lineColor)
	}
	for _, sample := range series {
		center := p.point(sample)
		for dy := -markerRadius; dy <= markerRadius; dy++ {
			for dx := -markerRadius; dx <= markerRadius; dx++ {
				if dx*dx+dy*dy <= markerRadius*markerRadius {
					p.img.SetRGBA(center.X+dx, center.Y+dy, lineColor)
				}
			}
		}
	}
}

// drawLine draws a one pixel line (Bresenham).
func drawLine(img *image.RGBA, from image.Point, to image.Point, c color.RGBA) {
	dx := abs(to.X - from.X)
	dy := -abs(to.Y - from.Y)
	sx, sy := 1, 1
	if from.X > to.X {
		sx = -1
	}
	if from.Y > to.Y {
		sy = -1
	}
	err := dx + dy
	x, y := from.X, from.Y
	for {
		img.SetRGBA(x, y, c)
		if x == to.X && y == to.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// drawText draws text with its baseline at y.
func drawText(dst draw.Image, x int, y int, text string) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(axisColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}

// drawVerticalText draws text rotated a quarter turn counterclockwise, starting at the bottom (x, y).
func drawVerticalText(dst *image.RGBA, x int, y int, text string) {
	metrics := face.Metrics()
	height := metrics.Height.Ceil()
	horizontal := image.NewRGBA(image.Rect(0, 0, textWidth(text), height))
	drawText(horizontal, 0, metrics.Ascent.Ceil(), text)

	bounds := horizontal.Bounds()
	for hy := bounds.Min.Y; hy < bounds.Max.Y; hy++ {
		for hx := bounds.Min.X; hx < bounds.Max.X; hx++ {
			if horizontal.RGBAAt(hx, hy).A < 0x80 {
				continue
			}
			dst.SetRGBA(x+hy, y-hx, axisColor)
		}
	}
}

func textWidth(text string) int {
	return font.MeasureString(face, text).Ceil()
}

func formatTick(value float64) string {
	if value == math.Trunc(value) {
		return fmt.Sprintf("%.0f", value)
	}
	return fmt.Sprintf("%.1f", value)
}

func clamp(value int, low int, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
