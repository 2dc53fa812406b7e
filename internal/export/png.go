package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"taxis/internal/core"
)

const (
	chartWidth  = 640
	chartMargin = 16
	labelWidth  = 180
	barHeight   = 28
	barGap      = 12
	titleHeight = 32
)

var (
	chartBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	chartBar        = color.RGBA{0x3b, 0x82, 0xf6, 0xff}
	chartText       = color.RGBA{0x1f, 0x29, 0x37, 0xff}
)

// writeReportPNG draws the top origin zones as a horizontal bar chart,
// largest bar on top.
func writeReportPNG(w io.Writer, r core.Report) error {
	rows := len(r.TopOrigins)
	height := titleHeight + chartMargin*2 + rows*(barHeight+barGap)
	if rows == 0 {
		height += barHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, chartWidth, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{chartBackground}, image.Point{}, draw.Src)

	title := "Top origin zones"
	if r.Destination != "" {
		title += " to " + r.Destination
	}
	drawText(img, chartMargin, chartMargin+13, title)

	if rows == 0 {
		drawText(img, chartMargin, titleHeight+chartMargin+13, "No origin data")
		return encodePNG(w, img)
	}

	maxTrips := 0
	for _, o := range r.TopOrigins {
		maxTrips = max(maxTrips, o.Trips)
	}
	plot := chartWidth - labelWidth - chartMargin*2 - 40

	for i, o := range r.TopOrigins {
		y := titleHeight + chartMargin + i*(barHeight+barGap)
		drawText(img, chartMargin, y+barHeight/2+4, truncate(o.Zone, 24))

		length := 0
		if maxTrips > 0 {
			length = o.Trips * plot / maxTrips
		}
		x0 := chartMargin + labelWidth
		bar := image.Rect(x0, y, x0+length, y+barHeight)
		draw.Draw(img, bar, &image.Uniform{chartBar}, image.Point{}, draw.Src)
		drawText(img, x0+length+6, y+barHeight/2+4, strconv.Itoa(o.Trips))
	}
	return encodePNG(w, img)
}

func drawText(img draw.Image, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(chartText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func encodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
