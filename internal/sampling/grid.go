package sampling

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/born-ml/wgangp/internal/tensor"
)

// Layout constants in output pixels.
const (
	tilePadding   = 2
	captionHeight = 16
)

var (
	background  = color.Gray{Y: 16}
	captionInk  = color.Gray{Y: 230}
	captionFace = basicfont.Face7x13
)

// Layout describes a sample sheet.
type Layout struct {
	Rows, Cols int
	Scale      int    // integer upscale per tile
	Caption    string // drawn above the grid when non-empty
}

// Render draws images, shaped [n, H, W, C] with C of 1 or 3 and values in
// [-1, 1], into a grid. Fewer than Rows*Cols images leave blank tiles.
func Render(images *tensor.Tensor, layout Layout) (*image.RGBA, error) {
	if images == nil || images.Rank() != 4 {
		return nil, errors.New("images must be shaped [n, height, width, channels]")
	}
	n, h, w, c := images.Dim(0), images.Dim(1), images.Dim(2), images.Dim(3)
	if c != 1 && c != 3 {
		return nil, errors.Errorf("cannot render %d channels", c)
	}
	if layout.Rows < 1 || layout.Cols < 1 || layout.Scale < 1 {
		return nil, errors.Errorf("invalid layout %dx%d scale %d", layout.Rows, layout.Cols, layout.Scale)
	}
	if n > layout.Rows*layout.Cols {
		return nil, errors.Errorf("%d images do not fit a %dx%d grid", n, layout.Rows, layout.Cols)
	}

	tileW, tileH := w*layout.Scale, h*layout.Scale
	top := 0
	if layout.Caption != "" {
		top = captionHeight
	}
	sheet := image.NewRGBA(image.Rect(0, 0,
		layout.Cols*(tileW+tilePadding)+tilePadding,
		top+layout.Rows*(tileH+tilePadding)+tilePadding,
	))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	stride := h * w * c
	data := images.Data()
	for i := 0; i < n; i++ {
		tile := toImage(data[i*stride:(i+1)*stride], h, w, c)
		row, col := i/layout.Cols, i%layout.Cols
		x0 := tilePadding + col*(tileW+tilePadding)
		y0 := top + tilePadding + row*(tileH+tilePadding)
		xdraw.NearestNeighbor.Scale(sheet, image.Rect(x0, y0, x0+tileW, y0+tileH), tile, tile.Bounds(), draw.Src, nil)
	}

	if layout.Caption != "" {
		d := &font.Drawer{
			Dst:  sheet,
			Src:  image.NewUniform(captionInk),
			Face: captionFace,
			Dot:  fixed.P(tilePadding, captionHeight-3),
		}
		d.DrawString(layout.Caption)
	}
	return sheet, nil
}

// toImage converts one [H, W, C] sample to an image.
func toImage(data []float64, h, w, c int) image.Image {
	if c == 1 {
		img := image.NewGray(image.Rect(0, 0, w, h))
		for i, v := range data {
			img.Pix[i] = toByte(v)
		}
		return img
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for p := 0; p < h*w; p++ {
		img.Pix[4*p] = toByte(data[3*p])
		img.Pix[4*p+1] = toByte(data[3*p+1])
		img.Pix[4*p+2] = toByte(data[3*p+2])
		img.Pix[4*p+3] = 0xff
	}
	return img
}

// toByte maps [-1, 1] to [0, 255]. Out-of-range values are clamped and NaN
// renders black.
func toByte(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round((v + 1) / 2 * 255)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}
