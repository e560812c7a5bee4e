package terminal

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/justyntemme/linga-t/internal/comic"
)

// Approximate size of a terminal cell in pixels. Used to turn the view size
// in cells into a pixel budget for page images.
const (
	CellWidth  = 10
	CellHeight = 20
)

// ComposeSpread places two pages side by side. Under right-to-left reading
// the later page goes on the left. Pages of different heights are top
// aligned on a black background.
func ComposeSpread(earlier, later image.Image, dir comic.Direction) image.Image {
	if later == nil {
		return earlier
	}
	left, right := earlier, later
	if dir == comic.RightToLeft {
		left, right = later, earlier
	}

	lb, rb := left.Bounds(), right.Bounds()
	spread := imaging.New(lb.Dx()+rb.Dx(), max(lb.Dy(), rb.Dy()), color.Black)
	spread = imaging.Paste(spread, left, image.Pt(0, 0))
	spread = imaging.Paste(spread, right, image.Pt(lb.Dx(), 0))
	return spread
}

// Fit scales an image into a width x height pixel box according to the fit
// mode. Full fits the whole image, height fills the box height and width
// fills the box width. Anything left taller than the box is cropped to a
// window whose vertical position is given by scroll (0 top, 1 bottom).
func Fit(img image.Image, mode comic.FitMode, width, height int, scroll float64) image.Image {
	if img == nil || width <= 0 || height <= 0 {
		return img
	}

	var out *image.NRGBA
	switch mode {
	case comic.FitHeight:
		out = imaging.Resize(img, 0, height, imaging.Lanczos)
	case comic.FitWidth:
		out = imaging.Resize(img, width, 0, imaging.Lanczos)
	default:
		out = imaging.Fit(img, width, height, imaging.Lanczos)
	}

	b := out.Bounds()
	if b.Dy() <= height && b.Dx() <= width {
		return out
	}
	w, h := min(b.Dx(), width), min(b.Dy(), height)
	x := (b.Dx() - w) / 2
	y := int(clamp01(scroll) * float64(b.Dy()-h))
	return imaging.Crop(out, image.Rect(x, y, x+w, y+h))
}

// Viewport crops the part of an image visible at a zoom factor. panX and
// panY place the window between the left/top (0) and right/bottom (1) edges.
func Viewport(img image.Image, zoom, panX, panY float64) image.Image {
	if img == nil || zoom <= 1 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) / zoom)
	h := int(float64(b.Dy()) / zoom)
	x := b.Min.X + int(clamp01(panX)*float64(b.Dx()-w))
	y := b.Min.Y + int(clamp01(panY)*float64(b.Dy()-h))
	return imaging.Crop(img, image.Rect(x, y, x+w, y+h))
}

func clamp01(f float64) float64 {
	return min(max(f, 0), 1)
}
