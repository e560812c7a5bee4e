package terminal

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/justyntemme/linga-t/internal/comic"
)

func solid(w, h int, c color.Color) image.Image {
	return imaging.New(w, h, c)
}

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func TestComposeSpread(t *testing.T) {
	earlier := solid(40, 60, red)
	later := solid(30, 50, blue)

	ltr := ComposeSpread(earlier, later, comic.LeftToRight)
	if b := ltr.Bounds(); b.Dx() != 70 || b.Dy() != 60 {
		t.Fatalf("spread bounds = %v", b)
	}
	if got := color.NRGBAModel.Convert(ltr.At(5, 5)); got != red {
		t.Errorf("ltr left pixel = %v, want earlier page", got)
	}
	if got := color.NRGBAModel.Convert(ltr.At(45, 5)); got != blue {
		t.Errorf("ltr right pixel = %v, want later page", got)
	}

	rtl := ComposeSpread(earlier, later, comic.RightToLeft)
	if got := color.NRGBAModel.Convert(rtl.At(5, 5)); got != blue {
		t.Errorf("rtl left pixel = %v, want later page", got)
	}
	if got := color.NRGBAModel.Convert(rtl.At(35, 5)); got != red {
		t.Errorf("rtl right pixel = %v, want earlier page", got)
	}

	if single := ComposeSpread(earlier, nil, comic.RightToLeft); single != earlier {
		t.Error("missing second page should return the first unchanged")
	}
}

func TestFit(t *testing.T) {
	page := solid(100, 200, red)

	tests := []struct {
		name  string
		mode  comic.FitMode
		w, h  int
		wantW int
		wantH int
	}{
		{"full fits inside", comic.FitFull, 300, 100, 50, 100},
		{"height fills height", comic.FitHeight, 300, 100, 50, 100},
		{"width fills width and crops", comic.FitWidth, 80, 100, 80, 100},
		{"height wider than box crops", comic.FitHeight, 40, 400, 40, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(page, tt.mode, tt.w, tt.h, 0)
			if b := got.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Fit() = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestViewport(t *testing.T) {
	page := solid(100, 100, red)
	if Viewport(page, 1, 0.5, 0.5) != page {
		t.Error("zoom 1 should not crop")
	}
	got := Viewport(page, 2, 1, 0)
	if b := got.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("Viewport() = %v", b)
	}
}
