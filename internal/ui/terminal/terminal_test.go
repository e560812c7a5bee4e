package terminal

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	// multiplexers wrap the sequences in passthrough escapes
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("TMUX", "")
	img := solid(8, 8, color.RGBA{R: 200, A: 255})

	tests := []struct {
		mode   TermImageMode
		prefix string
	}{
		{TermModeNone, ""},
		{TermModeKitty, "\x1b_G"},
		{TermModeIterm, "\x1b]1337;File="},
		{TermModeSixel, "\x1bP"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			out, err := Render(img, tt.mode)
			if err != nil {
				t.Fatal(err)
			}
			if tt.prefix == "" {
				if out != "" {
					t.Errorf("Render() = %q, want nothing", out)
				}
				return
			}
			if !strings.HasPrefix(out, tt.prefix) {
				t.Errorf("Render() starts %q, want %q", out[:min(len(out), 12)], tt.prefix)
			}
		})
	}
}

func TestQuantizeKeepsBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(3, 4, 13, 24))
	if got := quantize(img).Bounds(); got != img.Bounds() {
		t.Errorf("bounds = %v, want %v", got, img.Bounds())
	}
}

func TestClearCmd(t *testing.T) {
	if ClearCmd(TermModeNone) != nil {
		t.Error("nothing to clear without graphics")
	}
	if !strings.Contains(ClearSequence(TermModeKitty), "a=d") {
		t.Error("kitty clear should delete images")
	}
}
