// Package terminal draws page images with the graphics protocol the
// terminal understands and composes spreads for display.
package terminal

import (
	"bytes"
	"image"
	"image/color/palette"
	"image/draw"
	"io"
	"os"

	"github.com/BourgeoisBear/rasterm"
	tea "github.com/charmbracelet/bubbletea"
)

// TermImageMode is the graphics protocol used to draw pages
type TermImageMode int

const (
	TermModeNone TermImageMode = iota
	TermModeKitty
	TermModeIterm
	TermModeSixel
)

// ComicImageID is the Kitty image id of the page on screen. Reusing it
// makes every redraw replace the previous page instead of stacking.
const ComicImageID uint32 = 1989

func (m TermImageMode) String() string {
	switch m {
	case TermModeKitty:
		return "Kitty"
	case TermModeIterm:
		return "iTerm2"
	case TermModeSixel:
		return "Sixel"
	default:
		return "None"
	}
}

// DetectTerminalMode probes for Kitty, then iTerm2, then Sixel support
func DetectTerminalMode() TermImageMode {
	switch {
	case rasterm.IsKittyCapable():
		return TermModeKitty
	case rasterm.IsItermCapable():
		return TermModeIterm
	}
	if ok, _ := rasterm.IsSixelCapable(); ok {
		return TermModeSixel
	}
	return TermModeNone
}

// quantize maps img onto the web-safe palette with dithering, which keeps
// screentone and gradients readable over Sixel
func quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(b, palette.WebSafe)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	return p
}

// Render encodes img as an escape sequence for mode. TermModeNone renders
// nothing.
func Render(img image.Image, mode TermImageMode) (string, error) {
	var buf bytes.Buffer
	if err := write(&buf, img, mode); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func write(w io.Writer, img image.Image, mode TermImageMode) error {
	switch mode {
	case TermModeKitty:
		return rasterm.KittyWriteImage(w, img, rasterm.KittyImgOpts{ImageId: ComicImageID})
	case TermModeIterm:
		return rasterm.ItermWriteImage(w, img)
	case TermModeSixel:
		return rasterm.SixelWriteImage(w, quantize(img))
	}
	return nil
}

// ClearSequence removes drawn pages from the screen
func ClearSequence(mode TermImageMode) string {
	switch mode {
	case TermModeKitty:
		// a=d delete, d=A all placements
		return "\x1b_Ga=d,d=A\x1b\\"
	case TermModeIterm, TermModeSixel:
		// inline images live in the cell buffer
		return "\x1b[2J\x1b[H"
	}
	return ""
}

// ClearCmd clears drawn pages before leaving the viewer. Nil when the mode
// draws nothing.
func ClearCmd(mode TermImageMode) tea.Cmd {
	seq := ClearSequence(mode)
	if seq == "" {
		return nil
	}
	return func() tea.Msg {
		_, _ = io.WriteString(os.Stdout, seq)
		return nil
	}
}
