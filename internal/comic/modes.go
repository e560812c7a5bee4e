package comic

import (
	"fmt"

	"github.com/justyntemme/linga-t/pkg/models"
)

// FitMode controls how a page image is scaled to the viewport.
// It is display-only and never affects navigation.
type FitMode int

const (
	FitFull FitMode = iota
	FitHeight
	FitWidth
)

// String returns the wire name of the fit mode
func (m FitMode) String() string {
	switch m {
	case FitHeight:
		return models.FitModeHeight
	case FitWidth:
		return models.FitModeWidth
	default:
		return models.FitModeFull
	}
}

// Next cycles full -> height -> width -> full
func (m FitMode) Next() FitMode {
	return (m + 1) % 3
}

// ParseFitMode converts a wire name into a FitMode. An empty string means full.
func ParseFitMode(s string) (FitMode, error) {
	switch s {
	case "", models.FitModeFull:
		return FitFull, nil
	case models.FitModeHeight:
		return FitHeight, nil
	case models.FitModeWidth:
		return FitWidth, nil
	}
	return FitFull, fmt.Errorf("unknown fit mode %q", s)
}

// Direction is the reading order of the book
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

func (d Direction) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// DirectionFromRTL maps the wire flag to a Direction
func DirectionFromRTL(rtl bool) Direction {
	if rtl {
		return RightToLeft
	}
	return LeftToRight
}

// SpreadMode selects single or dual page display
type SpreadMode int

const (
	SinglePage SpreadMode = iota
	DualPage
)

func (s SpreadMode) String() string {
	if s == DualPage {
		return "dual"
	}
	return "single"
}

// Step is the number of positions one page turn moves
func (s SpreadMode) Step() int {
	if s == DualPage {
		return 2
	}
	return 1
}

// SpreadFromDual maps the wire flag to a SpreadMode
func SpreadFromDual(dual bool) SpreadMode {
	if dual {
		return DualPage
	}
	return SinglePage
}
