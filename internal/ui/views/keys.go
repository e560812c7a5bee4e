package views

import "github.com/charmbracelet/bubbles/key"

// ComicKeyMap holds the reader bindings. Left and right follow the
// physical screen; Advance and Retreat follow reading order.
type ComicKeyMap struct {
	StepLeft  key.Binding
	StepRight key.Binding
	Advance   key.Binding
	Retreat   key.Binding
	First     key.Binding
	Last      key.Binding

	Fit       key.Binding
	Direction key.Binding
	Spread    key.Binding

	ZoomIn    key.Binding
	ZoomOut   key.Binding
	ZoomReset key.Binding
	PanLeft   key.Binding
	PanRight  key.Binding
	PanUp     key.Binding
	PanDown   key.Binding

	Back key.Binding
}

// DefaultComicKeyMap returns the default reader bindings
func DefaultComicKeyMap() ComicKeyMap {
	return ComicKeyMap{
		StepLeft: key.NewBinding(
			key.WithKeys("h", "left", ",", "<"),
			key.WithHelp("←/h", "turn left"),
		),
		StepRight: key.NewBinding(
			key.WithKeys("l", "right", ".", ">"),
			key.WithHelp("→/l", "turn right"),
		),
		Advance: key.NewBinding(
			key.WithKeys(" ", "n", "pgdown"),
			key.WithHelp("space/n", "next"),
		),
		Retreat: key.NewBinding(
			key.WithKeys("p", "pgup"),
			key.WithHelp("p", "previous"),
		),
		First: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first page"),
		),
		Last: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last page"),
		),
		Fit: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fit mode"),
		),
		Direction: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reading direction"),
		),
		Spread: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dual page"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "zoom out"),
		),
		ZoomReset: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "reset zoom"),
		),
		PanLeft: key.NewBinding(
			key.WithKeys("h", "left"),
		),
		PanRight: key.NewBinding(
			key.WithKeys("l", "right"),
		),
		PanUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "scroll up"),
		),
		PanDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "scroll down"),
		),
		Back: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "library"),
		),
	}
}

// LibraryKeyMap holds the library list bindings
type LibraryKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Open     key.Binding
	Search   key.Binding
	Recent   key.Binding
	Refresh  key.Binding
	Theme    key.Binding
}

// DefaultLibraryKeyMap returns the default vim-like list bindings
func DefaultLibraryKeyMap() LibraryKeyMap {
	return LibraryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/^u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn/^d", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "read"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Recent: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "recently read"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
	}
}
