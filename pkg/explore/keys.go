package explore

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	FocusFilters  key.Binding
	FocusFindings key.Binding
	FocusDetails  key.Binding

	ToggleFilter key.Binding
	ResetFilter  key.Binding

	Accept     key.Binding
	Reject     key.Binding
	AcceptNext key.Binding
	RejectNext key.Binding
	Comment    key.Binding

	OpenSource    key.Binding
	ToggleHelp    key.Binding
	ToggleFilters key.Binding
	SortNext      key.Binding
	SortReverse   key.Binding

	Quit      key.Binding
	ForceQuit key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

var defaultKeys = keyMap{
	Up:       bind("k/up", "up", "up", "k"),
	Down:     bind("j/dn", "down", "down", "j"),
	Left:     bind("h", "left", "left", "h"),
	Right:    bind("l", "right", "right", "l"),
	PageUp:   bind("C-b", "page up", "pgup", "ctrl+b"),
	PageDown: bind("C-f", "page down", "pgdown", "ctrl+f"),
	Home:     bind("g", "top", "home", "g"),
	End:      bind("G", "bottom", "end", "G"),

	FocusFilters:  bind("F1", "filters", "f1"),
	FocusFindings: bind("f", "findings", "f"),
	FocusDetails:  bind("d", "details", "d"),

	ToggleFilter: bind("x/spc", "toggle", "x", " ", "enter"),
	ResetFilter:  bind("C-r", "reset filters", "ctrl+r"),

	Accept:     bind("a", "accept", "a"),
	Reject:     bind("r", "reject", "r"),
	AcceptNext: bind("A", "accept+next", "A"),
	RejectNext: bind("R", "reject+next", "R"),
	Comment:    bind("c", "comment", "c"),

	OpenSource:    bind("o", "source", "o"),
	ToggleHelp:    bind("?", "help", "?"),
	ToggleFilters: bind("F7", "filters", "f7"),
	SortNext:      bind("s", "sort", "s"),
	SortReverse:   bind("S", "reverse", "S"),

	Quit:      bind("q", "quit", "q"),
	ForceQuit: bind("C-c", "quit", "ctrl+c"),
}

// ShortHelp lists the bindings shown in the status bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.FocusFindings, k.Accept, k.Reject, k.Comment, k.SortNext, k.OpenSource, k.ToggleFilters, k.ToggleHelp}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown, k.Home, k.End},
		{k.FocusFilters, k.FocusFindings, k.FocusDetails, k.ToggleFilters, k.ToggleFilter, k.ResetFilter},
		{k.Accept, k.Reject, k.AcceptNext, k.RejectNext, k.Comment},
		{k.SortNext, k.SortReverse, k.OpenSource, k.ToggleHelp, k.Quit, k.ForceQuit},
	}
}
