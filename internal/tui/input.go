package tui

import "github.com/gdamore/tcell/v2"

// Action is an operator command bound to a key
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionRun
	ActionReset
	ActionToggleMode
	ActionPrevPreset
	ActionNextPreset
	ActionPanUp
	ActionPanDown
	ActionPanLeft
	ActionPanRight
	ActionZoomIn
	ActionZoomOut
	ActionRecenter
)

// KeyAction maps a key press to an action
func KeyAction(key tcell.Key, r rune) Action {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyUp:
		return ActionPanUp
	case tcell.KeyDown:
		return ActionPanDown
	case tcell.KeyLeft:
		return ActionPanLeft
	case tcell.KeyRight:
		return ActionPanRight
	case tcell.KeyRune:
	default:
		return ActionNone
	}

	switch r {
	case 'q', 'Q':
		return ActionQuit
	case 'r', 'R':
		return ActionRun
	case 'x', 'X':
		return ActionReset
	case 'm', 'M':
		return ActionToggleMode
	case '[':
		return ActionPrevPreset
	case ']':
		return ActionNextPreset
	case '+', '=':
		return ActionZoomIn
	case '-', '_':
		return ActionZoomOut
	case 'c', 'C':
		return ActionRecenter
	default:
		return ActionNone
	}
}
