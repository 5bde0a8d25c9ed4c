package playlist

import "fmt"

// EventKind tags the source of a SelectionEvent.
type EventKind int

const (
	// UserSelected is a direct request from the visitor.
	UserSelected EventKind = iota + 1
	// PlayerReported is a position report from the embedded player.
	PlayerReported
)

func (k EventKind) String() string {
	switch k {
	case UserSelected:
		return "user"
	case PlayerReported:
		return "player"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// SelectionEvent is one input to the state machine.
type SelectionEvent struct {
	Kind  EventKind
	Index int
}

// UserSelection builds a UserSelected event.
func UserSelection(index int) SelectionEvent {
	return SelectionEvent{Kind: UserSelected, Index: index}
}

// PlayerReport builds a PlayerReported event.
func PlayerReport(index int) SelectionEvent {
	return SelectionEvent{Kind: PlayerReported, Index: index}
}
