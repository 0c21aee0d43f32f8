package display

import "fmt"

// EventKind enumerates the events a display object can receive.
type EventKind int

const (
	EventInvalid EventKind = iota
	EventPress
	EventRelease
	EventReleaseOutside
	EventRollOver
	EventRollOut
	EventDragOver
	EventDragOut
	EventKeyPress
	EventInitialize
	EventLoad
	EventUnload
	EventEnterFrame
	EventMouseDown
	EventMouseUp
	EventMouseMove
	EventKeyDown
	EventKeyUp
	EventData
	EventConstruct
	EventSetFocus
	EventKillFocus
)

var eventFunctionNames = [...]string{
	EventInvalid:        "",
	EventPress:          "onPress",
	EventRelease:        "onRelease",
	EventReleaseOutside: "onReleaseOutside",
	EventRollOver:       "onRollOver",
	EventRollOut:        "onRollOut",
	EventDragOver:       "onDragOver",
	EventDragOut:        "onDragOut",
	EventKeyPress:       "onKeyPress",
	EventInitialize:     "onInitialize",
	EventLoad:           "onLoad",
	EventUnload:         "onUnload",
	EventEnterFrame:     "onEnterFrame",
	EventMouseDown:      "onMouseDown",
	EventMouseUp:        "onMouseUp",
	EventMouseMove:      "onMouseMove",
	EventKeyDown:        "onKeyDown",
	EventKeyUp:          "onKeyUp",
	EventData:           "onData",
	EventConstruct:      "onConstruct",
	EventSetFocus:       "onSetFocus",
	EventKillFocus:      "onKillFocus",
}

// KeyCode identifies a key. Printable keys use their character code.
type KeyCode int

const (
	KeyNone      KeyCode = 0
	KeyBackspace KeyCode = 8
	KeyTab       KeyCode = 9
	KeyEnter     KeyCode = 13
	KeyShift     KeyCode = 16
	KeyControl   KeyCode = 17
	KeyEscape    KeyCode = 27
	KeySpace     KeyCode = 32
	KeyPageUp    KeyCode = 33
	KeyPageDown  KeyCode = 34
	KeyEnd       KeyCode = 35
	KeyHome      KeyCode = 36
	KeyLeft      KeyCode = 37
	KeyUp        KeyCode = 38
	KeyRight     KeyCode = 39
	KeyDown      KeyCode = 40
	KeyInsert    KeyCode = 45
	KeyDelete    KeyCode = 46
)

// EventID is an event kind plus, for key presses, the key.
type EventID struct {
	Kind EventKind
	Key  KeyCode
}

// Event returns an EventID without a key.
func Event(kind EventKind) EventID { return EventID{Kind: kind} }

// FunctionName returns the name of the script method that handles the
// event, such as "onPress".
func (id EventID) FunctionName() string {
	if int(id.Kind) < len(eventFunctionNames) {
		return eventFunctionNames[id.Kind]
	}
	return ""
}

// IsButtonEvent reports whether the event comes from the mouse button
// state machine.
func (id EventID) IsButtonEvent() bool {
	switch id.Kind {
	case EventPress, EventRelease, EventReleaseOutside,
		EventRollOver, EventRollOut, EventDragOver, EventDragOut:
		return true
	}
	return id.Kind == EventKeyPress
}

// IsKeyEvent reports whether the event comes from the keyboard.
func (id EventID) IsKeyEvent() bool {
	switch id.Kind {
	case EventKeyDown, EventKeyUp, EventKeyPress:
		return true
	}
	return false
}

// IsMouseEvent reports whether the event is a plain mouse notification.
func (id EventID) IsMouseEvent() bool {
	switch id.Kind {
	case EventMouseDown, EventMouseUp, EventMouseMove:
		return true
	}
	return false
}

func (id EventID) String() string {
	if id.Kind == EventKeyPress {
		return fmt.Sprintf("%s(%d)", id.FunctionName(), id.Key)
	}
	return id.FunctionName()
}

// buttonEvents qualify a clip as mouse-enabled when handled.
var buttonEvents = []EventKind{
	EventPress, EventRelease, EventReleaseOutside,
	EventRollOver, EventRollOut, EventDragOver, EventDragOut,
}
