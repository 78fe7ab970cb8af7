package dom

import (
	"styledom/pkg/css"
	"styledom/pkg/geom"
	"styledom/pkg/task"
)

// DomId identifies the DOM of one window.
type DomId uint32

// DomNodeId addresses a node in a specific DOM.
type DomNodeId struct {
	Dom  DomId
	Node NodeId
}

// EventType is a concrete input, window or lifecycle event.
type EventType uint8

const (
	EventMouseOver EventType = iota
	EventMouseDown
	EventLeftMouseDown
	EventRightMouseDown
	EventMouseUp
	EventLeftMouseUp
	EventRightMouseUp
	EventMouseEnter
	EventMouseLeave
	EventScroll
	EventTextInput
	EventVirtualKeyDown
	EventVirtualKeyUp
	EventHoveredFile
	EventDroppedFile
	EventHoveredFileCancelled
	EventFocusReceived
	EventFocusLost

	EventWindowResized
	EventWindowMoved
	EventWindowFocusReceived
	EventWindowFocusLost
	EventWindowClose

	EventMount
	EventUnmount
	EventUpdate
	EventResize
)

var eventNames = map[EventType]string{
	EventMouseOver:            "MouseOver",
	EventMouseDown:            "MouseDown",
	EventLeftMouseDown:        "LeftMouseDown",
	EventRightMouseDown:       "RightMouseDown",
	EventMouseUp:              "MouseUp",
	EventLeftMouseUp:          "LeftMouseUp",
	EventRightMouseUp:         "RightMouseUp",
	EventMouseEnter:           "MouseEnter",
	EventMouseLeave:           "MouseLeave",
	EventScroll:               "Scroll",
	EventTextInput:            "TextInput",
	EventVirtualKeyDown:       "VirtualKeyDown",
	EventVirtualKeyUp:         "VirtualKeyUp",
	EventHoveredFile:          "HoveredFile",
	EventDroppedFile:          "DroppedFile",
	EventHoveredFileCancelled: "HoveredFileCancelled",
	EventFocusReceived:        "FocusReceived",
	EventFocusLost:            "FocusLost",
	EventWindowResized:        "WindowResized",
	EventWindowMoved:          "WindowMoved",
	EventWindowFocusReceived:  "WindowFocusReceived",
	EventWindowFocusLost:      "WindowFocusLost",
	EventWindowClose:          "WindowClose",
	EventMount:                "Mount",
	EventUnmount:              "Unmount",
	EventUpdate:               "Update",
	EventResize:               "Resize",
}

func (e EventType) String() string {
	if s, ok := eventNames[e]; ok {
		return s
	}
	return "Event(?)"
}

// IsLifecycle reports whether e is emitted by the diff engine.
func (e EventType) IsLifecycle() bool { return e >= EventMount }

// FilterScope says where an event has to happen for a callback to fire.
type FilterScope uint8

const (
	// ScopeHover fires when the event happens over the node.
	ScopeHover FilterScope = iota
	// ScopeFocus fires when the event happens while the node has focus.
	ScopeFocus
	// ScopeWindow fires for the event anywhere in the window.
	ScopeWindow
	// ScopeNot fires when the event happens but not over the node.
	ScopeNot
	// ScopeComponent fires for lifecycle events of the node itself.
	ScopeComponent
)

// EventFilter selects which events invoke a callback.
type EventFilter struct {
	Scope FilterScope
	Event EventType
}

func HoverFilter(e EventType) EventFilter     { return EventFilter{Scope: ScopeHover, Event: e} }
func FocusFilter(e EventType) EventFilter     { return EventFilter{Scope: ScopeFocus, Event: e} }
func WindowFilter(e EventType) EventFilter    { return EventFilter{Scope: ScopeWindow, Event: e} }
func NotFilter(e EventType) EventFilter       { return EventFilter{Scope: ScopeNot, Event: e} }
func ComponentFilter(e EventType) EventFilter { return EventFilter{Scope: ScopeComponent, Event: e} }

// EventSource distinguishes real input from accessibility actions.
type EventSource uint8

const (
	SourceUser EventSource = iota
	// SourceSynthetic events dispatch like user input but do not move
	// the mouse state.
	SourceSynthetic
)

// Event is the payload handed to callbacks.
type Event struct {
	Type        EventType
	Source      EventSource
	Position    geom.Point
	ScrollDelta geom.Point
	Key         rune
	Text        string
	Files       []string
	WindowSize  geom.Size
	// OldBounds and NewBounds are set for Resize lifecycle events.
	OldBounds, NewBounds geom.Rect
}

// Callback is a node event handler.
type Callback func(data any, info CallbackInfo) task.Update

// CallbackInfo is what a callback can see and do. The orchestrator
// implements it.
type CallbackInfo interface {
	task.Host

	// HitNode is the node the callback is attached to.
	HitNode() NodeId
	Event() Event
	IsSynthetic() bool
	UserData() any

	Dom() *FlatDom
	NodeBounds(id NodeId) (geom.Rect, bool)
	ComputedProperty(id NodeId, p css.PropertyType) (css.Value, bool)

	Hovered() []NodeId
	Focused() (NodeId, bool)
	SetFocus(id NodeId)
	ClearFocus()

	CreateWindow(title string, size geom.Size)
	// StopPropagation skips the callbacks of later nodes for this event.
	StopPropagation()
}
