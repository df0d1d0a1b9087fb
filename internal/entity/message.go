// internal/entity/message.go
package entity

import (
	"github.com/xkilldash9x/wxauto/internal/uia"
)

// Attribution classifies who produced a message.
type Attribution string

const (
	AttrSelf   Attribution = "self"
	AttrFriend Attribution = "friend"
	AttrSystem Attribution = "system"
)

// Direction is the side of the chat a bubble is drawn on.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Layout carries optional placement hints. Offset is the horizontal distance
// in pixels from the bubble's anchored edge to a safe click point.
type Layout struct {
	Direction Direction `json:"direction,omitempty"`
	Offset    int       `json:"offset,omitempty"`
}

// Message is one chat message backed by a live control. Its fields are read
// once, at construction.
type Message struct {
	ctrl uia.Control

	id       string
	content  string
	hash     string
	attr     Attribution
	layout   Layout
	hashMode bool
}

// NewMessage snapshots ctrl. hashMode decides whether the content hash is a
// public field and whether it takes part in equality.
func NewMessage(ctrl uia.Control, attr Attribution, layout Layout, hashMode bool) *Message {
	rect := ctrl.BoundingRectangle()
	content := ctrl.Name()
	return &Message{
		ctrl:     ctrl,
		id:       ctrl.RuntimeID(),
		content:  content,
		hash:     ContentHash(rect.Width(), rect.Height(), content),
		attr:     attr,
		layout:   layout,
		hashMode: hashMode,
	}
}

var (
	messageFields         = []string{"id", "content", "attr", "direction", "offset"}
	messageFieldsWithHash = []string{"id", "content", "attr", "direction", "offset", "hash"}
)

func (m *Message) Fields() []string {
	if m.hashMode {
		return messageFieldsWithHash
	}
	return messageFields
}

func (m *Message) Value(field string) (any, bool) {
	switch field {
	case "id":
		return m.id, true
	case "content":
		return m.content, true
	case "attr":
		return m.attr, true
	case "direction":
		return m.layout.Direction, true
	case "offset":
		return m.layout.Offset, true
	case "hash":
		if m.hashMode {
			return m.hash, true
		}
	}
	return nil, false
}

func (m *Message) ExternalID() string  { return m.id }
func (m *Message) ContentHash() string { return m.hash }
func (m *Message) HashMode() bool      { return m.hashMode }

func (m *Message) Content() string          { return m.content }
func (m *Message) Attribution() Attribution { return m.attr }
func (m *Message) Layout() Layout           { return m.layout }
func (m *Message) Control() uia.Control     { return m.ctrl }

func (m *Message) IsSelf() bool   { return m.attr == AttrSelf }
func (m *Message) IsFriend() bool { return m.attr == AttrFriend }
func (m *Message) IsSystem() bool { return m.attr == AttrSystem }

// Equal compares by identity using the message's own hash mode.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	return Equal(m, other, m.hashMode)
}

// Exists reports whether the backing control is still live and rendered
// with a non-zero extent. Call it before interacting with the message.
func (m *Message) Exists() bool {
	return exists(m.ctrl)
}

func (m *Message) String() string { return m.content }

func exists(ctrl uia.Control) bool {
	if ctrl == nil || !ctrl.Exists(0) {
		return false
	}
	return !ctrl.BoundingRectangle().Empty()
}
