package display

import (
	"fmt"
	"strings"

	"github.com/thruflo/snapview/internal/actions"
)

// SegmentKind distinguishes the parts of a status line.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentEmphasis
	SegmentAction
)

// String returns the kind name used in JSON.
func (k SegmentKind) String() string {
	switch k {
	case SegmentText:
		return "text"
	case SegmentEmphasis:
		return "emphasis"
	case SegmentAction:
		return "action"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k SegmentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SegmentKind) UnmarshalText(b []byte) error {
	for _, kind := range []SegmentKind{SegmentText, SegmentEmphasis, SegmentAction} {
		if kind.String() == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown segment kind %q", b)
}

// Segment is one piece of a status line. For SegmentAction, Text is the
// label and Action the command name.
type Segment struct {
	Kind   SegmentKind `json:"kind"`
	Text   string      `json:"text"`
	Action string      `json:"action,omitempty"`
}

// Content is a status line made of segments.
type Content []Segment

// Text returns a plain segment.
func Text(s string) Segment {
	return Segment{Kind: SegmentText, Text: s}
}

// Emphasis returns a highlighted segment, typically the moving number.
func Emphasis(s string) Segment {
	return Segment{Kind: SegmentEmphasis, Text: s}
}

// Action returns a segment offering cmd to the user.
func Action(cmd actions.Command) Segment {
	return Segment{Kind: SegmentAction, Text: cmd.Label, Action: cmd.Name}
}

// Plain renders the content as unstyled text with actions in brackets.
func (c Content) Plain() string {
	parts := make([]string, 0, len(c))
	for _, seg := range c {
		switch seg.Kind {
		case SegmentAction:
			parts = append(parts, "["+seg.Text+"]")
		default:
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Actions returns the command names referenced by the content, in order.
func (c Content) Actions() []string {
	var names []string
	for _, seg := range c {
		if seg.Kind == SegmentAction {
			names = append(names, seg.Action)
		}
	}
	return names
}
