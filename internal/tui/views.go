package tui

import (
	"slices"
	"strings"

	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/stage"
)

// ViewState holds the data needed to render the stage view.
type ViewState struct {
	Title    string
	Stages   []stage.Stage // Stages with a panel row, in display order
	Current  stage.Stage
	Classes  []string
	Statuses map[stage.Stage]display.Content
	Actions  []actions.Command
	Message  string // Last action result
	Verbose  bool
	Confirm  bool // Exit confirmation is showing
}

// visited reports whether s has been shown at some point.
func (v ViewState) visited(s stage.Stage) bool {
	return slices.Contains(v.Classes, s.String())
}

// StageView renders one row per stage with its latest status.
type StageView struct{}

const stageNameWidth = 10

// Render renders the stage view to a slice of strings.
// Width specifies the terminal width for the view.
func (v *StageView) Render(state ViewState, width int) []string {
	if width < 30 {
		width = 30
	}
	innerWidth := width - 4

	var content []string
	content = append(content, CenterText(Style(state.Title, Bold), innerWidth))
	content = append(content, Separator)

	for _, s := range state.Stages {
		content = append(content, stageRow(state, s))
	}

	if len(state.Actions) > 0 || state.Message != "" {
		content = append(content, Separator)
	}
	for i, cmd := range state.Actions {
		content = append(content, "["+ActionKey(i, len(state.Actions))+"] "+cmd.Label)
	}
	if state.Message != "" {
		for _, line := range WrapText(state.Message, innerWidth) {
			content = append(content, Style(line, Dim))
		}
	}

	content = append(content, "")
	if state.Confirm {
		content = append(content, Style("Leave snapview? [y/N]", FgYellow, Bold))
	} else {
		console := "off"
		if state.Verbose {
			console = "on"
		}
		content = append(content, Style("[+]verbose [-]quiet [q]uit | console: "+console, Dim))
	}

	return BoxWithContent(width, content)
}

func stageRow(state ViewState, s stage.Stage) string {
	name := PadOrTruncate(s.String(), stageNameWidth)
	marker := "·"
	switch {
	case s == state.Current:
		marker = "▶"
		name = Style(name, StageColor(s), Bold)
	case state.visited(s):
		marker = "✓"
		name = Style(name, StageColor(s))
	default:
		name = Style(name, Dim)
	}

	row := marker + " " + name
	if status := renderContent(state.Statuses[s]); status != "" {
		row += " " + status
	}
	return row
}

// renderContent renders the text and emphasis segments of c. Action
// segments are drawn separately with their shortcuts.
func renderContent(c display.Content) string {
	parts := make([]string, 0, len(c))
	for _, seg := range c {
		switch seg.Kind {
		case display.SegmentText:
			parts = append(parts, seg.Text)
		case display.SegmentEmphasis:
			parts = append(parts, Style(seg.Text, Bold))
		}
	}
	return strings.Join(parts, " ")
}
