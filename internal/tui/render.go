package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thruflo/snapview/internal/stage"
)

// Box drawing characters (Unicode)
const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
	BoxTeeLeft     = "├"
	BoxTeeRight    = "┤"
)

// Separator is a box row marker; BoxWithContent draws it as a horizontal rule.
const Separator = "\x00sep"

// BoxWithContent draws a box containing the given content lines.
// Each line is padded/truncated to fit within the box.
func BoxWithContent(width int, content []string) []string {
	if width < 4 {
		return nil
	}

	innerWidth := width - 4
	lines := make([]string, 0, len(content)+2)

	lines = append(lines, BoxTopLeft+strings.Repeat(BoxHorizontal, width-2)+BoxTopRight)
	for _, line := range content {
		if line == Separator {
			lines = append(lines, BoxTeeLeft+strings.Repeat(BoxHorizontal, width-2)+BoxTeeRight)
			continue
		}
		lines = append(lines, BoxVertical+" "+PadOrTruncate(line, innerWidth)+" "+BoxVertical)
	}
	lines = append(lines, BoxBottomLeft+strings.Repeat(BoxHorizontal, width-2)+BoxBottomRight)

	return lines
}

// StripANSI removes CSI escape sequences from s.
func StripANSI(s string) string {
	if !strings.Contains(s, "\033[") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1B && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 0x40 || s[j] > 0x7E) {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// VisualWidth returns the number of visible runes in s, ignoring escape sequences.
func VisualWidth(s string) int {
	return utf8.RuneCountInString(StripANSI(s))
}

// PadOrTruncate pads or truncates a string to exactly width visible characters.
// Styled strings that must be cut lose their styling.
func PadOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	visible := VisualWidth(s)
	if visible == width {
		return s
	}
	if visible < width {
		return s + strings.Repeat(" ", width-visible)
	}
	return Truncate(StripANSI(s), width)
}

// Truncate truncates a string to max width, adding ellipsis if needed.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}

	if width >= 3 {
		return string(runes[:width-3]) + "..."
	}
	return string(runes[:width])
}

// WrapText wraps text to fit within the given width.
// Returns a slice of lines.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}

	var lines []string
	words := strings.Fields(text)

	if len(words) == 0 {
		return lines
	}

	currentLine := words[0]

	for _, word := range words[1:] {
		if utf8.RuneCountInString(currentLine)+1+utf8.RuneCountInString(word) <= width {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}

// CenterText centers text within the given width.
func CenterText(s string, width int) string {
	visible := VisualWidth(s)
	if visible >= width {
		return PadOrTruncate(s, width)
	}

	leftPad := (width - visible) / 2
	rightPad := width - visible - leftPad

	return strings.Repeat(" ", leftPad) + s + strings.Repeat(" ", rightPad)
}

// ProgressBar renders a simple progress bar from a percentage.
// Returns a string like "[████████░░░░░░░░] 50%"
func ProgressBar(pct float64, width int) string {
	if width < 10 {
		return ""
	}

	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}

	barWidth := width - 7 // Space for "[] XXX%"
	filled := int(pct / 100 * float64(barWidth))
	empty := barWidth - filled

	bar := "[" +
		strings.Repeat("█", filled) +
		strings.Repeat("░", empty) +
		"]"

	return bar + " " + fmt.Sprintf("%3d", int(pct)) + "%"
}

// Style applies ANSI style codes to text.
func Style(s string, codes ...string) string {
	if len(codes) == 0 {
		return s
	}
	return strings.Join(codes, "") + s + Reset
}

// StageColor returns the color code used for a stage's heading.
func StageColor(s stage.Stage) string {
	switch s {
	case stage.Registry:
		return FgCyan
	case stage.Reclaimer:
		return FgYellow
	case stage.Distribute:
		return FgBlue
	case stage.Complete:
		return FgBrightGreen
	default:
		return FgMagenta
	}
}
