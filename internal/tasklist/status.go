package tasklist

import "github.com/harlequingg/task-manager/internal/client"

// ANSI colour codes used in the terminal table.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
)

// Style is how a status is displayed.
type Style struct {
	Label string
	Color string
}

var statusStyles = map[string]Style{
	client.StatusPending:    {Label: "Pending", Color: colorRed},
	client.StatusInProgress: {Label: "In Progress", Color: colorYellow},
	client.StatusCompleted:  {Label: "Completed", Color: colorGreen},
}

// StyleFor returns the display style of status. Unknown values are shown
// uncoloured with their raw text.
func StyleFor(status string) Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return Style{Label: status}
}

// Paint wraps text in the style's colour.
func (s Style) Paint(text string) string {
	if s.Color == "" {
		return text
	}
	return s.Color + text + colorReset
}
