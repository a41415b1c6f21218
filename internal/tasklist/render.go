package tasklist

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harlequingg/task-manager/internal/client"
)

const emptyMessage = "No Tasks Found!!"

// Render writes the page as a table followed by the page indicator.
func Render(w io.Writer, p Page, color bool) error {
	if len(p.Items) == 0 {
		_, err := fmt.Fprintln(w, emptyMessage)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDUE\tSTATUS")
	for _, t := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Title, t.DueDate, statusText(t.Status, color))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nPage %d of %d%s%s\n", p.Number, p.TotalPages, navHint(p.HasPrev, " [prev]"), navHint(p.HasNext, " [next]"))
	return err
}

// RenderTask writes every field of a single task.
func RenderTask(w io.Writer, t client.Task, color bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	fmt.Fprintf(tw, "Description:\t%s\n", t.Description)
	fmt.Fprintf(tw, "Due date:\t%s\n", t.DueDate)
	fmt.Fprintf(tw, "Status:\t%s\n", statusText(t.Status, color))
	return tw.Flush()
}

func statusText(status string, color bool) string {
	s := StyleFor(status)
	if !color {
		return s.Label
	}
	return s.Paint(s.Label)
}

func navHint(enabled bool, label string) string {
	if enabled {
		return label
	}
	return ""
}
