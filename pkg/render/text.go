package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/typetrail/pkg/catalog"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

const (
	msgNoProjects = "No projects loaded"
	msgNoEvents   = "No edit events"
	shortIDLength = 10
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	addedColor   = color.New(color.FgGreen)
	removedColor = color.New(color.FgRed)
	commitColor  = color.New(color.FgYellow)
)

// TypeActivity counts the edit events of one identifying name.
type TypeActivity struct {
	Name    string
	Added   int
	Removed int
}

// Activity tallies doc.Dates per name, in doc.Types order.
func Activity(doc *view.Document) []TypeActivity {
	index := make(map[string]int, len(doc.Types))
	rows := make([]TypeActivity, 0, len(doc.Types))

	for _, name := range doc.Types {
		index[name] = len(rows)
		rows = append(rows, TypeActivity{Name: name})
	}

	for _, event := range doc.Dates {
		i, ok := index[event.Type]
		if !ok {
			continue
		}

		switch event.Edit {
		case view.Add:
			rows[i].Added++
		case view.Remove:
			rows[i].Removed++
		}
	}

	return rows
}

func writeDocumentText(doc *view.Document, writer io.Writer) error {
	_, err := headerColor.Fprintf(writer, "=== %s ===\n", doc.Name)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	_, err = fmt.Fprintf(writer, "commits: %d | events: %d | authors: %d | types: %d\n",
		len(doc.Commits), len(doc.Dates), len(doc.Authors), len(doc.Types))
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if len(doc.Dates) == 0 {
		_, err = fmt.Fprintf(writer, "\n%s\n", msgNoEvents)
	} else {
		_, err = fmt.Fprintf(writer, "\n%s\n", activityTable(Activity(doc)))
	}

	if err != nil {
		return fmt.Errorf("write activity: %w", err)
	}

	return writeTreeChanges(doc, writer)
}

func activityTable(rows []TypeActivity) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Type", "Added", "Removed"})

	for _, row := range rows {
		tbl.AppendRow(table.Row{row.Name, row.Added, row.Removed})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d types", len(rows))})

	return tbl.Render()
}

func writeTreeChanges(doc *view.Document, writer io.Writer) error {
	deltas := view.Deltas(doc)

	for i, delta := range deltas {
		if delta.Empty() {
			continue
		}

		commit := doc.Commits[i]

		_, err := commitColor.Fprintf(writer, "\n%s %s\n", shortID(commit.CommitID), commit.Date)
		if err != nil {
			return fmt.Errorf("write tree changes: %w", err)
		}

		for _, path := range delta.Added {
			_, err = addedColor.Fprintf(writer, "  + %s\n", path)
			if err != nil {
				return fmt.Errorf("write tree changes: %w", err)
			}
		}

		for _, path := range delta.Removed {
			_, err = removedColor.Fprintf(writer, "  - %s\n", path)
			if err != nil {
				return fmt.Errorf("write tree changes: %w", err)
			}
		}
	}

	return nil
}

func writeListingText(summaries []catalog.Summary, writer io.Writer) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(writer, msgNoProjects)
		if err != nil {
			return fmt.Errorf("write listing: %w", err)
		}

		return nil
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Project", "Commits", "Authors", "Files"})

	for _, s := range summaries {
		tbl.AppendRow(table.Row{s.Name, s.Commits, s.Authors, s.Files})
	}

	tbl.AppendFooter(table.Row{"Total: " + strconv.Itoa(len(summaries)) + " projects"})

	_, err := fmt.Fprintln(writer, tbl.Render())
	if err != nil {
		return fmt.Errorf("write listing: %w", err)
	}

	return nil
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}

	return id[:shortIDLength]
}
