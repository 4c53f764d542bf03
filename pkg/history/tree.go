package history

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	treeIndent    = "\t"
	treeCommitBar = "####################### COMMIT #######################"
	treeEndBar    = "######################################################"
)

// WriteTree writes an indented, human-readable dump of the project: every
// commit with its touched files, message and per-file histograms.
func WriteTree(w io.Writer, p *Project) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, p.Name)
	fmt.Fprintf(bw, "Number of Commits: %d\n", len(p.Commits))

	for _, c := range p.Commits {
		writeCommit(bw, c, treeIndent)
	}

	err := bw.Flush()
	if err != nil {
		return fmt.Errorf("write tree: %w", err)
	}

	return nil
}

func writeCommit(w io.Writer, c *Commit, tab string) {
	fmt.Fprintln(w, tab+treeCommitBar)
	fmt.Fprintf(w, "%sAuthor: %s\n", tab, c.Author)
	fmt.Fprintf(w, "%sCommit ID: %s\n", tab, c.ID)
	fmt.Fprintf(w, "%sDate: %s\n", tab, c.Date)
	fmt.Fprintf(w, "%sNumber of Files: %d\n", tab, len(c.Files))

	for _, path := range c.TouchedFiles {
		fmt.Fprintf(w, "%s%s%s\n", tab, treeIndent, path)
	}

	message := strings.TrimRight(c.Message, "\r\n")
	fmt.Fprintf(w, "%sMessage:\n%s%s%s\n", tab, tab, treeIndent,
		strings.ReplaceAll(message, "\n", "\n"+tab+treeIndent))

	fmt.Fprintf(w, "%sStats:\n", tab)

	for _, f := range c.Files {
		writeFile(w, f, tab+treeIndent)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, tab+treeEndBar)
}

func writeFile(w io.Writer, f *File, tab string) {
	fmt.Fprintf(w, "%sLocal File: %s\n", tab, f.Local)
	fmt.Fprintf(w, "%sRemote File: %s\n", tab, f.Remote)

	if f.Renamed() {
		fmt.Fprintf(w, "%sRenamed: %s -> %s\n", tab, f.Local, f.Remote)
	}

	writeHistogram(w, &f.Declarations, tab+treeIndent)
	writeHistogram(w, &f.Invocations, tab+treeIndent)
}

func writeHistogram(w io.Writer, h *Histogram, tab string) {
	if h.Empty() {
		fmt.Fprintf(w, "%s%s (no edits)\n", tab, h.Name)

		return
	}

	fmt.Fprintln(w, tab+h.Name)
	fmt.Fprintf(w, "%s%sAdditions\n", tab, treeIndent)

	for name, count := range h.Additions.All() {
		fmt.Fprintf(w, "%s%s%s%s: %d\n", tab, treeIndent, treeIndent, name, count)
	}

	fmt.Fprintf(w, "%s%sDeletions\n", tab, treeIndent)

	for name, count := range h.Deletions.All() {
		fmt.Fprintf(w, "%s%s%s%s: %d\n", tab, treeIndent, treeIndent, name, count)
	}
}
