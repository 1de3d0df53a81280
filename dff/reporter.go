package dff

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

const reportHeader = "== == Duplicate File Finder Report == =="

// Selection is a group picked by the reporter together with its figures.
type Selection struct {
	Group          Group
	Representative string
	Copies         []string
	CopyCount      int
	TotalSize      int64
	// Reclaimable excludes the one file that would be kept.
	Reclaimable int64
}

// Summary holds the two groups a report is about. Both are nil when there
// are no groups.
type Summary struct {
	Groups     int
	MostCopies *Selection
	MostSpace  *Selection
}

func (s Summary) Empty() bool {
	return s.Groups == 0
}

func newSelection(g Group) *Selection {
	return &Selection{
		Group:          g,
		Representative: g.Representative(),
		Copies:         g.Copies(),
		CopyCount:      g.Count() - 1,
		TotalSize:      g.TotalSize(),
		Reclaimable:    g.TotalSize() - g.Size,
	}
}

// Report picks the group with the most members and the group using the
// most space. Ties go to the group that comes first.
func Report(groups []Group) Summary {
	summary := Summary{Groups: len(groups)}
	if len(groups) == 0 {
		return summary
	}

	mostCopies, mostSpace := 0, 0
	for i := 1; i < len(groups); i++ {
		if groups[i].Count() > groups[mostCopies].Count() {
			mostCopies = i
		}
		if groups[i].TotalSize() > groups[mostSpace].TotalSize() {
			mostSpace = i
		}
	}
	summary.MostCopies = newSelection(groups[mostCopies])
	summary.MostSpace = newSelection(groups[mostSpace])
	return summary
}

// Renderer writes a Summary as text.
type Renderer struct {
	header *color.Color
}

func NewRenderer(noColor bool) *Renderer {
	header := color.New(color.Bold)
	if noColor {
		header.DisableColor()
	}
	return &Renderer{header: header}
}

func (r *Renderer) Render(w io.Writer, s Summary) error {
	ew := &errWriter{w: w}
	ew.print(r.header.Sprint(reportHeader) + "\n")
	if s.Empty() {
		ew.print("No duplicates found\n")
		return ew.err
	}

	mc := s.MostCopies
	ew.printf("The file with the most duplicates is:\n%s\n", mc.Representative)
	ew.printf("Here are its %d copies:\n", mc.CopyCount)
	ew.list(mc.Copies)

	ms := s.MostSpace
	ew.printf("\nThe most disk space (%d bytes, %s) could be recovered, by deleting copies of this file:\n%s\n",
		ms.TotalSize, humanize.Bytes(uint64(ms.TotalSize)), ms.Representative)
	ew.printf("Here are its %d copies:\n", ms.CopyCount)
	ew.list(ms.Copies)
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	ew.print(fmt.Sprintf(format, args...))
}

func (ew *errWriter) list(paths []string) {
	for _, p := range paths {
		ew.print(p + "\n")
	}
}
