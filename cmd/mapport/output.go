package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dhamidi/mapport/convert"
)

var (
	warnColor = color.New(color.FgYellow)
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

func fail(err error) {
	failColor.Fprintf(os.Stderr, "error: %v\n", err)
}

// warn logs msg and repeats it on w so it is seen even with logging off.
func warn(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Warning(msg)
	warnColor.Fprintf(w, "warning: %s\n", msg)
}

func count(n int) string { return humanize.Comma(int64(n)) }

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	return tbl
}

func printClassCounts(w io.Writer, c convert.MatchCounts) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"classes", "unique", "ambiguous", "unmatched source", "unmatched dest"})
	tbl.AppendRow(table.Row{"", count(c.Unique), count(c.Ambiguous), count(c.UnmatchedSource), count(c.UnmatchedDest)})
	tbl.Render()
}

func memberRow(name string, c convert.MemberCounts) table.Row {
	return table.Row{name, count(c.Matched), count(c.UnmatchedSource), count(c.UnmatchedDest), count(c.Unmatchable)}
}

func printMemberCounts(w io.Writer, rows ...table.Row) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"members", "matched", "unmatched source", "unmatched dest", "unmatchable"})
	tbl.AppendRows(rows)
	tbl.Render()
}

func status(w io.Writer, format string, args ...any) {
	okColor.Fprintf(w, format+"\n", args...)
}
