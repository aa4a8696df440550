package main

import (
	"errors"
	"io"
	"io/fs"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dhamidi/mapport/convert"
	"github.com/dhamidi/mapport/mapping"
)

func newReportCmd(a *app) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the match files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			matches, err := convert.LoadClassMatches(a.cfg.Files.ClassMatches)
			if err != nil {
				return err
			}
			printClassCounts(out, matches.Counts())

			var rows []table.Row
			fields, err := loadIfPresent(a.cfg.Files.FieldMatches, convert.Fields)
			if err != nil {
				return err
			}
			if fields != nil {
				rows = append(rows, memberRow("fields", fields.Counts()))
			}
			methods, err := loadIfPresent(a.cfg.Files.MethodMatches, convert.Methods)
			if err != nil {
				return err
			}
			if methods != nil {
				rows = append(rows, memberRow("methods", methods.Counts()))
			}
			if len(rows) > 0 {
				printMemberCounts(out, rows...)
			}

			if list {
				printOpenClasses(out, matches)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "list ambiguous clusters and unmatched classes")

	return cmd
}

func loadIfPresent[T convert.MemberEntry](path string, kind convert.MemberKind[T]) (*convert.MemberMatches[T], error) {
	mm, err := convert.LoadMemberMatches(path, kind)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return mm, err
}

func printOpenClasses(w io.Writer, matches *convert.ClassMatches) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"state", "source", "dest"})
	for _, m := range matches.Ambiguous() {
		tbl.AppendRow(table.Row{warnColor.Sprint("ambiguous"), joinNames(m.Source), joinNames(m.Dest)})
	}
	for _, c := range matches.UnmatchedSource() {
		tbl.AppendRow(table.Row{"unmatched", c.Name, ""})
	}
	for _, c := range matches.UnmatchedDest() {
		tbl.AppendRow(table.Row{"unmatched", "", c.Name})
	}
	tbl.AppendFooter(table.Row{"", count(len(matches.Ambiguous())) + " ambiguous", ""})
	tbl.Render()
}

func joinNames(entries []mapping.ClassEntry) string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return strings.Join(names, "\n")
}
