package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/mapport/convert"
	"github.com/dhamidi/mapport/mapping"
)

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <dest.jar> <source.mappings> <dest.mappings>",
		Short: "Migrate a mapping file onto the destination build",
		Long: `Migrate a mapping file onto the destination build.

Classes are carried over through the class match file. Field and method
mappings follow the field and method match files when they exist and are
matched on the fly otherwise. Mappings that still do not fit the
destination build are dropped with a warning.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mig, err := a.migrate(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			stderr := cmd.ErrOrStderr()
			if n := len(mig.report.Unresolved); n > 0 {
				warn(stderr, "%s referenced classes have no unique match and keep their old names", count(n))
				for _, name := range mig.report.Unresolved {
					log.Debugf("unresolved: %s", name)
				}
			}

			fields, err := memberMatches(a.cfg.Files.FieldMatches, mig, convert.Fields)
			if err != nil {
				return err
			}
			if err := applyMembers(stderr, mig, fields, convert.Fields); err != nil {
				return err
			}
			methods, err := memberMatches(a.cfg.Files.MethodMatches, mig, convert.Methods)
			if err != nil {
				return err
			}
			if err := applyMembers(stderr, mig, methods, convert.Methods); err != nil {
				return err
			}

			checker := mapping.NewChecker(mig.dest)
			if err := checker.DropBrokenMappings(mig.mappings); err != nil {
				return fmt.Errorf("check mappings: %w", err)
			}
			reportDropped(stderr, checker)

			if err := mapping.WriteFile(args[2], mig.mappings); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printClassCounts(out, mig.matches.Counts())
			printMemberCounts(out, memberRow("fields", fields.Counts()), memberRow("methods", methods.Counts()))
			status(out, "wrote %s classes to %s", count(mig.mappings.Len()), args[2])
			return nil
		},
	}
}

func applyMembers[T convert.MemberEntry](w io.Writer, mig *migration, mm *convert.MemberMatches[T], kind convert.MemberKind[T]) error {
	report, err := convert.ApplyMemberMatches(mig.mappings, mig.matches, mm, kind)
	if err != nil {
		return fmt.Errorf("apply %s matches: %w", kind.Name(), err)
	}
	log.Infof("%s mappings: %s re-keyed, %s removed", kind.Name(), count(report.Rekeyed), count(len(report.Removed)))
	for _, removed := range report.Removed {
		log.Debugf("removed unmatchable %s %s", kind.Name(), removed)
	}
	for _, p := range report.Leftover {
		warn(w, "could not move %s %s to %s: the name is taken", kind.Name(), p.Source, p.Dest)
	}
	return nil
}

func reportDropped(w io.Writer, ch *mapping.Checker) {
	for _, entry := range sortedKeys(ch.DroppedClasses) {
		warn(w, "dropped class %s: not in the destination build", entry)
	}
	for _, entry := range sortedKeys(ch.DroppedInnerClasses) {
		warn(w, "dropped inner class %s: not in the destination build", entry)
	}
	for _, entry := range sortedKeys(ch.DroppedFields) {
		warn(w, "dropped field %s: not in the destination build", entry)
	}
	for _, entry := range sortedKeys(ch.DroppedMethods) {
		warn(w, "dropped method %s: not in the destination build", entry)
	}
}

type entryKey interface {
	comparable
	String() string
}

func sortedKeys[K entryKey, V any](m map[K]V) []K {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b K) int { return strings.Compare(a.String(), b.String()) })
	return keys
}
