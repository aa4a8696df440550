package main

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/dhamidi/mapport/config"
	"github.com/dhamidi/mapport/convert"
	"github.com/dhamidi/mapport/jarindex"
	"github.com/dhamidi/mapport/mapping"
)

// migration is the destination build with the source mappings carried onto
// it through the class match file.
type migration struct {
	matches  *convert.ClassMatches
	dest     *jarindex.Index
	mappings *mapping.Mappings
	report   *convert.MigrationReport
}

func (a *app) migrate(cmd *cobra.Command, destJar, sourceMappings string) (*migration, error) {
	matches, err := convert.LoadClassMatches(a.cfg.Files.ClassMatches)
	if err != nil {
		return nil, err
	}
	if n := len(matches.Ambiguous()); n > 0 && !a.cfg.Matching.AllowAmbiguous {
		return nil, fmt.Errorf("%s has %s ambiguous clusters; resolve them or set matching.allow_ambiguous",
			a.cfg.Files.ClassMatches, count(n))
	}
	old, err := mapping.ReadFile(sourceMappings)
	if err != nil {
		return nil, err
	}
	dest, err := jarindex.Open(cmd.Context(), destJar, a.indexOptions())
	if err != nil {
		return nil, err
	}
	migrated, report, err := convert.MigrateMappings(matches, old, dest)
	if err != nil {
		return nil, fmt.Errorf("migrate %s: %w", sourceMappings, err)
	}
	log.Infof("migrated %s classes, skipped %s without mappings", count(report.Migrated), count(len(report.Skipped)))
	return &migration{matches: matches, dest: dest, mappings: migrated, report: report}, nil
}

func newFieldsCmd(a *app) *cobra.Command {
	return newMembersCmd(a, "fields", convert.Fields, func(f config.FilesConfig) string { return f.FieldMatches })
}

func newMethodsCmd(a *app) *cobra.Command {
	return newMembersCmd(a, "methods", convert.Methods, func(f config.FilesConfig) string { return f.MethodMatches })
}

func newMembersCmd[T convert.MemberEntry](a *app, use string, kind convert.MemberKind[T], file func(config.FilesConfig) string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   use + " <dest.jar> <source.mappings>",
		Short: fmt.Sprintf("Match the %s of migrated classes and write the %s match file", use, kind.Name()),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mig, err := a.migrate(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			mm, err := convert.ComputeMemberMatches(mig.dest, mig.mappings, mig.matches, kind)
			if err != nil {
				return fmt.Errorf("match %s: %w", use, err)
			}

			path := cmp.Or(output, file(a.cfg.Files))
			if err := convert.SaveMemberMatches(path, mm); err != nil {
				return err
			}
			printMemberCounts(cmd.OutOrStdout(), memberRow(use, mm.Counts()))
			if n := len(mm.UnmatchedSource()); n > 0 {
				warn(cmd.ErrOrStderr(), "%s %s mappings have several candidates; edit %s to pick one", count(n), kind.Name(), path)
			}
			status(cmd.OutOrStdout(), "wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "match file to write (default from config)")

	return cmd
}

// memberMatches loads the match file at path, or computes the matches when
// there is none yet.
func memberMatches[T convert.MemberEntry](path string, mig *migration, kind convert.MemberKind[T]) (*convert.MemberMatches[T], error) {
	mm, err := convert.LoadMemberMatches(path, kind)
	if err == nil {
		log.Infof("using %s matches from %s", kind.Name(), path)
		return mm, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return convert.ComputeMemberMatches(mig.dest, mig.mappings, mig.matches, kind)
}
