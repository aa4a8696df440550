package main

import (
	"cmp"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/mapport/convert"
	"github.com/dhamidi/mapport/jarindex"
	"github.com/dhamidi/mapport/mapping"
)

func newClassesCmd(a *app) *cobra.Command {
	var known, output string

	cmd := &cobra.Command{
		Use:   "classes <source.jar> <dest.jar>",
		Short: "Match the classes of two builds and write the class match file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, dest, err := jarindex.OpenPair(cmd.Context(), args[0], args[1], a.indexOptions())
			if err != nil {
				return err
			}

			opts := convert.MatchOptions{
				Observer: func(r convert.RoundReport) {
					log.Infof("round %d (%s): %s unique, %s ambiguous, %s/%s unmatched, accepted=%t",
						r.Round, r.Phase, count(r.Counts.Unique), count(r.Counts.Ambiguous),
						count(r.Counts.UnmatchedSource), count(r.Counts.UnmatchedDest), r.Accepted)
				},
			}
			if known != "" {
				prev, err := convert.LoadClassMatches(known)
				if err != nil {
					return err
				}
				opts.Known = prev.Unique()
				log.Infof("keeping %s confirmed matches from %s", count(opts.Known.Len()), known)
			}

			matches, err := convert.ComputeClassMatches(source, dest, opts)
			if err != nil {
				return fmt.Errorf("match classes: %w", err)
			}

			path := cmp.Or(output, a.cfg.Files.ClassMatches)
			if err := convert.SaveClassMatches(path, matches); err != nil {
				return err
			}
			printClassCounts(cmd.OutOrStdout(), matches.Counts())
			if c := matches.Counts(); c.Ambiguous > 0 {
				warn(cmd.ErrOrStderr(), "%s ambiguous clusters left in %s; resolve them by hand or with mapport resolve", count(c.Ambiguous), path)
			}
			status(cmd.OutOrStdout(), "wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&known, "known", "k", "", "class match file whose unique matches are kept as confirmed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "class match file to write (default from config)")

	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <source-class> <dest-class>",
		Short: "Confirm a match between two classes left ambiguous or unmatched",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Files.ClassMatches
			matches, err := convert.LoadClassMatches(path)
			if err != nil {
				return err
			}
			resolved, err := matches.Resolve(mapping.NewClassEntry(args[0]), mapping.NewClassEntry(args[1]))
			if err != nil {
				return err
			}
			if err := convert.SaveClassMatches(path, resolved); err != nil {
				return err
			}
			printClassCounts(cmd.OutOrStdout(), resolved.Counts())
			status(cmd.OutOrStdout(), "matched %s to %s in %s", args[0], args[1], path)
			return nil
		},
	}
}
