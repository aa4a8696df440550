package main

import (
	"cmp"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/mapport/convert"
	"github.com/dhamidi/mapport/mapping"
)

func newRenameCmd(a *app) *cobra.Command {
	var matchFile string
	var pairs map[string]string

	cmd := &cobra.Command{
		Use:   "rename <in.mappings> <out.mappings>",
		Short: "Move the obfuscated names of a mapping file to new ones",
		Long: `Move the obfuscated names of a mapping file to new ones.

By default every unique match of the class match file renames its source
class to its destination class. With --map only the given renames apply.
Renames are ordered so that chains like a -> b, b -> c work; a cycle is an
error and nothing is written.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var renames *convert.BiMap[mapping.ClassEntry, mapping.ClassEntry]
			if len(pairs) > 0 {
				renames = convert.NewBiMap[mapping.ClassEntry, mapping.ClassEntry]()
				for old, nu := range pairs {
					if err := renames.Put(mapping.NewClassEntry(old), mapping.NewClassEntry(nu)); err != nil {
						return fmt.Errorf("--map %s=%s: %w", old, nu, err)
					}
				}
			} else {
				matches, err := convert.LoadClassMatches(cmp.Or(matchFile, a.cfg.Files.ClassMatches))
				if err != nil {
					return err
				}
				renames = matches.Unique()
			}

			m, err := mapping.ReadFile(args[0])
			if err != nil {
				return err
			}
			renamed, err := convert.ConvertMappings(m, renames)
			if err != nil {
				return fmt.Errorf("rename %s: %w", args[0], err)
			}
			if err := mapping.WriteFile(args[1], renamed); err != nil {
				return err
			}
			status(cmd.OutOrStdout(), "applied %s renames, wrote %s", count(renames.Len()), args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&matchFile, "matches", "m", "", "class match file to take renames from (default from config)")
	cmd.Flags().StringToStringVar(&pairs, "map", nil, "explicit rename old=new (repeatable)")

	return cmd
}
