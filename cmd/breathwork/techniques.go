package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sweeney/breathwork/internal/phase"
)

func newTechniquesCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "techniques",
		Short: "List the breathing techniques available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			all, err := phase.NewCatalog(phase.Builtin())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tPATTERN\tCYCLE\tPHASES")
			for _, t := range all.Available(cfg.Premium).List() {
				names := make([]string, len(t.Phases))
				for i, p := range t.Phases {
					names[i] = string(p.Name)
				}
				marker := ""
				if t.ID == cfg.Technique {
					marker = " *"
				}
				fmt.Fprintf(tw, "%s%s\t%s\t%s\t%ds\t%s\n", t.ID, marker, t.Title, t.Pattern(), t.CycleLength(), strings.Join(names, " > "))
			}
			return tw.Flush()
		},
	}
}
