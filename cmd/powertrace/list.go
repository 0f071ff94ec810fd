package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"codeberg.org/mutker/powertrace/internal/analyzer"
	"github.com/spf13/cobra"
)

func newListCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List modules and accessors, and whether the trace can serve them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, a, err := setup(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODULE\tNAMESPACE\tACCESSOR\tREQUIRES\tAVAILABLE")
			for _, m := range a.Modules() {
				for _, ns := range analyzer.Namespaces {
					for _, name := range m.Accessors(ns) {
						requires, err := m.Requires(ns, name)
						if err != nil {
							return err
						}
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
							m.Name(), ns, name, strings.Join(requires, ","), a.HasEvents(requires...))
					}
				}
			}

			return w.Flush()
		},
	}
}
