package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/experiment"
	"github.com/san-kum/astroprop/internal/integrators"
)

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list preset scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSPAN\tFORCES")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%v\n", name, p.Duration, p.Forces)
			}
			return w.Flush()
		},
	}
}

func methodsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "list integration methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTAGES\tORDER\tADAPTIVE\tFSAL")
			for _, m := range integrators.Methods() {
				t := m.Tableau()
				order := fmt.Sprint(t.Order)
				if t.Adaptive() {
					order = fmt.Sprintf("%d(%d)", t.Order, t.EmbeddedOrder)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%v\t%v\n", m, t.Stages, order, t.Adaptive(), t.FSAL)
			}
			return w.Flush()
		},
	}
}

func forcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forces",
		Short: "list force models",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range experiment.NewRegistry().ListForces() {
				fmt.Println(name)
			}
		},
	}
}
