package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/astroprop/internal/analysis"
	"github.com/san-kum/astroprop/internal/export"
	"github.com/san-kum/astroprop/internal/forces"
	"github.com/san-kum/astroprop/internal/propagator"
	"github.com/san-kum/astroprop/internal/storage"
	"github.com/san-kum/astroprop/internal/viz"
)

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(settings.GetString("data"))
			runs, err := st.List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tSCENARIO\tTIME\tSPAN\tMETHOD\tSAMPLES\tSTEPS")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
					run.ID,
					run.Kind,
					run.Scenario,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Target.Sub(run.Epoch),
					run.Method,
					run.Samples,
					run.Steps,
				)
			}
			return w.Flush()
		},
	}
}

func plotCommand() *cobra.Command {
	var (
		orbit   bool
		plane   string
		svgPath string
	)
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(settings.GetString("data"))
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			if meta.Kind == storage.KindMonteCarlo {
				return fmt.Errorf("run %s is a Monte Carlo batch, only propagations can be plotted", meta.ID)
			}
			samples, err := st.LoadStates(meta.ID)
			if err != nil {
				return err
			}
			if len(samples) < 2 {
				return fmt.Errorf("not enough samples to plot")
			}
			res := &propagator.Result{Method: meta.Method, Samples: samples}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("scenario: %s (%s, %v)\n", meta.Scenario, meta.Body, meta.Forces)
			fmt.Printf("samples: %d\n\n", res.Len())

			p, ok := viz.ParsePlane(plane)
			if !ok {
				return fmt.Errorf("unknown plane %q", plane)
			}
			radius := 0.0
			if b, ok := forces.BodyByName(meta.Body); ok {
				radius = b.Radius
			}

			if svgPath != "" {
				f, err := os.Create(svgPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := export.OrbitSVG(f, res.States(), radius, p, 800); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", svgPath)
				return nil
			}

			if orbit {
				fmt.Println(viz.Title.Render(fmt.Sprintf("orbit, %s plane", plane)))
				fmt.Print(viz.OrbitPlot(res.States(), radius, p, 60, 30))
				return nil
			}

			fmt.Println(asciigraph.Plot(analysis.Radius(res),
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("radius (km)"),
			))
			fmt.Println()
			for i, name := range []string{"x", "y", "z", "vx", "vy", "vz"} {
				_, v := analysis.Series(res, i)
				fmt.Println(asciigraph.Plot(v,
					asciigraph.Height(6),
					asciigraph.Width(80),
					asciigraph.Caption(name),
				))
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&orbit, "orbit", false, "draw the projected orbit instead of time series")
	cmd.Flags().StringVar(&plane, "plane", "xy", "projection plane for --orbit and --svg: xy, xz or yz")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write the projected orbit to this SVG file")
	return cmd
}

func exportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(settings.GetString("data"))
			if out == "" {
				return st.Export(os.Stdout, args[0])
			}
			if err := st.ExportJSON(out, args[0]); err != nil {
				return err
			}
			fmt.Printf("exported %s to %s\n", args[0], out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file, stdout when empty")
	return cmd
}
