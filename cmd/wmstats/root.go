package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wmstats <path>",
		Short: "wmstats reports wall clock efficiencies of completed jobs",
		Long: `wmstats samples job output archives from each subdirectory of <path>,
extracts the job report from every archive, and prints how the wall clock
time of each job's steps compares to the time measured by its wrapper.`,
		Args:          cobra.ExactArgs(1),
		RunE:          runCollect,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.Int("sample-size", 10, "maximum archives sampled per subdirectory")
	persistent.Uint64("seed", 0, "sampling seed (0 picks one at random)")
	persistent.String("member", "Report.0.json", "report file stored under <job>/ in each archive")
	persistent.StringArray("subdir", nil, "include only matching subdirectories (repeatable)")
	persistent.StringArray("skip-subdir", nil, "exclude matching subdirectories (repeatable)")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.BoolP("verbose", "v", false, "log debug details to stderr")

	flags := cmd.Flags()
	flags.String("output-dir", "", "directory receiving extracted reports (default: working directory)")
	flags.Float64("warn-threshold", 90.0, "warn when a cmsRun step's efficiency is below this percentage")
	flags.String("marker", "cmsRun", "substring identifying steps that run the instrumented program")
	flags.Bool("progress", false, "show a progress bar while extracting")

	cmd.AddCommand(newListCmd())

	return cmd
}
