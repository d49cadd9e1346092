package cli

import (
	"github.com/spf13/cobra"
)

type FetchOptions struct {
	TablesFile string
	OutputDir  string
	PageSize   int
	MaxPages   int
	RowLimit   int
	Parallel   bool
	Hard       []string
}

func NewFetchCmd() *cobra.Command {
	opts := &FetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch all configured tables and write JSON snapshots",
		RunE: func(c *cobra.Command, args []string) error {
			return runFetch(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.TablesFile, "tables", "t", "configs/tables.yaml", "Path to the tables YAML file")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Snapshot output directory (overrides BASEROW_OUTPUT_DIR)")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Rows per page (overrides BASEROW_PAGE_SIZE)")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 0, "Hard cap on pages per table (overrides BASEROW_MAX_PAGES)")
	cmd.Flags().IntVar(&opts.RowLimit, "limit", 0, "Stop after this many rows per table (0 = all)")
	cmd.Flags().BoolVar(&opts.Parallel, "parallel", false, "Fetch tables concurrently, one worker per table")
	cmd.Flags().StringSliceVar(&opts.Hard, "hard", nil, "Checks whose offending rows are dropped from the snapshot")

	return cmd
}

type ProcessOptions struct {
	InputDir  string
	OutputDir string
}

func NewProcessCmd() *cobra.Command {
	opts := &ProcessOptions{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Denormalize snapshots into web-ready JSON for the dashboard",
		RunE: func(c *cobra.Command, args []string) error {
			return runProcess(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputDir, "input", "i", "data/snapshots", "Directory holding the table snapshots")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "data/web", "Directory for the web-ready files")

	return cmd
}
