package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/trace"
)

var (
	genSeed    int64
	genOps     int
	genMaxSize int
	genOutput  string
)

func init() {
	cmd := newGenCmd()
	cmd.Flags().Int64Var(&genSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&genOps, "ops", 1000, "Number of random operations")
	cmd.Flags().IntVar(&genMaxSize, "max-size", 4096, "Largest request size in bytes")
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random allocation trace",
		Long: `The gen command writes a random, well-formed trace: every release and
resize names a live id, and every block still live at the end is released.
The same seed always produces the same trace.

Example:
  heapctl gen --seed 7 --ops 5000 -o random.rep
  heapctl gen --max-size 65536 | heapctl run /dev/stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen()
		},
	}
	return cmd
}

func runGen() error {
	if genOps < 0 {
		return fmt.Errorf("--ops must not be negative, got %d", genOps)
	}
	if genMaxSize < 0 {
		return fmt.Errorf("--max-size must not be negative, got %d", genMaxSize)
	}

	tr := trace.Generate(genSeed, genOps, genMaxSize)

	if genOutput == "" {
		return tr.Write(os.Stdout)
	}
	f, err := os.Create(genOutput)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := tr.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write trace: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	printVerbose("Wrote %d ops to %s\n", len(tr.Ops), genOutput)
	return nil
}
