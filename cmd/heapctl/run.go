package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/trace"
)

var (
	runVerify bool
	runDump   bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runVerify, "verify", false, "Validate the whole heap after every operation")
	cmd.Flags().BoolVar(&runDump, "dump", false, "Dump the free list after the trace")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace>",
		Short: "Replay an allocation trace",
		Long: `The run command replays a trace file against a fresh heap. Every
payload is filled with a pattern derived from its id and checked before it
is released or moved, and payload ranges are checked for overlap.

Trace lines:
  a <id> <bytes>   reserve
  f <id>           release
  r <id> <bytes>   resize
  # comment

Example:
  heapctl run short1.rep
  heapctl run big.rep --verify --backing mmap
  heapctl run big.rep --backing file --heap-file /tmp/heap.bin --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), args)
		},
	}
	return cmd
}

// traceReport is the JSON form of a replay.
type traceReport struct {
	Trace       string  `json:"trace"`
	Backing     string  `json:"backing"`
	Ops         int     `json:"ops"`
	Reserves    int     `json:"reserves"`
	Releases    int     `json:"releases"`
	Resizes     int     `json:"resizes"`
	Moves       int     `json:"moves"`
	PeakBytes   uint64  `json:"peak_bytes"`
	HeapBytes   int64   `json:"heap_bytes"`
	FreeBytes   int     `json:"free_bytes"`
	GrowCalls   int     `json:"grow_calls"`
	Utilization float64 `json:"utilization"`
	Error       string  `json:"error,omitempty"`
}

func runTrace(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tracePath := args[0]
	tag, err := reportLanguage()
	if err != nil {
		return err
	}

	printVerbose("Reading trace: %s\n", tracePath)
	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	tr, err := trace.Parse(f)
	f.Close()
	if err != nil {
		return err
	}
	printVerbose("Parsed %d ops over %d ids\n", len(tr.Ops), tr.NumIDs())

	s, err := openSession(runVerify)
	if err != nil {
		return err
	}

	res, replayErr := trace.Replay(ctx, s.a, tr, trace.Options{Verify: runVerify, Logger: newLogger()})
	if runDump && replayErr == nil && !jsonOut {
		_ = s.a.DumpFreeList(os.Stdout, tracePath)
	}
	closeErr := s.close(ctx, replayErr == nil)

	if jsonOut {
		report := traceReport{
			Trace:       tracePath,
			Backing:     backing,
			Ops:         res.Ops,
			Reserves:    res.Reserves,
			Releases:    res.Releases,
			Resizes:     res.Resizes,
			Moves:       res.Moves,
			PeakBytes:   res.PeakBytes,
			HeapBytes:   res.HeapBytes,
			FreeBytes:   res.FreeBytes,
			GrowCalls:   res.GrowCalls,
			Utilization: res.Utilization(),
		}
		if replayErr != nil {
			report.Error = replayErr.Error()
		}
		if err := printJSON(report); err != nil {
			return err
		}
		return errors.Join(replayErr, closeErr)
	}

	if replayErr != nil {
		if trace.IsOutOfMemory(replayErr) {
			printInfo("Heap exhausted after %d ops (limit %d bytes)\n", res.Ops, maxHeap)
		}
		return errors.Join(replayErr, closeErr)
	}
	if !quiet {
		if err := res.Format(os.Stdout, tag); err != nil {
			return err
		}
	}
	return closeErr
}
