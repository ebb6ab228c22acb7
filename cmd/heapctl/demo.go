package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
)

func init() {
	rootCmd.AddCommand(newDemoCmd())
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through the allocator's basic scenarios",
		Long: `The demo command runs four short scenarios against a fresh heap and
dumps the free list after each step:

  A  two small blocks released again coalesce into one
  B  a request larger than the free space grows the heap once
  C  resizing a nil address reserves
  D  releasing a nil address changes nothing

Example:
  heapctl demo
  heapctl demo --backing mmap --page-size 4096`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDemo(ctx)
		},
	}
	return cmd
}

type demoStep struct {
	label string
	fn    func(a *alloc.Allocator) error
}

func runDemo(ctx context.Context) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}

	var x, y alloc.Addr
	steps := []demoStep{
		{"init", func(a *alloc.Allocator) error { return a.Init() }},
		{"A: x = reserve(10)", func(a *alloc.Allocator) (err error) { x, err = a.Reserve(10); return }},
		{"A: y = reserve(10)", func(a *alloc.Allocator) (err error) { y, err = a.Reserve(10); return }},
		{"A: release(x)", func(a *alloc.Allocator) error { return a.Release(x) }},
		{"A: release(y)", func(a *alloc.Allocator) error { return a.Release(y) }},
		{"B: x = reserve(2 pages)", func(a *alloc.Allocator) (err error) {
			before := a.Stats().GrowCalls
			x, err = a.Reserve(2 * s.pageSize())
			printInfo("    growth requests: %d\n", a.Stats().GrowCalls-before)
			return
		}},
		{"B: release(x)", func(a *alloc.Allocator) error { return a.Release(x) }},
		{"C: x = resize(nil, 5)", func(a *alloc.Allocator) (err error) { x, err = a.Resize(alloc.Nil, 5); return }},
		{"D: release(nil)", func(a *alloc.Allocator) error { return a.Release(alloc.Nil) }},
		{"C: release(x)", func(a *alloc.Allocator) error { return a.Release(x) }},
	}

	var runErr error
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := st.fn(s.a); err != nil {
			runErr = fmt.Errorf("%s: %w", st.label, err)
			break
		}
		if !quiet {
			if err := s.a.DumpFreeList(os.Stdout, st.label); err != nil {
				runErr = err
				break
			}
			printInfo("    total free: %d bytes\n", s.a.TotalFreeBytes())
		}
	}
	return errors.Join(runErr, s.close(ctx, runErr == nil))
}
