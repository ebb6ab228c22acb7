package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/memlib"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	backing  string
	heapFile string
	maxHeap  int
	pageSize int
	lang     string
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Drive and inspect the boundary-tag heap allocator",
	Long: `heapctl replays allocation traces against the heap allocator,
generates random traces, and walks through the allocator's basic
scenarios with free-list dumps. Every run can validate the complete heap
structure after each operation.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and allocator debug logs")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&backing, "backing", "slice", "Region backing: slice, mmap or file")
	rootCmd.PersistentFlags().
		StringVar(&heapFile, "heap-file", "", "Backing file for --backing=file")
	rootCmd.PersistentFlags().
		IntVar(&maxHeap, "max-heap", memlib.DefaultMaxHeap, "Region limit in bytes")
	rootCmd.PersistentFlags().
		IntVar(&pageSize, "page-size", 0, "Growth granularity in bytes (0 = OS page size)")
	rootCmd.PersistentFlags().
		StringVar(&lang, "lang", "en", "Language tag used to group numbers in reports")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// newLogger returns the logger handed to the allocator.
func newLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// reportLanguage parses --lang.
func reportLanguage() (language.Tag, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.Und, fmt.Errorf("invalid --lang %q: %w", lang, err)
	}
	return tag, nil
}

// session is an allocator plus the resources behind it.
type session struct {
	a       *alloc.Allocator
	tracker *dirty.Tracker // Non-nil for file backing
	page    int
}

func (s *session) pageSize() int { return s.page }

// openSession builds the provider selected by the global flags and an
// allocator over it.
func openSession(checkInvariants bool) (*session, error) {
	opts := &memlib.Options{MaxHeap: maxHeap, PageSize: pageSize}

	var (
		p   memlib.Provider
		s   = &session{}
		err error
	)
	switch backing {
	case "slice":
		p, err = memlib.NewSlice(opts)
	case "mmap":
		p, err = memlib.NewMmap(opts)
	case "file":
		if heapFile == "" {
			return nil, fmt.Errorf("--backing=file requires --heap-file")
		}
		var fp *memlib.FileProvider
		fp, err = memlib.NewFile(heapFile, opts)
		if err == nil {
			p = fp
			s.tracker = dirty.NewTracker(fp)
		}
	default:
		return nil, fmt.Errorf("unknown backing %q (want slice, mmap or file)", backing)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	s.page = p.PageSize()

	var dt alloc.DirtyTracker
	if s.tracker != nil {
		dt = s.tracker
	}
	s.a, err = alloc.New(p, dt, &alloc.Config{
		MinGrowPages:    1,
		CheckInvariants: checkInvariants,
		Logger:          newLogger(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.a.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize heap: %w", err)
	}
	printVerbose("Heap ready: backing=%s max=%d\n", backing, maxHeap)
	return s, nil
}

// close tears the heap down, flushing a file-backed heap first.
func (s *session) close(ctx context.Context, flush bool) error {
	if s.tracker != nil && flush {
		if err := s.tracker.Flush(ctx, dirty.FlushAuto); err != nil {
			_ = s.a.Teardown()
			return fmt.Errorf("failed to flush heap file: %w", err)
		}
	}
	return s.a.Teardown()
}
