package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/verify"
)

// ctxCheckInterval is how many ops run between context checks.
const ctxCheckInterval = 256

// Options configures Replay.
type Options struct {
	// Verify runs the allocator's full invariant check after every op.
	Verify bool

	// Logger receives one debug record per op. Nil discards.
	Logger *slog.Logger
}

// Result summarizes a replay.
type Result struct {
	Ops       int
	Reserves  int
	Releases  int
	Resizes   int
	Moves     int // Resizes that returned a new address
	PeakBytes uint64
	HeapBytes int64
	FreeBytes int
	GrowCalls int
	LiveIDs   int // Ids still live when the trace ended
}

// Utilization returns peak live payload bytes over final heap size.
func (r *Result) Utilization() float64 {
	if r.HeapBytes == 0 {
		return 0
	}
	return float64(r.PeakBytes) / float64(r.HeapBytes)
}

// Format writes a human-readable summary with numbers grouped for tag.
func (r *Result) Format(w io.Writer, tag language.Tag) error {
	p := message.NewPrinter(tag)
	_, err := p.Fprintf(w,
		"ops:         %d (reserve %d, release %d, resize %d, moved %d)\n"+
			"peak live:   %d bytes\n"+
			"heap:        %d bytes (%d growth requests)\n"+
			"free:        %d bytes\n"+
			"utilization: %.1f%%\n",
		r.Ops, r.Reserves, r.Releases, r.Resizes, r.Moves,
		r.PeakBytes,
		r.HeapBytes, r.GrowCalls,
		r.FreeBytes,
		r.Utilization()*100,
	)
	return err
}

type liveBlock struct {
	addr alloc.Addr
	size int
}

// Replay runs every op of t against a, filling each payload with an
// id-derived pattern and checking it before the block is released or
// moved. Payload ranges are tracked in a verify.Shadow, so an allocator
// handing out overlapping memory fails the replay.
func Replay(ctx context.Context, a *alloc.Allocator, t *Trace, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	shadow := verify.NewShadow()
	live := make(map[int]liveBlock)
	res := &Result{}
	growsBefore := a.Stats().GrowCalls

	for i, op := range t.Ops {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		if err := step(a, shadow, live, res, op); err != nil {
			return res, opError(op, err)
		}
		if opts.Verify {
			if err := a.Check(); err != nil {
				return res, opError(op, err)
			}
		}
		res.Ops++
		log.Debug("op", "op", op.String(), "free", a.TotalFreeBytes())
	}

	stats := a.Stats()
	res.PeakBytes = shadow.PeakBytes()
	res.HeapBytes = stats.HeapBytes
	res.FreeBytes = a.TotalFreeBytes()
	res.GrowCalls = stats.GrowCalls - growsBefore
	res.LiveIDs = len(live)
	return res, nil
}

func step(a *alloc.Allocator, shadow *verify.Shadow, live map[int]liveBlock, res *Result, op Op) error {
	switch op.Kind {
	case Reserve:
		if _, ok := live[op.ID]; ok {
			return ErrDuplicateID
		}
		addr, err := a.Reserve(op.Size)
		if err != nil {
			return err
		}
		if err := shadow.Insert(uint64(addr), uint64(op.Size)); err != nil {
			return err
		}
		if err := fillPattern(a, addr, op.ID, 0, op.Size); err != nil {
			return err
		}
		live[op.ID] = liveBlock{addr: addr, size: op.Size}
		res.Reserves++

	case Release:
		b, ok := live[op.ID]
		if !ok {
			return ErrUnknownID
		}
		if err := checkPattern(a, b.addr, op.ID, b.size); err != nil {
			return err
		}
		if _, err := shadow.Remove(uint64(b.addr)); err != nil {
			return err
		}
		if err := a.Release(b.addr); err != nil {
			return err
		}
		delete(live, op.ID)
		res.Releases++

	case Resize:
		b, ok := live[op.ID]
		if !ok {
			return ErrUnknownID
		}
		if err := checkPattern(a, b.addr, op.ID, b.size); err != nil {
			return err
		}
		addr, err := a.Resize(b.addr, op.Size)
		if err != nil {
			return err
		}
		if err := checkPattern(a, addr, op.ID, min(b.size, op.Size)); err != nil {
			return fmt.Errorf("after resize: %w", err)
		}
		if _, err := shadow.Remove(uint64(b.addr)); err != nil {
			return err
		}
		if err := shadow.Insert(uint64(addr), uint64(op.Size)); err != nil {
			return err
		}
		if op.Size > b.size {
			if err := fillPattern(a, addr, op.ID, b.size, op.Size); err != nil {
				return err
			}
		}
		if addr != b.addr {
			res.Moves++
		}
		live[op.ID] = liveBlock{addr: addr, size: op.Size}
		res.Resizes++

	default:
		return fmt.Errorf("%w: unknown operation %q", ErrSyntax, byte(op.Kind))
	}
	return nil
}

func opError(op Op, err error) error {
	if op.Line > 0 {
		return fmt.Errorf("trace: line %d: %s: %w", op.Line, op, err)
	}
	return fmt.Errorf("trace: %s: %w", op, err)
}

// patternByte is the expected payload byte i of block id.
func patternByte(id, i int) byte {
	return byte(id*131 + i*7 + 1)
}

func fillPattern(a *alloc.Allocator, addr alloc.Addr, id, from, to int) error {
	p, err := a.Payload(addr)
	if err != nil {
		return err
	}
	if len(p) < to {
		return fmt.Errorf("payload of %s is %d bytes, need %d", addr, len(p), to)
	}
	for i := from; i < to; i++ {
		p[i] = patternByte(id, i)
	}
	return nil
}

func checkPattern(a *alloc.Allocator, addr alloc.Addr, id, n int) error {
	p, err := a.Payload(addr)
	if err != nil {
		return err
	}
	if len(p) < n {
		return fmt.Errorf("payload of %s is %d bytes, need %d", addr, len(p), n)
	}
	for i := range n {
		if p[i] != patternByte(id, i) {
			return fmt.Errorf("%w: id %d byte %d at %s: got 0x%02X want 0x%02X",
				ErrDataMismatch, id, i, addr, p[i], patternByte(id, i))
		}
	}
	return nil
}

// IsOutOfMemory reports whether a replay stopped because the heap was full.
func IsOutOfMemory(err error) bool {
	return errors.Is(err, alloc.ErrOutOfMemory)
}
