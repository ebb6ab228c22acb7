package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	// CommentPrefix starts a comment line.
	CommentPrefix = "#"

	// headerLines is the number of leading numbers in a malloc-lab trace.
	headerLines = 4

	scannerInitialBufferSize = 64 * 1024
	scannerMaxLineSize       = 1 << 20
)

// Kind is the operation of one trace line.
type Kind byte

const (
	Reserve Kind = 'a'
	Release Kind = 'f'
	Resize  Kind = 'r'
)

func (k Kind) String() string {
	switch k {
	case Reserve:
		return "reserve"
	case Release:
		return "release"
	case Resize:
		return "resize"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Op is one trace operation.
type Op struct {
	Kind Kind
	ID   int
	Size int // Unused for Release
	Line int // 1-based source line, 0 for generated ops
}

func (o Op) String() string {
	if o.Kind == Release {
		return fmt.Sprintf("%c %d", byte(o.Kind), o.ID)
	}
	return fmt.Sprintf("%c %d %d", byte(o.Kind), o.ID, o.Size)
}

// Trace is a parsed trace.
type Trace struct {
	Comments []string // Comment text, prefix and surrounding space removed
	Ops      []Op
}

// NumIDs returns the number of distinct ids the trace uses.
func (t *Trace) NumIDs() int {
	seen := make(map[int]struct{})
	for _, op := range t.Ops {
		seen[op.ID] = struct{}{}
	}
	return len(seen)
}

// Parse reads a trace. Input is decoded as Latin-1, so traces written by
// older tools with non-ASCII comments come through as UTF-8.
func Parse(r io.Reader) (*Trace, error) {
	scanner := bufio.NewScanner(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	buf := make([]byte, 0, scannerInitialBufferSize)
	scanner.Buffer(buf, scannerMaxLineSize)

	t := &Trace{}
	lineNo := 0
	header := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, CommentPrefix) {
			t.Comments = append(t.Comments, strings.TrimSpace(strings.TrimPrefix(line, CommentPrefix)))
			continue
		}

		// Malloc-lab header: bare numbers before the first op.
		if len(t.Ops) == 0 && header < headerLines && isNumber(line) {
			header++
			continue
		}

		op, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, lineNo, err)
		}
		op.Line = lineNo
		t.Ops = append(t.Ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: read: %w", err)
	}
	return t, nil
}

func parseLine(line string) (Op, error) {
	fields := strings.Fields(line)
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("unknown operation %q", fields[0])
	}

	op := Op{Kind: Kind(fields[0][0])}
	want := 3
	switch op.Kind {
	case Reserve, Resize:
	case Release:
		want = 2
	default:
		return Op{}, fmt.Errorf("unknown operation %q", fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%s takes %d arguments, got %d", op.Kind, want-1, len(fields)-1)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 {
		return Op{}, fmt.Errorf("bad id %q", fields[1])
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("bad size %q", fields[2])
		}
		op.Size = size
	}
	return op, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Write emits the trace in the form Parse reads. Comments are encoded as
// Latin-1; a comment with characters outside it fails the write.
func (t *Trace) Write(w io.Writer) error {
	enc := transform.NewWriter(w, charmap.ISO8859_1.NewEncoder())
	bw := bufio.NewWriter(enc)
	for _, c := range t.Comments {
		if _, err := fmt.Fprintf(bw, "%s %s\n", CommentPrefix, c); err != nil {
			return err
		}
	}
	for _, op := range t.Ops {
		if _, err := fmt.Fprintln(bw, op.String()); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}
