package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `# simple trace
a 0 512
a 1 128

r 0 640
f 1
  # indented comment
f 0
`
	tr, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"simple trace", "indented comment"}, tr.Comments)
	assert.Equal(t, []Op{
		{Kind: Reserve, ID: 0, Size: 512, Line: 2},
		{Kind: Reserve, ID: 1, Size: 128, Line: 3},
		{Kind: Resize, ID: 0, Size: 640, Line: 5},
		{Kind: Release, ID: 1, Line: 6},
		{Kind: Release, ID: 0, Line: 8},
	}, tr.Ops)
	assert.Equal(t, 2, tr.NumIDs())
}

func TestParse_MallocLabHeader(t *testing.T) {
	input := "20000\n2\n4\n1\na 0 2040\na 1 2040\nf 1\nf 0\n"
	tr, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tr.Ops, 4)
	assert.Equal(t, 5, tr.Ops[0].Line)
}

func TestParse_Latin1Comment(t *testing.T) {
	input := []byte("# caf\xe9\na 0 1\n")
	tr, err := Parse(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"café"}, tr.Comments)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown op", "x 1 2\n", "unknown operation"},
		{"long op", "alloc 1 2\n", "unknown operation"},
		{"missing size", "a 1\n", "takes 2 arguments"},
		{"extra release arg", "f 1 2\n", "takes 1 arguments"},
		{"bad id", "f one\n", "bad id"},
		{"negative id", "f -1\n", "bad id"},
		{"bad size", "a 1 big\n", "bad size"},
		{"negative size", "r 1 -4\n", "bad size"},
		{"number after ops", "a 0 1\n5\n", "unknown operation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.ErrorIs(t, err, ErrSyntax)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_ErrorLineNumber(t *testing.T) {
	_, err := Parse(strings.NewReader("# c\na 0 1\n\nq\n"))
	require.ErrorIs(t, err, ErrSyntax)
	assert.Contains(t, err.Error(), "line 4")
}

func TestWriteParse(t *testing.T) {
	orig := Generate(7, 300, 2000)
	orig.Comments = append(orig.Comments, "naïve")

	var buf bytes.Buffer
	require.NoError(t, orig.Write(&buf))

	got, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, orig.Comments, got.Comments)
	require.Len(t, got.Ops, len(orig.Ops))
	for i := range orig.Ops {
		want := orig.Ops[i]
		want.Line = got.Ops[i].Line
		assert.Equal(t, want, got.Ops[i])
	}
}

func TestWrite_UnencodableComment(t *testing.T) {
	tr := &Trace{Comments: []string{"snowman ☃"}}
	require.Error(t, tr.Write(&bytes.Buffer{}))
}

func TestGenerate(t *testing.T) {
	a := Generate(99, 1000, 4096)
	b := Generate(99, 1000, 4096)
	assert.Equal(t, a, b, "same seed, same trace")
	assert.NotEqual(t, a.Ops, Generate(100, 1000, 4096).Ops)

	live := make(map[int]bool)
	for i, op := range a.Ops {
		switch op.Kind {
		case Reserve:
			require.False(t, live[op.ID], "op %d reserves live id", i)
			live[op.ID] = true
		case Release:
			require.True(t, live[op.ID], "op %d releases dead id", i)
			delete(live, op.ID)
		case Resize:
			require.True(t, live[op.ID], "op %d resizes dead id", i)
		}
		require.LessOrEqual(t, op.Size, 4096)
		require.GreaterOrEqual(t, op.Size, 0)
	}
	assert.Empty(t, live, "every block is released at the end")
	assert.GreaterOrEqual(t, len(a.Ops), 1000)
}

func FuzzParse(f *testing.F) {
	f.Add("a 0 10\nf 0\n")
	f.Add("20000\n2\n4\n1\na 0 2040\nr 0 10\nf 0\n")
	f.Add("# only a comment\n")
	f.Add("a 1\n")
	f.Fuzz(func(t *testing.T, input string) {
		tr, err := Parse(strings.NewReader(input))
		if err != nil {
			return
		}
		for _, op := range tr.Ops {
			if op.ID < 0 || op.Size < 0 {
				t.Fatalf("parsed negative field: %+v", op)
			}
		}
		// Whatever parses must survive a write/parse cycle.
		var buf bytes.Buffer
		if err := tr.Write(&buf); err != nil {
			return
		}
		again, err := Parse(&buf)
		if err != nil {
			t.Fatalf("reparse failed: %v\n%s", err, buf.String())
		}
		if len(again.Ops) != len(tr.Ops) {
			t.Fatalf("op count changed: %d -> %d", len(tr.Ops), len(again.Ops))
		}
	})
}
