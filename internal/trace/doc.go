// Package trace reads, generates and replays allocation traces.
//
// A trace is line oriented:
//
//	# comment
//	a <id> <bytes>   reserve <bytes> and name the block <id>
//	f <id>           release block <id>
//	r <id> <bytes>   resize block <id> to <bytes>
//
// Traces in the classic malloc-lab layout, which start with four header
// numbers (suggested heap size, id count, op count, weight), are accepted
// too; the header is skipped.
//
// Replay drives an allocator through a trace while checking that payloads
// never overlap and that their contents survive every other operation.
package trace
