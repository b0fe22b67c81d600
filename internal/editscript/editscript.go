// Package editscript is the vocabulary shared by the reconciler and its
// alignment collaborators: matched pairs, the target view of a child
// sequence, and the offset-indexed instructions that realize it.
package editscript

import "github.com/dgallion1/outlinesync/internal/tree"

// Pair is a previous child and the target child judged to correspond to it.
type Pair struct {
	Prev tree.Node
	Next tree.Node
}

// Slot is one position of the final child sequence. Prev >= 0 keeps the
// previous child at that original offset; Prev < 0 inserts Next.
type Slot struct {
	Prev int
	Next tree.Node
}

// Kept reports whether the slot reuses a previous child.
func (s Slot) Kept() bool { return s.Prev >= 0 }

// TargetView describes the final child sequence in order.
type TargetView []Slot

// Op is an instruction kind.
type Op int

const (
	// OpInsert places Node before the child at At.
	OpInsert Op = iota + 1
	// OpSwapIn moves the child at From to just before the child at At.
	OpSwapIn
	// OpRemove detaches the child at At.
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpSwapIn:
		return "swap_in"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Instruction is one edit against the live child sequence. Offsets are valid
// only after every earlier instruction of the same script has been applied.
type Instruction struct {
	Op   Op
	At   int
	From int
	Node tree.Node
}
