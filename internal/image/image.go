/*
Package image implements the PLC process image: a fixed-size bank of typed
cells for inputs, outputs, and memory, shared by the control program and
every running plugin.

Cell references are nullable: a nil slot means the compiled control program
has not mapped that location this run. Once glue populates a slot it must
never move for the lifetime of the program (spec.md §3), which is why the
backing slices are allocated once at construction and never reallocated.

All reads and writes by any party other than the owning control program's
glue step must hold the image mutex (Lock/Unlock) — the one exception is the
journal's emergency-flush path, which follows the documented
image-mutex-then-journal-mutex order (see package journal).
*/
package image

import (
	"sync"

	"github.com/plcrun/plcrun/internal/buftype"
)

// BitsPerByteBucket is the number of bit-addressable references packed into
// one bool-bank element, mirroring the runtime-args contract of spec.md §3.
const BitsPerByteBucket = 8

// Pointers is the bundle of image-table array pointers handed to the
// compiled control program's SetBufferPointers entry point (spec.md §4.1)
// and to plugins as runtimeargs.Args.Image. The slices are the runtime's
// own backing storage; a control program's glue step mutates the elements
// in place, it never replaces the slices themselves.
type Pointers struct {
	BoolInput, BoolOutput, BoolMemory    [][BitsPerByteBucket]*bool
	ByteInput, ByteOutput                []*byte
	IntInput, IntOutput, IntMemory       []*uint16
	DIntInput, DIntOutput, DIntMemory    []*uint32
	LIntInput, LIntOutput, LIntMemory    []*uint64
	Size                                 int
}

// Tables is the process image: the bank described by spec.md §3, protected
// by a single mutex shared by every reader and writer.
type Tables struct {
	mu  sync.Mutex
	ptr Pointers
}

// New allocates a process image of size n. All cell references start out
// unmapped (nil); the control program's glue step installs them.
func New(n int) *Tables {
	return &Tables{
		ptr: Pointers{
			BoolInput:  make([][BitsPerByteBucket]*bool, n),
			BoolOutput: make([][BitsPerByteBucket]*bool, n),
			BoolMemory: make([][BitsPerByteBucket]*bool, n),
			ByteInput:  make([]*byte, n),
			ByteOutput: make([]*byte, n),
			IntInput:   make([]*uint16, n),
			IntOutput:  make([]*uint16, n),
			IntMemory:  make([]*uint16, n),
			DIntInput:  make([]*uint32, n),
			DIntOutput: make([]*uint32, n),
			DIntMemory: make([]*uint32, n),
			LIntInput:  make([]*uint64, n),
			LIntOutput: make([]*uint64, n),
			LIntMemory: make([]*uint64, n),
			Size:       n,
		},
	}
}

// Size returns N, the compile-time buffer size of the image.
func (t *Tables) Size() int { return t.ptr.Size }

// Pointers returns the array-pointer bundle for handing to the control
// program's SetBufferPointers symbol and to plugins via runtimeargs. The returned
// value shares backing storage with t; it is not a copy of the cells.
func (t *Tables) Pointers() Pointers { return t.ptr }

// Lock acquires the image mutex. Callers must release it with Unlock.
// Lock/Unlock are handed to plugins as the TakeImage/GiveImage entries of
// runtimeargs.Args, matching spec.md §3's "image mutex and its take/give
// functions".
func (t *Tables) Lock() { t.mu.Lock() }

// Unlock releases the image mutex.
func (t *Tables) Unlock() { t.mu.Unlock() }

// BoolCell returns the nullable bit reference for tag at (index, bit), or
// nil if index/bit are out of range or tag is not a bool-class tag. Callers
// must hold the image mutex unless tag.Kind() == buftype.Input and the
// caller is the control program itself reading under its own run() call.
func (t *Tables) BoolCell(tag buftype.Tag, index, bit int) *bool {
	if bit < 0 || bit >= BitsPerByteBucket {
		return nil
	}
	bank := t.boolBank(tag)
	if bank == nil || index < 0 || index >= len(bank) {
		return nil
	}
	return bank[index][bit]
}

// SetBoolCell installs (or clears, with ref == nil) the bit reference for
// tag at (index, bit). Used by the control program's glue step.
func (t *Tables) SetBoolCell(tag buftype.Tag, index, bit int, ref *bool) {
	if bit < 0 || bit >= BitsPerByteBucket {
		return
	}
	bank := t.boolBank(tag)
	if bank == nil || index < 0 || index >= len(bank) {
		return
	}
	bank[index][bit] = ref
}

func (t *Tables) boolBank(tag buftype.Tag) [][BitsPerByteBucket]*bool {
	switch tag {
	case buftype.BoolInput:
		return t.ptr.BoolInput
	case buftype.BoolOutput:
		return t.ptr.BoolOutput
	case buftype.BoolMemory:
		return t.ptr.BoolMemory
	default:
		return nil
	}
}

// ByteCell returns the nullable byte reference for tag at index.
func (t *Tables) ByteCell(tag buftype.Tag, index int) *byte {
	bank := t.byteBank(tag)
	if bank == nil || index < 0 || index >= len(bank) {
		return nil
	}
	return bank[index]
}

func (t *Tables) byteBank(tag buftype.Tag) []*byte {
	switch tag {
	case buftype.ByteInput:
		return t.ptr.ByteInput
	case buftype.ByteOutput:
		return t.ptr.ByteOutput
	default:
		return nil
	}
}

// WordCell returns the nullable 16-bit reference for tag at index.
func (t *Tables) WordCell(tag buftype.Tag, index int) *uint16 {
	bank := t.wordBank(tag)
	if bank == nil || index < 0 || index >= len(bank) {
		return nil
	}
	return bank[index]
}

func (t *Tables) wordBank(tag buftype.Tag) []*uint16 {
	switch tag {
	case buftype.IntInput:
		return t.ptr.IntInput
	case buftype.IntOutput:
		return t.ptr.IntOutput
	case buftype.IntMemory:
		return t.ptr.IntMemory
	default:
		return nil
	}
}

// DWordCell returns the nullable 32-bit reference for tag at index.
func (t *Tables) DWordCell(tag buftype.Tag, index int) *uint32 {
	bank := t.dwordBank(tag)
	if bank == nil || index < 0 || index >= len(bank) {
		return nil
	}
	return bank[index]
}

func (t *Tables) dwordBank(tag buftype.Tag) []*uint32 {
	switch tag {
	case buftype.DIntInput:
		return t.ptr.DIntInput
	case buftype.DIntOutput:
		return t.ptr.DIntOutput
	case buftype.DIntMemory:
		return t.ptr.DIntMemory
	default:
		return nil
	}
}

// LWordCell returns the nullable 64-bit reference for tag at index.
func (t *Tables) LWordCell(tag buftype.Tag, index int) *uint64 {
	bank := t.lwordBank(tag)
	if bank == nil || index < 0 || index >= len(bank) {
		return nil
	}
	return bank[index]
}

func (t *Tables) lwordBank(tag buftype.Tag) []*uint64 {
	switch tag {
	case buftype.LIntInput:
		return t.ptr.LIntInput
	case buftype.LIntOutput:
		return t.ptr.LIntOutput
	case buftype.LIntMemory:
		return t.ptr.LIntMemory
	default:
		return nil
	}
}

// WriteLowBits writes the low-order bits of value appropriate to tag's
// width into the cell at (index, bit), if that cell is mapped. It is a
// no-op if the cell is unmapped, index is out of range, or tag is invalid —
// it never returns an error, matching the journal's apply semantics
// (spec.md §4.2: "if the cell is unmapped, application is a no-op").
// Callers must hold the image mutex.
func (t *Tables) WriteLowBits(tag buftype.Tag, index int, bit uint8, value uint64) {
	switch tag.Class() {
	case buftype.ClassBool:
		if ref := t.BoolCell(tag, index, int(bit)); ref != nil {
			*ref = value&1 != 0
		}
	case buftype.ClassByte:
		if ref := t.ByteCell(tag, index); ref != nil {
			*ref = byte(value)
		}
	case buftype.ClassInt:
		if ref := t.WordCell(tag, index); ref != nil {
			*ref = uint16(value)
		}
	case buftype.ClassDInt:
		if ref := t.DWordCell(tag, index); ref != nil {
			*ref = uint32(value)
		}
	case buftype.ClassLInt:
		if ref := t.LWordCell(tag, index); ref != nil {
			*ref = value
		}
	}
}

// ReadBits reads the current value of the cell at (index, bit) for tag,
// zero-extended to 64 bits, and reports whether the cell is mapped. Callers
// must hold the image mutex.
func (t *Tables) ReadBits(tag buftype.Tag, index int, bit uint8) (value uint64, mapped bool) {
	switch tag.Class() {
	case buftype.ClassBool:
		if ref := t.BoolCell(tag, index, int(bit)); ref != nil {
			if *ref {
				return 1, true
			}
			return 0, true
		}
	case buftype.ClassByte:
		if ref := t.ByteCell(tag, index); ref != nil {
			return uint64(*ref), true
		}
	case buftype.ClassInt:
		if ref := t.WordCell(tag, index); ref != nil {
			return uint64(*ref), true
		}
	case buftype.ClassDInt:
		if ref := t.DWordCell(tag, index); ref != nil {
			return uint64(*ref), true
		}
	case buftype.ClassLInt:
		if ref := t.LWordCell(tag, index); ref != nil {
			return uint64(*ref), true
		}
	}
	return 0, false
}
