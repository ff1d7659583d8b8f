// Package buftype defines the ABI-stable numeric buffer-type tags shared by
// the journal and the image tables, and by any out-of-process plugin that
// speaks the journal write ABI.
package buftype

import "fmt"

// Tag identifies one of the fourteen typed buffer classes a journal record
// or an image-table cell can belong to. The numeric values are part of the
// external plugin ABI and must never be renumbered.
type Tag uint8

const (
	BoolInput Tag = iota
	BoolOutput
	BoolMemory
	ByteInput
	ByteOutput
	IntInput
	IntOutput
	IntMemory
	DIntInput
	DIntOutput
	DIntMemory
	LIntInput
	LIntOutput
	LIntMemory

	count
)

// Class groups tags that share a cell width.
type Class int

const (
	ClassBool Class = iota
	ClassByte
	ClassInt
	ClassDInt
	ClassLInt
)

// Kind groups tags by the image-table bank they belong to.
type Kind int

const (
	Input Kind = iota
	Output
	Memory
)

type info struct {
	class Class
	kind  Kind
	name  string
}

var table = [count]info{
	BoolInput:  {ClassBool, Input, "bool_input"},
	BoolOutput: {ClassBool, Output, "bool_output"},
	BoolMemory: {ClassBool, Memory, "bool_memory"},
	ByteInput:  {ClassByte, Input, "byte_input"},
	ByteOutput: {ClassByte, Output, "byte_output"},
	IntInput:   {ClassInt, Input, "int_input"},
	IntOutput:  {ClassInt, Output, "int_output"},
	IntMemory:  {ClassInt, Memory, "int_memory"},
	DIntInput:  {ClassDInt, Input, "dint_input"},
	DIntOutput: {ClassDInt, Output, "dint_output"},
	DIntMemory: {ClassDInt, Memory, "dint_memory"},
	LIntInput:  {ClassLInt, Input, "lint_input"},
	LIntOutput: {ClassLInt, Output, "lint_output"},
	LIntMemory: {ClassLInt, Memory, "lint_memory"},
}

// Valid reports whether t is one of the fourteen defined tags.
func (t Tag) Valid() bool { return t < count }

// Class returns the cell-width class of t.
func (t Tag) Class() Class { return table[t].class }

// Kind returns the input/output/memory bank of t.
func (t Tag) Kind() Kind { return table[t].kind }

// String returns the ABI name of t, e.g. "int_memory".
func (t Tag) String() string {
	if !t.Valid() {
		return fmt.Sprintf("buftype.Tag(%d)", uint8(t))
	}
	return table[t].name
}

// ByName resolves an ABI name such as "dint_output" back to its Tag, as used
// by plugin JSON configuration (spec.md §6: "buffer-type names are the
// strings listed in §6's ABI table with underscores").
func ByName(name string) (Tag, bool) {
	for t, inf := range table {
		if inf.name == name {
			return Tag(t), true
		}
	}
	return 0, false
}

// InClass reports whether t belongs to class c.
func (t Tag) InClass(c Class) bool {
	return t.Valid() && table[t].class == c
}
