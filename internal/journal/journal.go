/*
Package journal linearises asynchronous plugin writes into the scan cycle.

Every write a plugin makes is appended to a bounded, ordered log instead of
touching the image tables directly. Once per tick, under the image mutex,
ApplyAndClear walks the log in sequence order and mutates the image tables;
later writes to the same cell overwrite earlier ones ("last writer wins").

Lock order. The journal enforces a single invariant (spec.md §4.2, §5):

	image mutex -> journal mutex

The journal mutex is never held while acquiring the image mutex, with one
documented exception: emergencyFlushLocked, triggered when a write arrives and the
journal is already at capacity. It releases the journal mutex, takes the
image mutex, re-takes the journal mutex, applies and clears, releases the
image mutex, and returns still holding the journal mutex for the caller's
pending append. This is the only legitimate lock-order violation in the
system (spec.md §9) and it is confined to this one method.
*/
package journal

import (
	"sync"

	"github.com/plcrun/plcrun/internal/buftype"
	"github.com/plcrun/plcrun/internal/image"
	"github.com/plcrun/plcrun/internal/plcerr"
)

var (
	errInvalidTag     = plcerr.New(plcerr.InvalidArgument, "buffer type does not match write width")
	errInvalidBit     = plcerr.New(plcerr.InvalidArgument, "bit index out of range 0..7")
	errNotInitialized = plcerr.New(plcerr.InvalidArgument, "journal not initialized")
)

// Capacity is the fixed number of records the journal holds before an
// emergency flush is triggered. spec.md §3 requires capacity >= 1024.
const Capacity = 1024

// noBit marks a record that carries no bit index (everything but bool
// writes), matching the ABI sentinel 0xFF documented in spec.md §3.
const noBit uint8 = 0xFF

// record is one pending write.
type record struct {
	sequence uint32
	tag      buftype.Tag
	index    uint16
	bit      uint8
	value    uint64
}

// Journal is the bounded ordered write log described by spec.md §4.2.
type Journal struct {
	mu          sync.Mutex
	entries     [Capacity]record
	count       int
	nextSeq     uint32
	initialized bool
	img         *image.Tables
}

// New constructs an uninitialized Journal. Call Init before any writer uses
// it.
func New() *Journal {
	return &Journal{}
}

// Init binds the journal to the image tables it will apply writes to. It
// must be called once, after the image tables are constructed and before
// any plugin attempts a write.
func (j *Journal) Init(img *image.Tables) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.img = img
	j.count = 0
	j.nextSeq = 0
	j.initialized = true
}

// Cleanup tears the journal down, as called during executive shutdown.
func (j *Journal) Cleanup() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.initialized = false
	j.count = 0
	j.nextSeq = 0
	j.img = nil
}

// IsInitialized reports whether Init has been called and Cleanup has not.
func (j *Journal) IsInitialized() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.initialized
}

// PendingCount returns the number of records waiting to be applied.
func (j *Journal) PendingCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// GetSequence returns the next sequence number that will be assigned.
func (j *Journal) GetSequence() uint32 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.nextSeq
}

// addLocked appends a record, triggering an emergency flush first if the
// journal is at capacity. Must be called with j.mu held; returns with j.mu
// still held.
func (j *Journal) addLocked() *record {
	if j.count >= Capacity {
		j.emergencyFlushLocked()
	}
	e := &j.entries[j.count]
	e.sequence = j.nextSeq
	j.nextSeq++
	j.count++
	return e
}

// emergencyFlushLocked applies and clears the journal when it is full,
// following the documented release-reacquire lock order. Must be called
// with j.mu held; returns with j.mu still held.
func (j *Journal) emergencyFlushLocked() {
	img := j.img
	j.mu.Unlock()

	img.Lock()
	j.mu.Lock()

	j.applyLocked()

	img.Unlock()
}

// applyLocked applies every pending record to the image tables in sequence
// order and clears the journal. Caller must hold both j.mu and the image
// mutex.
func (j *Journal) applyLocked() {
	for i := 0; i < j.count; i++ {
		e := &j.entries[i]
		if int(e.index) >= j.img.Size() {
			continue
		}
		j.img.WriteLowBits(e.tag, int(e.index), e.bit, e.value)
	}
	j.count = 0
	j.nextSeq = 0
}

// ApplyAndClear applies all pending records to the image tables in
// submission order and resets the journal (spec.md §4.2, invariant J1). The
// caller must already hold the image mutex.
func (j *Journal) ApplyAndClear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.initialized {
		return
	}
	j.applyLocked()
}

// WriteBool appends a bool write for tag at (index, bit). tag must be one
// of BoolInput/BoolOutput/BoolMemory and bit must be in [0,7].
func (j *Journal) WriteBool(tag buftype.Tag, index uint16, bit uint8, value bool) error {
	if !tag.InClass(buftype.ClassBool) {
		return errInvalidTag
	}
	if bit > 7 {
		return errInvalidBit
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.initialized {
		return errNotInitialized
	}

	e := j.addLocked()
	e.tag = tag
	e.index = index
	e.bit = bit
	if value {
		e.value = 1
	} else {
		e.value = 0
	}
	return nil
}

// WriteByte appends a byte write. tag must be ByteInput or ByteOutput.
func (j *Journal) WriteByte(tag buftype.Tag, index uint16, value uint8) error {
	return j.writeScalar(tag, buftype.ClassByte, index, uint64(value))
}

// WriteInt appends a 16-bit write. tag must be an *Int* variant.
func (j *Journal) WriteInt(tag buftype.Tag, index uint16, value uint16) error {
	return j.writeScalar(tag, buftype.ClassInt, index, uint64(value))
}

// WriteDInt appends a 32-bit write. tag must be a *DInt* variant.
func (j *Journal) WriteDInt(tag buftype.Tag, index uint16, value uint32) error {
	return j.writeScalar(tag, buftype.ClassDInt, index, uint64(value))
}

// WriteLInt appends a 64-bit write. tag must be a *LInt* variant.
func (j *Journal) WriteLInt(tag buftype.Tag, index uint16, value uint64) error {
	return j.writeScalar(tag, buftype.ClassLInt, index, value)
}

func (j *Journal) writeScalar(tag buftype.Tag, class buftype.Class, index uint16, value uint64) error {
	if !tag.InClass(class) {
		return errInvalidTag
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.initialized {
		return errNotInitialized
	}

	e := j.addLocked()
	e.tag = tag
	e.index = index
	e.bit = noBit
	e.value = value
	return nil
}
