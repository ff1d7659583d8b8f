/*
Endian codec for the S7 wire format (spec.md §4.5): all multi-byte
integers are big-endian on the wire; bool-bank elements occupy one byte
per index with bit 0 at the LSB. All wire I/O goes through these helpers
(spec.md §9's "endian swapping helpers" design note), built on
encoding/binary rather than hand-rolled shifts.
*/
package s7comm

import "encoding/binary"

func putU16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func getU16(b []byte) uint16    { return binary.BigEndian.Uint16(b) }

func putU32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func getU32(b []byte) uint32    { return binary.BigEndian.Uint32(b) }

func putU64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }
func getU64(b []byte) uint64    { return binary.BigEndian.Uint64(b) }

// boolByte packs 8 bit references into one S7-wire byte, bit 0 at the LSB.
func boolByte(bits [8]bool) byte {
	var b byte
	for i, v := range bits {
		if v {
			b |= 1 << uint(i)
		}
	}
	return b
}

// unpackBoolByte unpacks one S7-wire byte into 8 bit values, bit 0 at the
// LSB.
func unpackBoolByte(b byte) [8]bool {
	var bits [8]bool
	for i := range bits {
		bits[i] = b&(1<<uint(i)) != 0
	}
	return bits
}
