/*
Copyright (C) 2023  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package carbon

// Marker is the single-byte tag at the front of every field, container
// begin/end, and column header. Zero is reserved for padding.
type Marker byte

// Presence markers: value encoded entirely in the marker, no payload.
const (
	MNull  Marker = 0x01
	MTrue  Marker = 0x02
	MFalse Marker = 0x03
)

// Scalar number markers; each is followed by its fixed-width native
// little-endian payload. The gap at 0x18 keeps FLOAT at the same offset
// as the wire format's original assignment ("U8=0x10 … FLOAT=0x19").
const (
	MU8    Marker = 0x10
	MU16   Marker = 0x11
	MU32   Marker = 0x12
	MU64   Marker = 0x13
	MI8    Marker = 0x14
	MI16   Marker = 0x15
	MI32   Marker = 0x16
	MI64   Marker = 0x17
	MFloat Marker = 0x19
)

// Variable-length field markers.
const (
	MString       Marker = 0x20
	MBinary       Marker = 0x21
	MBinaryCustom Marker = 0x22
)

// Array container markers. Derivation occupies the low two bits.
const (
	MArrayBegin Marker = 0x30 // + derivation(0..3)
	MArrayEnd   Marker = 0x3F
)

// Object container markers. Derivation occupies the low two bits.
const (
	MObjectBegin Marker = 0x40 // + derivation(0..3)
	MObjectEnd   Marker = 0x4F
)

// Column container markers: base + scalarIndex*4 + derivation.
const (
	columnBase Marker = 0x50
)

// ScalarType enumerates the ten scalar types a column can carry.
type ScalarType uint8

const (
	ScalarU8 ScalarType = iota
	ScalarU16
	ScalarU32
	ScalarU64
	ScalarI8
	ScalarI16
	ScalarI32
	ScalarI64
	ScalarFloat
	ScalarBoolean
)

func (t ScalarType) String() string {
	names := [...]string{"u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64", "float", "boolean"}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// Derivation is the multiset/set × sorted/unsorted subtype of a container.
type Derivation uint8

const (
	UnsortedMultiset Derivation = iota // array: unsorted, duplicates allowed; object: multimap
	SortedMultiset                     // array: sorted, duplicates allowed; object: sorted multimap
	UnsortedSet                        // array: unsorted, unique; object: map (unique keys)
	SortedSet                          // array: sorted, unique; object: sorted map
)

// Boolean column cell markers — a single bit cannot represent null, so
// boolean columns spend a whole byte per cell using these three markers.
const (
	BoolCellTrue  byte = byte(MTrue)
	BoolCellFalse byte = byte(MFalse)
	BoolCellNull  byte = 0x04
)

// ColumnMarker returns the container marker for a column of the given
// scalar type and derivation.
func ColumnMarker(t ScalarType, d Derivation) Marker {
	return columnBase + Marker(uint8(t)*4+uint8(d))
}

// columnScalarAndDerivation decodes a column marker back into its scalar
// type and derivation; ok is false if m is not a column marker.
func columnScalarAndDerivation(m Marker) (ScalarType, Derivation, bool) {
	if m < columnBase {
		return 0, 0, false
	}
	offset := uint8(m - columnBase)
	if offset >= 40 {
		return 0, 0, false
	}
	return ScalarType(offset / 4), Derivation(offset % 4), true
}

// ArrayDerivation returns the derivation bits of an array begin marker.
func ArrayDerivation(m Marker) Derivation {
	return Derivation(uint8(m-MArrayBegin) & 0x3)
}

// ObjectDerivation returns the derivation bits of an object begin marker.
func ObjectDerivation(m Marker) Derivation {
	return Derivation(uint8(m-MObjectBegin) & 0x3)
}

// ArrayBeginMarker builds an array begin marker with the given derivation.
func ArrayBeginMarker(d Derivation) Marker { return MArrayBegin + Marker(d) }

// ObjectBeginMarker builds an object begin marker with the given derivation.
func ObjectBeginMarker(d Derivation) Marker { return MObjectBegin + Marker(d) }

// IsNull, IsTrue, IsFalse test presence markers.
func IsNull(m Marker) bool  { return m == MNull }
func IsTrue(m Marker) bool  { return m == MTrue }
func IsFalse(m Marker) bool { return m == MFalse }

// IsArrayOrSubtype reports whether m is an array-begin marker of any derivation.
func IsArrayOrSubtype(m Marker) bool {
	return m >= MArrayBegin && m < MArrayBegin+4
}

// IsObjectOrSubtype reports whether m is an object-begin marker of any derivation.
func IsObjectOrSubtype(m Marker) bool {
	return m >= MObjectBegin && m < MObjectBegin+4
}

// IsColumnOrSubtype reports whether m is a column-begin marker of any type/derivation.
func IsColumnOrSubtype(m Marker) bool {
	_, _, ok := columnScalarAndDerivation(m)
	return ok
}

// IsContainer reports whether m opens any of the three container kinds.
func IsContainer(m Marker) bool {
	return IsArrayOrSubtype(m) || IsObjectOrSubtype(m) || IsColumnOrSubtype(m)
}

// markerInfo is a table-driven dispatch row: a static array indexed by
// marker byte collapses the many switch(marker) sites into one lookup,
// forking only on Kind thereafter.
type markerKind uint8

const (
	kindPresence markerKind = iota
	kindNumber
	kindString
	kindBinary
	kindBinaryCustom
	kindArray
	kindObject
	kindColumn
	kindArrayEnd
	kindObjectEnd
	kindInvalid
)

type markerInfo struct {
	kind      markerKind
	valueSize uint // fixed payload size in bytes; 0 for variable/none
}

var markerTable [256]markerInfo

func init() {
	for i := range markerTable {
		markerTable[i] = markerInfo{kind: kindInvalid}
	}
	markerTable[MNull] = markerInfo{kindPresence, 0}
	markerTable[MTrue] = markerInfo{kindPresence, 0}
	markerTable[MFalse] = markerInfo{kindPresence, 0}
	markerTable[MU8] = markerInfo{kindNumber, 1}
	markerTable[MU16] = markerInfo{kindNumber, 2}
	markerTable[MU32] = markerInfo{kindNumber, 4}
	markerTable[MU64] = markerInfo{kindNumber, 8}
	markerTable[MI8] = markerInfo{kindNumber, 1}
	markerTable[MI16] = markerInfo{kindNumber, 2}
	markerTable[MI32] = markerInfo{kindNumber, 4}
	markerTable[MI64] = markerInfo{kindNumber, 8}
	markerTable[MFloat] = markerInfo{kindNumber, 8}
	markerTable[MString] = markerInfo{kindString, 0}
	markerTable[MBinary] = markerInfo{kindBinary, 0}
	markerTable[MBinaryCustom] = markerInfo{kindBinaryCustom, 0}
	for d := Derivation(0); d < 4; d++ {
		markerTable[MArrayBegin+Marker(d)] = markerInfo{kindArray, 0}
		markerTable[MObjectBegin+Marker(d)] = markerInfo{kindObject, 0}
	}
	markerTable[MArrayEnd] = markerInfo{kindArrayEnd, 0}
	markerTable[MObjectEnd] = markerInfo{kindObjectEnd, 0}
	for t := ScalarType(0); t < 10; t++ {
		for d := Derivation(0); d < 4; d++ {
			markerTable[ColumnMarker(t, d)] = markerInfo{kindColumn, 0}
		}
	}
}

// ValueSize returns the number of payload bytes that follow a marker of
// this type, excluding the marker byte itself. 0 for NULL/TRUE/FALSE and
// for variable-length/container markers (those encode their own length).
func ValueSize(m Marker) uint {
	return markerTable[m].valueSize
}

// scalarValueSize returns the fixed payload width of a scalar type, used by
// column iterators (whose cells carry no per-value marker byte).
func scalarValueSize(t ScalarType) uint {
	switch t {
	case ScalarU8, ScalarI8:
		return 1
	case ScalarU16, ScalarI16:
		return 2
	case ScalarU32, ScalarI32:
		return 4
	case ScalarU64, ScalarI64, ScalarFloat:
		return 8
	case ScalarBoolean:
		return 1
	default:
		return 0
	}
}

// scalarSentinelNull returns the sentinel bit pattern that marks a null
// cell in a numeric column, avoiding an auxiliary bitmap.
func scalarSentinelNull(t ScalarType) uint64 {
	switch t {
	case ScalarU8:
		return 0xFF
	case ScalarU16:
		return 0xFFFF
	case ScalarU32:
		return 0xFFFFFFFF
	case ScalarU64:
		return 0xFFFFFFFFFFFFFFFF
	case ScalarI8:
		return uint64(uint8(0x80)) // minimum i8, sign-extended within the byte
	case ScalarI16:
		return uint64(uint16(0x8000))
	case ScalarI32:
		return uint64(uint32(0x80000000))
	case ScalarI64:
		return 0x8000000000000000
	case ScalarFloat:
		return 0xFFF8000000000001 // a quiet NaN payload reserved for null
	default:
		return 0
	}
}

// ColumnElementType maps a column's element to the scalar marker it would
// carry if stored standalone.
func ColumnElementType(col Marker, isNull, isTrue bool) (Marker, error) {
	t, _, ok := columnScalarAndDerivation(col)
	if !ok {
		return 0, newErr("ColumnElementType", BADTYPE, "marker 0x%02x is not a column marker", col)
	}
	if t == ScalarBoolean {
		if isNull {
			return MNull, nil
		}
		if isTrue {
			return MTrue, nil
		}
		return MFalse, nil
	}
	if isNull {
		return MNull, nil
	}
	switch t {
	case ScalarU8:
		return MU8, nil
	case ScalarU16:
		return MU16, nil
	case ScalarU32:
		return MU32, nil
	case ScalarU64:
		return MU64, nil
	case ScalarI8:
		return MI8, nil
	case ScalarI16:
		return MI16, nil
	case ScalarI32:
		return MI32, nil
	case ScalarI64:
		return MI64, nil
	case ScalarFloat:
		return MFloat, nil
	default:
		return 0, newErr("ColumnElementType", INTERNALERR, "unhandled scalar type %v", t)
	}
}
