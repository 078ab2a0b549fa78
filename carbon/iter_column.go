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

import "math"

// ColumnIter is a random-access view over a column container's typed cells.
// A column's on-disk layout is
//
//	[marker][uintvar num_elems][uintvar capacity][capacity * elemStride payload]
//
// with no per-cell marker byte for numeric types (boolean cells are the one
// exception: a single bit cannot carry null, so each boolean cell spends a
// whole marker byte — BoolCellTrue/False/Null).
type ColumnIter struct {
	mf         *MemFile
	begin      uint // offset of the column's marker byte
	scalarType ScalarType
	derivation Derivation

	numElemsOffset uint
	capacityOffset uint
	payloadOffset  uint
	elemStride     uint

	numElems uint64
	capacity uint64

	// payloadEnd is the offset right after the column's reserved payload
	// region — i.e. where the next sibling field begins. Read directly as
	// a field by parseField, which must seek past the whole column without
	// constructing a nested cursor walk.
	payloadEnd uint
}

func newColumnIterAt(mf *MemFile, begin uint) (*ColumnIter, *Error) {
	save := mf.Tell()
	mf.Seek(begin)
	b, err := mf.Read(1)
	if err != nil {
		mf.Seek(save)
		return nil, err
	}
	m := Marker(b[0])
	t, d, ok := columnScalarAndDerivation(m)
	if !ok {
		mf.Seek(save)
		return nil, newErr("newColumnIterAt", BADTYPE, "marker 0x%02x is not a column marker", m)
	}
	ci := &ColumnIter{mf: mf, begin: begin, scalarType: t, derivation: d, elemStride: columnElementStride(t)}

	ci.numElemsOffset = mf.Tell()
	numElems, _, err := mf.ReadUintvar()
	if err != nil {
		mf.Seek(save)
		return nil, err
	}
	ci.capacityOffset = mf.Tell()
	capacity, _, err := mf.ReadUintvar()
	if err != nil {
		mf.Seek(save)
		return nil, err
	}
	ci.numElems = numElems
	ci.capacity = capacity
	ci.payloadOffset = mf.Tell()
	if _, err := mf.Read(uint(capacity) * ci.elemStride); err != nil {
		mf.Seek(save)
		return nil, err
	}
	ci.payloadEnd = mf.Tell()

	mf.Seek(save)
	return ci, nil
}

// Begin returns the offset of this column's marker byte.
func (ci *ColumnIter) Begin() uint { return ci.begin }

// ScalarType returns the column's element type.
func (ci *ColumnIter) ScalarType() ScalarType { return ci.scalarType }

// Derivation returns the column's multiset/set × sorted/unsorted subtype.
func (ci *ColumnIter) Derivation() Derivation { return ci.derivation }

// Len returns the number of logically present elements (num_elems).
func (ci *ColumnIter) Len() uint { return uint(ci.numElems) }

// Capacity returns the reserved element capacity.
func (ci *ColumnIter) Capacity() uint { return uint(ci.capacity) }

func (ci *ColumnIter) cellOffset(i uint) uint {
	return ci.payloadOffset + i*ci.elemStride
}

func (ci *ColumnIter) rawCell(i uint) (uint64, *Error) {
	if uint64(i) >= ci.numElems {
		return 0, newErr("ColumnIter", OUTOFBOUNDS, "index %d >= length %d", i, ci.numElems)
	}
	save := ci.mf.Tell()
	ci.mf.Seek(ci.cellOffset(i))
	b, err := ci.mf.Read(ci.elemStride)
	ci.mf.Seek(save)
	if err != nil {
		return 0, err
	}
	var v uint64
	for k := uint(0); k < ci.elemStride; k++ {
		v |= uint64(b[k]) << (8 * k)
	}
	return v, nil
}

// IsNull reports whether element i is the type's null sentinel.
func (ci *ColumnIter) IsNull(i uint) (bool, *Error) {
	if ci.scalarType == ScalarBoolean {
		v, err := ci.rawCell(i)
		if err != nil {
			return false, err
		}
		return byte(v) == BoolCellNull, nil
	}
	v, err := ci.rawCell(i)
	if err != nil {
		return false, err
	}
	return v == scalarSentinelNull(ci.scalarType), nil
}

// Bool returns the boolean value of element i (TYPEMISMATCH if this is not
// a boolean column).
func (ci *ColumnIter) Bool(i uint) (bool, *Error) {
	if ci.scalarType != ScalarBoolean {
		return false, newErr("ColumnIter.Bool", TYPEMISMATCH, "column holds %v, not boolean", ci.scalarType)
	}
	v, err := ci.rawCell(i)
	if err != nil {
		return false, err
	}
	return byte(v) == BoolCellTrue, nil
}

// U8/U16/U32/U64/I8/I16/I32/I64/Float return the cell value reinterpreted as
// the requested width; each fails TYPEMISMATCH if the column holds a
// different scalar type.
func (ci *ColumnIter) U8(i uint) (uint8, *Error) {
	if ci.scalarType != ScalarU8 {
		return 0, newErr("ColumnIter.U8", TYPEMISMATCH, "column holds %v", ci.scalarType)
	}
	v, err := ci.rawCell(i)
	return uint8(v), err
}
func (ci *ColumnIter) U16(i uint) (uint16, *Error) {
	if ci.scalarType != ScalarU16 {
		return 0, newErr("ColumnIter.U16", TYPEMISMATCH, "column holds %v", ci.scalarType)
	}
	v, err := ci.rawCell(i)
	return uint16(v), err
}
func (ci *ColumnIter) U32(i uint) (uint32, *Error) {
	if ci.scalarType != ScalarU32 {
		return 0, newErr("ColumnIter.U32", TYPEMISMATCH, "column holds %v", ci.scalarType)
	}
	v, err := ci.rawCell(i)
	return uint32(v), err
}
func (ci *ColumnIter) U64(i uint) (uint64, *Error) {
	if ci.scalarType != ScalarU64 {
		return 0, newErr("ColumnIter.U64", TYPEMISMATCH, "column holds %v", ci.scalarType)
	}
	return ci.rawCell(i)
}
func (ci *ColumnIter) I8(i uint) (int8, *Error) {
	if ci.scalarType != ScalarI8 {
		return 0, newErr("ColumnIter.I8", TYPEMISMATCH, "column holds %v", ci.scalarType)
	}
	v, err := ci.rawCell(i)
	return int8(v), err
}
func (ci *ColumnIter) I16(i uint) (int16, *Error) {
	if ci.scalarType != ScalarI16 {
		return 0, newErr("ColumnIter.I16", TYPEMISMATCH, "column holds %v", ci.scalarType)
	}
	v, err := ci.rawCell(i)
	return int16(v), err
}
func (ci *ColumnIter) I32(i uint) (int32, *Error) {
	if ci.scalarType != ScalarI32 {
		return 0, newErr("ColumnIter.I32", TYPEMISMATCH, "column holds %v", ci.scalarType)
	}
	v, err := ci.rawCell(i)
	return int32(v), err
}
func (ci *ColumnIter) I64(i uint) (int64, *Error) {
	if ci.scalarType != ScalarI64 {
		return 0, newErr("ColumnIter.I64", TYPEMISMATCH, "column holds %v", ci.scalarType)
	}
	v, err := ci.rawCell(i)
	return int64(v), err
}
func (ci *ColumnIter) Float(i uint) (float64, *Error) {
	if ci.scalarType != ScalarFloat {
		return 0, newErr("ColumnIter.Float", TYPEMISMATCH, "column holds %v", ci.scalarType)
	}
	v, err := ci.rawCell(i)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ElementMarker returns the marker the element at i would carry if accessed
// as a standalone scalar field.
func (ci *ColumnIter) ElementMarker(i uint) (Marker, *Error) {
	isNull, err := ci.IsNull(i)
	if err != nil {
		return 0, err
	}
	isTrue := false
	if ci.scalarType == ScalarBoolean && !isNull {
		isTrue, err = ci.Bool(i)
		if err != nil {
			return 0, err
		}
	}
	m, gerr := ColumnElementType(ColumnMarker(ci.scalarType, ci.derivation), isNull, isTrue)
	if gerr != nil {
		return 0, gerr.(*Error)
	}
	return m, nil
}

// RemoveAt deletes element i, shifting every later cell down by one and
// decrementing num_elems. Reserved capacity is left untouched; Pack
// reclaims it later in an explicit pass.
func (ci *ColumnIter) RemoveAt(i uint) *Error {
	if uint64(i) >= ci.numElems {
		return newErr("ColumnIter.RemoveAt", OUTOFBOUNDS, "index %d >= length %d", i, ci.numElems)
	}
	mf := ci.mf
	stride := ci.elemStride
	for j := uint64(i); j+1 < ci.numElems; j++ {
		save := mf.Tell()
		mf.Seek(ci.cellOffset(uint(j + 1)))
		b, err := mf.Read(stride)
		if err != nil {
			mf.Seek(save)
			return err
		}
		cell := make([]byte, stride)
		copy(cell, b)
		mf.Seek(ci.cellOffset(uint(j)))
		if err := mf.Write(cell); err != nil {
			mf.Seek(save)
			return err
		}
		mf.Seek(save)
	}
	ci.numElems--
	mf.Seek(ci.numElemsOffset)
	shift, err := mf.UpdateUintvar(ci.numElems)
	if err != nil {
		return err
	}
	if shift != 0 {
		ci.capacityOffset = uint(int(ci.capacityOffset) + shift)
		ci.payloadOffset = uint(int(ci.payloadOffset) + shift)
		ci.payloadEnd = uint(int(ci.payloadEnd) + shift)
	}
	return nil
}

// Clone returns an independent ColumnIter over the same underlying MemFile
// and byte range (columns carry no owned nested iterators, so this is a
// shallow copy).
func (ci *ColumnIter) Clone() *ColumnIter {
	c := *ci
	return &c
}
