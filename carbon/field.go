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

// nestedKind tags which of the three nested iterator families (if any) a
// FieldAccess currently holds.
type nestedKind uint8

const (
	nestedNone nestedKind = iota
	nestedArray
	nestedObject
	nestedColumn
)

// FieldAccess is the transient descriptor of whatever field an iterator's
// cursor currently stands on. It is scratch space owned by the iterator
// that produced it: re-used on every Next() call, except for a nested
// iterator the caller has explicitly "accessed" (taken ownership of),
// which survives the parent's next advance.
type FieldAccess struct {
	mf     *MemFile
	// selfOffset is the offset of this field's marker byte, used by
	// revise_remove to compute the full byte span to delete.
	selfOffset uint
	marker     Marker
	// offset of the byte right after the marker (where the payload begins)
	valueOffset uint

	// scalar numeric payload, reinterpreted per marker
	rawBits uint64

	// string / binary payload
	strOffset uint
	strLen    uint
	mimeID    uint64
	mimeName  string

	// lazily materialized nested iterator
	kind     nestedKind
	array    *ArrayIter
	object   *ObjectIter
	column   *ColumnIter
	accessed bool
}

// FieldType returns the marker of the field currently under the cursor.
func (f *FieldAccess) FieldType() Marker { return f.marker }

// IsNull/IsTrue/IsFalse test presence markers.
func (f *FieldAccess) IsNull() bool  { return IsNull(f.marker) }
func (f *FieldAccess) IsTrue() bool  { return IsTrue(f.marker) }
func (f *FieldAccess) IsFalse() bool { return IsFalse(f.marker) }

func (f *FieldAccess) typeMismatch(op string, want Marker) *Error {
	return newErr(op, TYPEMISMATCH, "field has marker 0x%02x, want 0x%02x", f.marker, want)
}

// U8 returns the scalar value; fails TYPEMISMATCH if the field is not a u8.
func (f *FieldAccess) U8() (uint8, *Error) {
	if f.marker != MU8 {
		return 0, f.typeMismatch("U8", MU8)
	}
	return uint8(f.rawBits), nil
}

// U16 returns the scalar value; fails TYPEMISMATCH if the field is not a u16.
func (f *FieldAccess) U16() (uint16, *Error) {
	if f.marker != MU16 {
		return 0, f.typeMismatch("U16", MU16)
	}
	return uint16(f.rawBits), nil
}

// U32 returns the scalar value; fails TYPEMISMATCH if the field is not a u32.
func (f *FieldAccess) U32() (uint32, *Error) {
	if f.marker != MU32 {
		return 0, f.typeMismatch("U32", MU32)
	}
	return uint32(f.rawBits), nil
}

// U64 returns the scalar value; fails TYPEMISMATCH if the field is not a u64.
func (f *FieldAccess) U64() (uint64, *Error) {
	if f.marker != MU64 {
		return 0, f.typeMismatch("U64", MU64)
	}
	return f.rawBits, nil
}

// I8 returns the scalar value; fails TYPEMISMATCH if the field is not an i8.
func (f *FieldAccess) I8() (int8, *Error) {
	if f.marker != MI8 {
		return 0, f.typeMismatch("I8", MI8)
	}
	return int8(f.rawBits), nil
}

// I16 returns the scalar value; fails TYPEMISMATCH if the field is not an i16.
func (f *FieldAccess) I16() (int16, *Error) {
	if f.marker != MI16 {
		return 0, f.typeMismatch("I16", MI16)
	}
	return int16(f.rawBits), nil
}

// I32 returns the scalar value; fails TYPEMISMATCH if the field is not an i32.
func (f *FieldAccess) I32() (int32, *Error) {
	if f.marker != MI32 {
		return 0, f.typeMismatch("I32", MI32)
	}
	return int32(f.rawBits), nil
}

// I64 returns the scalar value; fails TYPEMISMATCH if the field is not an i64.
func (f *FieldAccess) I64() (int64, *Error) {
	if f.marker != MI64 {
		return 0, f.typeMismatch("I64", MI64)
	}
	return int64(f.rawBits), nil
}

// Float returns the scalar value; fails TYPEMISMATCH if the field is not a float.
func (f *FieldAccess) Float() (float64, *Error) {
	if f.marker != MFloat {
		return 0, f.typeMismatch("Float", MFloat)
	}
	return math.Float64frombits(f.rawBits), nil
}

// String returns the UTF-8 payload; fails TYPEMISMATCH if the field is not a string.
func (f *FieldAccess) String() (string, *Error) {
	if f.marker != MString {
		return "", f.typeMismatch("String", MString)
	}
	return string(f.mf.buf[f.strOffset : f.strOffset+f.strLen]), nil
}

// Binary returns the mime id/name (one is populated depending on whether
// this was BINARY or BINARY_CUSTOM) and the raw payload.
func (f *FieldAccess) Binary() (mimeID uint64, mimeName string, data []byte, err *Error) {
	if f.marker != MBinary && f.marker != MBinaryCustom {
		return 0, "", nil, f.typeMismatch("Binary", MBinary)
	}
	return f.mimeID, f.mimeName, f.mf.buf[f.strOffset : f.strOffset+f.strLen], nil
}

// ArrayValue returns the nested array iterator, transferring ownership to
// the caller: the parent iterator will no longer auto-close it on its next
// advance.
func (f *FieldAccess) ArrayValue() (*ArrayIter, *Error) {
	if f.kind != nestedArray {
		return nil, f.typeMismatch("ArrayValue", MArrayBegin)
	}
	f.accessed = true
	return f.array, nil
}

// ObjectValue returns the nested object iterator, transferring ownership.
func (f *FieldAccess) ObjectValue() (*ObjectIter, *Error) {
	if f.kind != nestedObject {
		return nil, f.typeMismatch("ObjectValue", MObjectBegin)
	}
	f.accessed = true
	return f.object, nil
}

// ColumnValue returns the nested column iterator, transferring ownership.
func (f *FieldAccess) ColumnValue() (*ColumnIter, *Error) {
	if f.kind != nestedColumn {
		return nil, f.typeMismatch("ColumnValue", columnBase)
	}
	f.accessed = true
	return f.column, nil
}

// autoClose drops an unaccessed nested iterator: if the caller does not
// access it before the outer iterator advances, it is auto-closed.
func (f *FieldAccess) autoClose() {
	if f.kind != nestedNone && !f.accessed {
		f.array = nil
		f.object = nil
		f.column = nil
	}
	f.kind = nestedNone
	f.accessed = false
}

// readScalarPayload parses the fixed-width payload following a scalar
// marker into rawBits, advancing mf's cursor past it.
func readScalarPayload(mf *MemFile, m Marker) (uint64, *Error) {
	n := ValueSize(m)
	if n == 0 {
		return 0, nil
	}
	b, err := mf.Read(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := uint(0); i < n; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, nil
}

// parseField reads one field (marker + payload + auxiliary header) at
// mf's current cursor into fa, constructing a nested iterator if the field
// is a container. mf's cursor ends up just past the field.
func parseField(mf *MemFile, fa *FieldAccess) *Error {
	selfOffset := mf.Tell()
	b, err := mf.Read(1)
	if err != nil {
		return err
	}
	m := Marker(b[0])
	fa.mf = mf
	fa.selfOffset = selfOffset
	fa.marker = m
	fa.kind = nestedNone
	fa.accessed = false

	info := markerTable[m]
	switch info.kind {
	case kindPresence, kindNumber:
		fa.valueOffset = mf.Tell()
		v, err := readScalarPayload(mf, m)
		if err != nil {
			return err
		}
		fa.rawBits = v
	case kindString:
		l, _, err := mf.ReadUintvar()
		if err != nil {
			return err
		}
		fa.strOffset = mf.Tell()
		fa.strLen = uint(l)
		if _, err := mf.Read(uint(l)); err != nil {
			return err
		}
	case kindBinary:
		mid, _, err := mf.ReadUintvar()
		if err != nil {
			return err
		}
		fa.mimeID = mid
		fa.mimeName = ""
		l, _, err := mf.ReadUintvar()
		if err != nil {
			return err
		}
		fa.strOffset = mf.Tell()
		fa.strLen = uint(l)
		if _, err := mf.Read(uint(l)); err != nil {
			return err
		}
	case kindBinaryCustom:
		nl, _, err := mf.ReadUintvar()
		if err != nil {
			return err
		}
		nameBytes, err := mf.Read(uint(nl))
		if err != nil {
			return err
		}
		fa.mimeName = string(nameBytes)
		fa.mimeID = 0
		l, _, err := mf.ReadUintvar()
		if err != nil {
			return err
		}
		fa.strOffset = mf.Tell()
		fa.strLen = uint(l)
		if _, err := mf.Read(uint(l)); err != nil {
			return err
		}
	case kindArray:
		begin := mf.Tell() - 1
		fa.kind = nestedArray
		ai, err := newArrayIterAt(mf, begin)
		if err != nil {
			return err
		}
		fa.array = ai
		mf.Seek(begin + 1)
		if err := skipContainerBody(mf, false); err != nil {
			return err
		}
	case kindObject:
		begin := mf.Tell() - 1
		fa.kind = nestedObject
		oi, err := newObjectIterAt(mf, begin)
		if err != nil {
			return err
		}
		fa.object = oi
		mf.Seek(begin + 1)
		if err := skipContainerBody(mf, true); err != nil {
			return err
		}
	case kindColumn:
		begin := mf.Tell() - 1
		ci, err := newColumnIterAt(mf, begin)
		if err != nil {
			return err
		}
		fa.kind = nestedColumn
		fa.column = ci
		mf.Seek(ci.payloadEnd)
	default:
		return newErr("parseField", BADTYPE, "unknown marker 0x%02x", m)
	}
	return nil
}
