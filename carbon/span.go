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

// skipField advances mf's cursor past exactly one field (marker, payload,
// and — for containers — their full recursively nested content), without
// materializing any iterator. It is the shared primitive behind both (a)
// look-ahead during normal iteration (so a parent array/object iterator can
// resume right after a nested container whose own iterator it merely
// lazily constructed) and (b) field removal's size computation, which needs
// to know how many bytes a compound field occupies before deleting them.
func skipField(mf *MemFile) *Error {
	b, err := mf.Read(1)
	if err != nil {
		return err
	}
	m := Marker(b[0])
	info := markerTable[m]
	switch info.kind {
	case kindPresence:
		return nil
	case kindNumber:
		_, err := mf.Read(info.valueSize)
		return err
	case kindString:
		l, _, err := mf.ReadUintvar()
		if err != nil {
			return err
		}
		_, err = mf.Read(uint(l))
		return err
	case kindBinary:
		if _, _, err := mf.ReadUintvar(); err != nil { // mime id
			return err
		}
		l, _, err := mf.ReadUintvar()
		if err != nil {
			return err
		}
		_, err = mf.Read(uint(l))
		return err
	case kindBinaryCustom:
		nl, _, err := mf.ReadUintvar()
		if err != nil {
			return err
		}
		if _, err := mf.Read(uint(nl)); err != nil {
			return err
		}
		l, _, err := mf.ReadUintvar()
		if err != nil {
			return err
		}
		_, err = mf.Read(uint(l))
		return err
	case kindArray:
		return skipContainerBody(mf, false)
	case kindObject:
		return skipContainerBody(mf, true)
	case kindColumn:
		return skipColumnBody(mf, m)
	default:
		return newErr("skipField", BADTYPE, "unknown marker 0x%02x", m)
	}
}

// skipContainerBody assumes mf's cursor is positioned right after a
// begin marker (array if !isObject, object if isObject) and advances it
// past every element/pair (recursing through skipField) up to and
// including the matching end marker.
func skipContainerBody(mf *MemFile, isObject bool) *Error {
	endMarker := byte(MArrayEnd)
	if isObject {
		endMarker = byte(MObjectEnd)
	}
	for {
		if mf.Remain() == 0 {
			return newErr("skipContainerBody", CORRUPTED, "missing end marker")
		}
		bb := mf.PeekByte()
		if bb == 0 {
			mf.Skip(1)
			continue
		}
		if bb == endMarker {
			mf.Skip(1)
			return nil
		}
		if isObject {
			l, _, err := mf.ReadUintvar()
			if err != nil {
				return err
			}
			if _, err := mf.Read(uint(l)); err != nil {
				return err
			}
		}
		if err := skipField(mf); err != nil {
			return err
		}
	}
}

// skipColumnBody assumes mf's cursor is positioned right after a column
// begin marker m and advances it past the (num_elems, capacity) header and
// the full capacity×element_size payload region.
func skipColumnBody(mf *MemFile, m Marker) *Error {
	t, _, ok := columnScalarAndDerivation(m)
	if !ok {
		return newErr("skipColumnBody", BADTYPE, "marker 0x%02x is not a column marker", m)
	}
	if _, _, err := mf.ReadUintvar(); err != nil { // num_elems
		return err
	}
	capacity, _, err := mf.ReadUintvar()
	if err != nil {
		return err
	}
	elemSize := columnElementStride(t)
	_, err = mf.Read(uint(capacity) * elemSize)
	return err
}

// fieldByteSpan returns the number of bytes the field starting at offset
// occupies (marker + payload, including any nested container content),
// without disturbing mf's cursor.
func fieldByteSpan(mf *MemFile, offset uint) (uint, *Error) {
	save := mf.Tell()
	mf.Seek(offset)
	if err := skipField(mf); err != nil {
		mf.Seek(save)
		return 0, err
	}
	span := mf.Tell() - offset
	mf.Seek(save)
	return span, nil
}

// columnElementStride is the on-disk width of one column cell: boolean
// cells spend a whole marker byte each, since a single bit cannot represent
// null; every other scalar uses its fixed native width.
func columnElementStride(t ScalarType) uint {
	if t == ScalarBoolean {
		return 1
	}
	return scalarValueSize(t)
}
