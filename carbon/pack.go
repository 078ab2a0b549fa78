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

// Pack and Shrink compact a record's MemFile after a sequence of
// insertions/removals has left reserved-but-unused capacity behind. Packing
// is a two-phase scan-then-build pass: scan every element at a level
// (recursing into nested containers first, so their sizes are already
// final), then reclaim the run of padding left between the last real
// element and the container's end.

// PackRoot packs every element of the root array, recursing through nested
// arrays/objects/columns. The root array itself carries no end marker and
// is never pre-padded by the Insertion Engine, so there is nothing to trim
// at the top level; this only matters for the containers inside it.
func PackRoot(mf *MemFile, rootBegin uint) *Error {
	mf.Seek(rootBegin + 1)
	for mf.Remain() > 0 {
		if mf.PeekByte() == 0 {
			if err := stripZeroRun(mf); err != nil {
				return err
			}
			continue
		}
		if err := packField(mf); err != nil {
			return err
		}
	}
	return nil
}

// Pack packs the whole record (PackRoot) and then cuts the MemFile to its
// packed length.
func Pack(mf *MemFile, rootBegin uint) *Error {
	if err := PackRoot(mf, rootBegin); err != nil {
		return err
	}
	mf.Cut()
	return nil
}

// Shrink reallocates the MemFile's backing buffer to exactly its live
// length, dropping any spare capacity the growth strategy over-allocated.
func Shrink(mf *MemFile) {
	tight := make([]byte, mf.used)
	copy(tight, mf.buf[:mf.used])
	mf.buf = tight
}

func stripZeroRun(mf *MemFile) *Error {
	start := mf.Tell()
	count := uint(0)
	for mf.Remain() > 0 && mf.PeekByte() == 0 {
		mf.Skip(1)
		count++
	}
	mf.Seek(start)
	return mf.InplaceRemove(count)
}

// packContainer assumes mf's cursor is positioned right after a begin
// marker and removes trailing padding before the matching end marker,
// having first packed every element (recursing through packField).
func packContainer(mf *MemFile, isObject bool) *Error {
	endMarker := byte(MArrayEnd)
	if isObject {
		endMarker = byte(MObjectEnd)
	}
	for {
		if mf.Remain() == 0 {
			return newErr("packContainer", CORRUPTED, "missing end marker")
		}
		b := mf.PeekByte()
		if b == endMarker {
			mf.Skip(1)
			return nil
		}
		if b == 0 {
			if err := stripZeroRun(mf); err != nil {
				return err
			}
			continue
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
		if err := packField(mf); err != nil {
			return err
		}
	}
}

// packColumn shrinks a column's reserved capacity down to its live element
// count, recomputing the capacity uintvar and removing the now-excess
// payload bytes. mf's cursor must be at the column's begin marker; it ends
// up right after the (possibly shrunk) payload region.
func packColumn(mf *MemFile) *Error {
	b, err := mf.Read(1)
	if err != nil {
		return err
	}
	m := Marker(b[0])
	t, _, ok := columnScalarAndDerivation(m)
	if !ok {
		return newErr("packColumn", BADTYPE, "marker 0x%02x is not a column marker", m)
	}
	numElems, _, err := mf.ReadUintvar()
	if err != nil {
		return err
	}
	capacityOffset := mf.Tell()
	capacity, _, err := mf.ReadUintvar()
	if err != nil {
		return err
	}
	payloadOffset := mf.Tell()
	stride := columnElementStride(t)
	if capacity > numElems {
		mf.Seek(capacityOffset)
		shift, err := mf.UpdateUintvar(numElems)
		if err != nil {
			return err
		}
		payloadOffset = uint(int(payloadOffset) + shift)
		removeAt := payloadOffset + uint(numElems)*stride
		removeBytes := uint(capacity-numElems) * stride
		mf.Seek(removeAt)
		if err := mf.InplaceRemove(removeBytes); err != nil {
			return err
		}
	}
	mf.Seek(payloadOffset + uint(numElems)*stride)
	return nil
}

// packField packs exactly one field, recursing into nested containers, and
// leaves mf's cursor just past it — the packing counterpart of skipField.
func packField(mf *MemFile) *Error {
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
		if _, _, err := mf.ReadUintvar(); err != nil {
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
		return packContainer(mf, false)
	case kindObject:
		return packContainer(mf, true)
	case kindColumn:
		mf.Seek(mf.Tell() - 1)
		return packColumn(mf)
	default:
		return newErr("packField", BADTYPE, "unknown marker 0x%02x", m)
	}
}
