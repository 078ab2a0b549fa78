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

// ObjectIter is a forward cursor over an object container's key/value pairs.
// Keys are stored as a uintvar length followed by UTF-8 bytes, immediately
// preceding the value field.
type ObjectIter struct {
	mf         *MemFile
	begin      uint
	derivation Derivation
	cursor     uint

	entryStart uint // offset of the key length uintvar, preceding keyOffset
	keyOffset  uint
	keyLen     uint
	cur        FieldAccess
	hasCur     bool
	atEnd      bool
}

func newObjectIterAt(mf *MemFile, begin uint) (*ObjectIter, *Error) {
	save := mf.Tell()
	mf.Seek(begin)
	b, err := mf.Read(1)
	if err != nil {
		mf.Seek(save)
		return nil, err
	}
	m := Marker(b[0])
	if !IsObjectOrSubtype(m) {
		mf.Seek(save)
		return nil, newErr("newObjectIterAt", BADTYPE, "marker 0x%02x is not an object begin", m)
	}
	it := &ObjectIter{mf: mf, begin: begin, derivation: ObjectDerivation(m), cursor: mf.Tell()}
	mf.Seek(save)
	return it, nil
}

// Begin returns the offset of this object's begin marker.
func (it *ObjectIter) Begin() uint { return it.begin }

// Derivation returns the object's multimap/map × sorted/unsorted subtype.
func (it *ObjectIter) Derivation() Derivation { return it.derivation }

// Tell returns the iterator's current read position.
func (it *ObjectIter) Tell() uint { return it.cursor }

// Key returns the UTF-8 key of the pair the last successful Next() landed on.
func (it *ObjectIter) Key() string {
	return string(it.mf.buf[it.keyOffset : it.keyOffset+it.keyLen])
}

// Current returns the FieldAccess describing the value of the current pair.
func (it *ObjectIter) Current() *FieldAccess { return &it.cur }

// EntryStart returns the offset of the current pair's key-length uintvar,
// i.e. the start of the whole key/value entry (used by revise_remove to
// delete a property including its key, not just its value).
func (it *ObjectIter) EntryStart() uint { return it.entryStart }

// Next advances to the next key/value pair, skipping zero-valued padding.
func (it *ObjectIter) Next() (ok bool, isEnd bool, err *Error) {
	if it.hasCur {
		it.cur.autoClose()
		it.hasCur = false
	}
	if it.atEnd {
		return false, true, nil
	}
	mf := it.mf
	mf.Seek(it.cursor)
	for {
		if mf.Remain() == 0 {
			return false, false, newErr("ObjectIter.Next", CORRUPTED, "missing object end marker")
		}
		b := mf.PeekByte()
		if b == 0 {
			mf.Skip(1)
			continue
		}
		if b == byte(MObjectEnd) {
			mf.Skip(1)
			it.cursor = mf.Tell()
			it.atEnd = true
			return false, true, nil
		}
		break
	}
	it.entryStart = mf.Tell()
	l, _, kerr := mf.ReadUintvar()
	if kerr != nil {
		return false, false, kerr
	}
	it.keyOffset = mf.Tell()
	it.keyLen = uint(l)
	if _, kerr := mf.Read(uint(l)); kerr != nil {
		return false, false, kerr
	}
	var fa FieldAccess
	if perr := parseField(mf, &fa); perr != nil {
		return false, false, perr
	}
	it.cur = fa
	it.hasCur = true
	it.cursor = mf.Tell()
	return true, false, nil
}

// FastForward advances the iterator to just past the object's end marker.
func (it *ObjectIter) FastForward() *Error {
	for {
		_, isEnd, err := it.Next()
		if err != nil {
			return err
		}
		if isEnd {
			return nil
		}
	}
}

// Clone deep-copies the iterator, including any materialized nested
// iterator the current value holds.
func (it *ObjectIter) Clone() *ObjectIter {
	c := *it
	if it.hasCur {
		c.cur = it.cur.clone()
	}
	return &c
}
