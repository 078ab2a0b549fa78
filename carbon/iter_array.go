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

// ArrayIter is a forward cursor over an array container.
type ArrayIter struct {
	mf         *MemFile
	begin      uint // offset of the begin marker
	derivation Derivation
	isRoot     bool // root array has no end marker; body spans to end-of-buffer
	cursor     uint // next read position
	cur        FieldAccess
	hasCur     bool
	atEnd      bool
}

func newArrayIterAt(mf *MemFile, begin uint) (*ArrayIter, *Error) {
	save := mf.Tell()
	mf.Seek(begin)
	b, err := mf.Read(1)
	if err != nil {
		mf.Seek(save)
		return nil, err
	}
	m := Marker(b[0])
	if !IsArrayOrSubtype(m) {
		mf.Seek(save)
		return nil, newErr("newArrayIterAt", BADTYPE, "marker 0x%02x is not an array begin", m)
	}
	it := &ArrayIter{mf: mf, begin: begin, derivation: ArrayDerivation(m), cursor: mf.Tell()}
	mf.Seek(save)
	return it, nil
}

// newRootArrayIter constructs an iterator over the root array, which has no
// end marker: its body spans to end-of-buffer.
func newRootArrayIter(mf *MemFile, begin uint) (*ArrayIter, *Error) {
	it, err := newArrayIterAt(mf, begin)
	if err != nil {
		return nil, err
	}
	it.isRoot = true
	return it, nil
}

// Begin returns the offset of this array's begin marker.
func (it *ArrayIter) Begin() uint { return it.begin }

// Derivation returns the array's multiset/set × sorted/unsorted subtype.
func (it *ArrayIter) Derivation() Derivation { return it.derivation }

// Tell returns the iterator's current read position.
func (it *ArrayIter) Tell() uint { return it.cursor }

// Current returns the FieldAccess describing the field the last successful
// Next() landed on.
func (it *ArrayIter) Current() *FieldAccess { return &it.cur }

// Next advances to the next occupied slot, skipping zero-valued padding.
// ok reports whether a field was found; isEnd reports whether the array's
// end marker (or, for the root array, end-of-buffer) was reached — which is
// not itself an error.
func (it *ArrayIter) Next() (ok bool, isEnd bool, err *Error) {
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
			if it.isRoot {
				it.atEnd = true
				return false, true, nil
			}
			return false, false, newErr("ArrayIter.Next", CORRUPTED, "missing array end marker")
		}
		b := mf.PeekByte()
		if b == 0 {
			mf.Skip(1)
			continue
		}
		if !it.isRoot && b == byte(MArrayEnd) {
			mf.Skip(1)
			it.cursor = mf.Tell()
			it.atEnd = true
			return false, true, nil
		}
		break
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

// FastForward advances the iterator to just past the end marker (or, for
// the root array, end-of-buffer).
func (it *ArrayIter) FastForward() *Error {
	for {
		ok, isEnd, err := it.Next()
		if err != nil {
			return err
		}
		if isEnd {
			return nil
		}
		_ = ok
	}
}

// Clone deep-copies the iterator, including any materialized nested
// iterator the current field holds.
func (it *ArrayIter) Clone() *ArrayIter {
	c := *it
	if it.hasCur {
		c.cur = it.cur.clone()
	}
	return &c
}

func (fa *FieldAccess) clone() FieldAccess {
	c := *fa
	if fa.kind == nestedArray && fa.array != nil {
		c.array = fa.array.Clone()
	}
	if fa.kind == nestedObject && fa.object != nil {
		c.object = fa.object.Clone()
	}
	if fa.kind == nestedColumn && fa.column != nil {
		c.column = fa.column.Clone()
	}
	return c
}
