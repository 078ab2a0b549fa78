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

import "testing"

// buildMixedRecord writes [42 (u8), "hi" (string), [1,2] (array), {"k": 7}
// (object), column<u32>[10,20,30]] into a fresh root array and returns the
// backing MemFile plus the root's begin offset.
func buildMixedRecord(t *testing.T) (*MemFile, uint) {
	t.Helper()
	mf, root, err := BeginRootArray(DefaultConfig, NOKEY, UnsortedMultiset)
	if err != nil {
		t.Fatalf("BeginRootArray: %v", err)
	}
	if err := root.InsertU8(42); err != nil {
		t.Fatalf("InsertU8: %v", err)
	}
	if err := root.InsertString("hi"); err != nil {
		t.Fatalf("InsertString: %v", err)
	}
	inner, err := root.BeginArray(32, UnsortedMultiset)
	if err != nil {
		t.Fatalf("BeginArray: %v", err)
	}
	if err := inner.InsertU8(1); err != nil {
		t.Fatalf("inner InsertU8(1): %v", err)
	}
	if err := inner.InsertU8(2); err != nil {
		t.Fatalf("inner InsertU8(2): %v", err)
	}
	if err := root.EndArray(inner); err != nil {
		t.Fatalf("EndArray: %v", err)
	}
	obj, err := root.BeginObject(32, UnsortedSet)
	if err != nil {
		t.Fatalf("BeginObject: %v", err)
	}
	if err := obj.PutKey("k"); err != nil {
		t.Fatalf("PutKey: %v", err)
	}
	if err := obj.InsertU8(7); err != nil {
		t.Fatalf("obj InsertU8: %v", err)
	}
	if err := root.EndObject(obj); err != nil {
		t.Fatalf("EndObject: %v", err)
	}
	col, err := root.BeginColumn(ScalarU32, UnsortedMultiset, 3)
	if err != nil {
		t.Fatalf("BeginColumn: %v", err)
	}
	for _, v := range []uint32{10, 20, 30} {
		if err := col.ColumnAppendU32(v); err != nil {
			t.Fatalf("ColumnAppendU32(%d): %v", v, err)
		}
	}
	if err := root.EndColumn(col); err != nil {
		t.Fatalf("EndColumn: %v", err)
	}
	return mf, root.Begin()
}

func TestInsertAndIterateRoundTrip(t *testing.T) {
	mf, begin := buildMixedRecord(t)
	it, err := newRootArrayIter(mf, begin)
	if err != nil {
		t.Fatalf("newRootArrayIter: %v", err)
	}

	ok, isEnd, err := it.Next()
	if err != nil || !ok || isEnd {
		t.Fatalf("field 0: ok=%v isEnd=%v err=%v", ok, isEnd, err)
	}
	if v, err := it.Current().U8(); err != nil || v != 42 {
		t.Fatalf("field 0 U8: got %d, %v", v, err)
	}

	ok, isEnd, err = it.Next()
	if err != nil || !ok || isEnd {
		t.Fatalf("field 1: ok=%v isEnd=%v err=%v", ok, isEnd, err)
	}
	if v, err := it.Current().String(); err != nil || v != "hi" {
		t.Fatalf("field 1 String: got %q, %v", v, err)
	}

	ok, isEnd, err = it.Next()
	if err != nil || !ok || isEnd {
		t.Fatalf("field 2: ok=%v isEnd=%v err=%v", ok, isEnd, err)
	}
	innerIter, err := it.Current().ArrayValue()
	if err != nil {
		t.Fatalf("ArrayValue: %v", err)
	}
	var got []uint8
	for {
		ok, isEnd, err := innerIter.Next()
		if err != nil {
			t.Fatalf("inner Next: %v", err)
		}
		if isEnd {
			break
		}
		if !ok {
			continue
		}
		v, err := innerIter.Current().U8()
		if err != nil {
			t.Fatalf("inner U8: %v", err)
		}
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("inner array content: %v", got)
	}

	ok, isEnd, err = it.Next()
	if err != nil || !ok || isEnd {
		t.Fatalf("field 3: ok=%v isEnd=%v err=%v", ok, isEnd, err)
	}
	objIter, err := it.Current().ObjectValue()
	if err != nil {
		t.Fatalf("ObjectValue: %v", err)
	}
	ok, isEnd, err = objIter.Next()
	if err != nil || !ok || isEnd {
		t.Fatalf("obj entry: ok=%v isEnd=%v err=%v", ok, isEnd, err)
	}
	if objIter.Key() != "k" {
		t.Fatalf("obj key: got %q", objIter.Key())
	}
	if v, err := objIter.Current().U8(); err != nil || v != 7 {
		t.Fatalf("obj value: got %d, %v", v, err)
	}
	ok, isEnd, err = objIter.Next()
	if err != nil || ok || !isEnd {
		t.Fatalf("obj end: ok=%v isEnd=%v err=%v", ok, isEnd, err)
	}

	ok, isEnd, err = it.Next()
	if err != nil || !ok || isEnd {
		t.Fatalf("field 4: ok=%v isEnd=%v err=%v", ok, isEnd, err)
	}
	colIter, err := it.Current().ColumnValue()
	if err != nil {
		t.Fatalf("ColumnValue: %v", err)
	}
	if colIter.Len() != 3 {
		t.Fatalf("column len: got %d, want 3", colIter.Len())
	}
	for i, want := range []uint32{10, 20, 30} {
		v, err := colIter.U32(uint(i))
		if err != nil || v != want {
			t.Errorf("column[%d]: got %d, %v, want %d", i, v, err, want)
		}
	}

	_, isEnd, err = it.Next()
	if err != nil || !isEnd {
		t.Fatalf("root should be exhausted: isEnd=%v err=%v", isEnd, err)
	}
}

func TestColumnGrowthBeyondInitialCapacity(t *testing.T) {
	mf, root, err := BeginRootArray(DefaultConfig, NOKEY, UnsortedMultiset)
	if err != nil {
		t.Fatalf("BeginRootArray: %v", err)
	}
	col, err := root.BeginColumn(ScalarU8, UnsortedMultiset, 1)
	if err != nil {
		t.Fatalf("BeginColumn: %v", err)
	}
	values := []uint8{1, 2, 3, 4, 5}
	for _, v := range values {
		if err := col.ColumnAppendU8(v); err != nil {
			t.Fatalf("ColumnAppendU8(%d): %v", v, err)
		}
	}
	if err := root.EndColumn(col); err != nil {
		t.Fatalf("EndColumn: %v", err)
	}

	it, err := newRootArrayIter(mf, root.Begin())
	if err != nil {
		t.Fatalf("newRootArrayIter: %v", err)
	}
	ok, isEnd, err := it.Next()
	if err != nil || !ok || isEnd {
		t.Fatalf("Next: ok=%v isEnd=%v err=%v", ok, isEnd, err)
	}
	ci, err := it.Current().ColumnValue()
	if err != nil {
		t.Fatalf("ColumnValue: %v", err)
	}
	if ci.Len() != uint(len(values)) {
		t.Fatalf("len: got %d, want %d", ci.Len(), len(values))
	}
	for i, want := range values {
		v, err := ci.U8(uint(i))
		if err != nil || v != want {
			t.Errorf("column[%d]: got %d, %v, want %d", i, v, err, want)
		}
	}
}

func TestNullAndBooleanColumnCells(t *testing.T) {
	mf, root, err := BeginRootArray(DefaultConfig, NOKEY, UnsortedMultiset)
	if err != nil {
		t.Fatalf("BeginRootArray: %v", err)
	}
	col, err := root.BeginColumn(ScalarBoolean, UnsortedMultiset, 3)
	if err != nil {
		t.Fatalf("BeginColumn: %v", err)
	}
	if err := col.ColumnAppendBool(true); err != nil {
		t.Fatalf("append true: %v", err)
	}
	if err := col.ColumnAppendNull(); err != nil {
		t.Fatalf("append null: %v", err)
	}
	if err := col.ColumnAppendBool(false); err != nil {
		t.Fatalf("append false: %v", err)
	}
	if err := root.EndColumn(col); err != nil {
		t.Fatalf("EndColumn: %v", err)
	}

	it, err := newRootArrayIter(mf, root.Begin())
	if err != nil {
		t.Fatalf("newRootArrayIter: %v", err)
	}
	it.Next()
	ci, err := it.Current().ColumnValue()
	if err != nil {
		t.Fatalf("ColumnValue: %v", err)
	}
	if isNull, err := ci.IsNull(0); err != nil || isNull {
		t.Fatalf("cell 0 IsNull: %v, %v", isNull, err)
	}
	if v, err := ci.Bool(0); err != nil || !v {
		t.Fatalf("cell 0 Bool: %v, %v", v, err)
	}
	if isNull, err := ci.IsNull(1); err != nil || !isNull {
		t.Fatalf("cell 1 IsNull: %v, %v", isNull, err)
	}
	if isNull, err := ci.IsNull(2); err != nil || isNull {
		t.Fatalf("cell 2 IsNull: %v, %v", isNull, err)
	}
	if v, err := ci.Bool(2); err != nil || v {
		t.Fatalf("cell 2 Bool: %v, %v", v, err)
	}
}
