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

func TestFindPathArrayObjectColumn(t *testing.T) {
	mf, err := ImportJSON(DefaultConfig, NOKEY, []byte(`[{"a":[10,20,30]},{"a":[40,50,60]}]`))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	kh, _ := ReadKeyHeader(mf)
	root, _ := newRootArrayIter(mf, kh.HeaderLen())

	res, ferr := FindPath(root, "1.a.1")
	if ferr != nil {
		t.Fatalf("FindPath(1.a.1): %v", ferr)
	}
	if res.ColumnElem == nil {
		t.Fatal("expected a column element result")
	}
	v, verr := res.ColumnElem.Col.U8(res.ColumnElem.Index)
	if verr != nil {
		t.Fatalf("reading resolved column cell: %v", verr)
	}
	if v != 50 {
		t.Fatalf("got %d, want 50", v)
	}
}

func TestFindPathNotFound(t *testing.T) {
	mf, err := ImportJSON(DefaultConfig, NOKEY, []byte(`[{"a":1}]`))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	kh, _ := ReadKeyHeader(mf)
	root, _ := newRootArrayIter(mf, kh.HeaderLen())

	if _, ferr := FindPath(root, "0.missing"); ferr == nil || ferr.Kind != NOTFOUND {
		t.Fatalf("expected NOTFOUND, got %v", ferr)
	}
	root2, _ := newRootArrayIter(mf, kh.HeaderLen())
	if _, ferr := FindPath(root2, "5"); ferr == nil || ferr.Kind != NOTFOUND {
		t.Fatalf("expected NOTFOUND for out-of-range index, got %v", ferr)
	}
}

func TestFindPathRemovalBoundsIncludeObjectKey(t *testing.T) {
	mf, err := ImportJSON(DefaultConfig, NOKEY, []byte(`[{"a":1,"bb":2}]`))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	kh, _ := ReadKeyHeader(mf)
	root, _ := newRootArrayIter(mf, kh.HeaderLen())
	res, ferr := FindPath(root, "0.a")
	if ferr != nil {
		t.Fatalf("FindPath(0.a): %v", ferr)
	}
	// "a" sorts first; its entry is [keylen=1]['a'][marker][i8 payload] = 4
	// bytes, starting right after the object's begin marker.
	if res.RemovalEnd-res.RemovalStart != 4 {
		t.Fatalf("removal span: got %d, want 4 (key+value)", res.RemovalEnd-res.RemovalStart)
	}
}
