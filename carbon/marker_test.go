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

func TestColumnMarkerRoundTrip(t *testing.T) {
	for t8 := ScalarU8; t8 <= ScalarBoolean; t8++ {
		for d := Derivation(0); d < 4; d++ {
			m := ColumnMarker(t8, d)
			gotT, gotD, ok := columnScalarAndDerivation(m)
			if !ok {
				t.Fatalf("marker 0x%02x for (%v,%v) not recognized as column", m, t8, d)
			}
			if gotT != t8 || gotD != d {
				t.Errorf("round trip mismatch: (%v,%v) -> 0x%02x -> (%v,%v)", t8, d, m, gotT, gotD)
			}
			if !IsColumnOrSubtype(m) || !IsContainer(m) {
				t.Errorf("marker 0x%02x should report as column/container", m)
			}
		}
	}
}

func TestArrayObjectMarkerRoundTrip(t *testing.T) {
	for d := Derivation(0); d < 4; d++ {
		am := ArrayBeginMarker(d)
		if ArrayDerivation(am) != d || !IsArrayOrSubtype(am) {
			t.Errorf("array marker round trip failed for derivation %v", d)
		}
		om := ObjectBeginMarker(d)
		if ObjectDerivation(om) != d || !IsObjectOrSubtype(om) {
			t.Errorf("object marker round trip failed for derivation %v", d)
		}
	}
}

func TestScalarSentinelsAreNonZero(t *testing.T) {
	seen := map[uint64][]ScalarType{}
	types := []ScalarType{ScalarU8, ScalarU16, ScalarU32, ScalarU64, ScalarI8, ScalarI16, ScalarI32, ScalarI64}
	for _, ty := range types {
		s := scalarSentinelNull(ty)
		seen[s] = append(seen[s], ty)
	}
	// sentinels are only meaningful within their own type's value range, so
	// collisions across differently-sized types are fine; just check each
	// type's sentinel isn't the zero value (which would collide with
	// legitimate common data).
	for _, ty := range types {
		if scalarSentinelNull(ty) == 0 {
			t.Errorf("sentinel for %v is zero, would collide with common data", ty)
		}
	}
}

func TestColumnElementType(t *testing.T) {
	boolCol := ColumnMarker(ScalarBoolean, UnsortedMultiset)
	if m, err := ColumnElementType(boolCol, true, false); err != nil || m != MNull {
		t.Errorf("boolean null: got 0x%02x, %v", m, err)
	}
	if m, err := ColumnElementType(boolCol, false, true); err != nil || m != MTrue {
		t.Errorf("boolean true: got 0x%02x, %v", m, err)
	}
	if m, err := ColumnElementType(boolCol, false, false); err != nil || m != MFalse {
		t.Errorf("boolean false: got 0x%02x, %v", m, err)
	}

	u32Col := ColumnMarker(ScalarU32, UnsortedMultiset)
	if m, err := ColumnElementType(u32Col, false, false); err != nil || m != MU32 {
		t.Errorf("u32 element: got 0x%02x, %v", m, err)
	}
	if m, err := ColumnElementType(u32Col, true, false); err != nil || m != MNull {
		t.Errorf("u32 null element: got 0x%02x, %v", m, err)
	}

	if _, err := ColumnElementType(MU32, false, false); err == nil {
		t.Error("expected error for a non-column marker")
	}
}
