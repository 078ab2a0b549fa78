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

import (
	"encoding/json"
	"math"
	"sort"
)

// ImportJSON decodes data with encoding/json and re-encodes it as a fresh
// record. A JSON array becomes the record's root directly; any other
// top-level value is wrapped as the root array's sole element, since every
// record's root is an array.
//
// Every JSON array of uniformly-typed scalars is encoded as a column
// instead of a regular array, narrowing to the smallest scalar type that
// covers every element.
func ImportJSON(cfg Config, keyKind KeyKind, data []byte) (*MemFile, *Error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, newErr("ImportJSON", CORRUPTED, "invalid JSON: %v", err)
	}
	mf, root, berr := BeginRootArray(cfg, keyKind, UnsortedMultiset)
	if berr != nil {
		return nil, berr
	}
	if arr, ok := v.([]interface{}); ok {
		for _, e := range arr {
			if err := importValue(root, e, cfg); err != nil {
				return nil, err
			}
		}
	} else {
		if err := importValue(root, v, cfg); err != nil {
			return nil, err
		}
	}
	return mf, nil
}

func importValue(p *Inserter, v interface{}, cfg Config) *Error {
	switch val := v.(type) {
	case nil:
		return p.InsertNull()
	case bool:
		if val {
			return p.InsertTrue()
		}
		return p.InsertFalse()
	case float64:
		return importNumber(p, val)
	case string:
		return p.InsertString(val)
	case []interface{}:
		return importArrayValue(p, val, cfg)
	case map[string]interface{}:
		return importObjectValue(p, val, cfg)
	default:
		return newErr("importValue", UNSUPPORTEDTYPE, "unsupported JSON value of type %T", v)
	}
}

// importNumber picks the narrowest scalar marker that round-trips val,
// favoring the signed ladder (a literal with no sign evidence either way
// still fits i8/i16/i32/i64 for any value encoding/json can produce as an
// integer), and only reaching for u64 once a value exceeds int64's range.
func importNumber(p *Inserter, val float64) *Error {
	if val != math.Trunc(val) {
		return p.InsertFloat(val)
	}
	switch {
	case val >= -128 && val <= 127:
		return p.InsertI8(int8(val))
	case val >= -32768 && val <= 32767:
		return p.InsertI16(int16(val))
	case val >= -2147483648 && val <= 2147483647:
		return p.InsertI32(int32(val))
	case val >= -9223372036854775808 && val <= 9223372036854775807:
		return p.InsertI64(int64(val))
	default:
		return p.InsertU64(uint64(val))
	}
}

func importArrayValue(p *Inserter, arr []interface{}, cfg Config) *Error {
	t, homogeneous := classifyArray(arr)
	if homogeneous && len(arr) > 0 {
		col, err := p.BeginColumn(t, UnsortedMultiset, uint(len(arr)))
		if err != nil {
			return err
		}
		for _, e := range arr {
			if err := appendColumnValue(col, t, e); err != nil {
				return err
			}
		}
		return p.EndColumn(col)
	}
	child, err := p.BeginArray(cfg.JSONArrayCapacityHint*uint(len(arr)), UnsortedMultiset)
	if err != nil {
		return err
	}
	for _, e := range arr {
		if err := importValue(child, e, cfg); err != nil {
			return err
		}
	}
	return p.EndArray(child)
}

func importObjectValue(p *Inserter, m map[string]interface{}, cfg Config) *Error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys) // encoding/json's map decoding has no stable order; impose one
	child, err := p.BeginObject(cfg.JSONArrayCapacityHint*uint(len(m)), UnsortedSet)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := child.PutKey(k); err != nil {
			return err
		}
		if err := importValue(child, m[k], cfg); err != nil {
			return err
		}
	}
	return p.EndObject(child)
}

// classifyArray reports whether arr is entirely nulls/booleans/numbers
// (candidate for column storage) and, if so, the narrowest common scalar
// type. A mix of types, or any string/array/object element, disqualifies
// column storage. Nulls interleaved with booleans or numbers do not
// disqualify column storage, since every column type has a null sentinel
// cell value; an array of nothing but nulls has no numeric/boolean evidence
// to narrow on, so it classifies as the narrowest type, u8.
func classifyArray(arr []interface{}) (ScalarType, bool) {
	if len(arr) == 0 {
		return 0, false
	}
	allBool, allNum, sawNonNull := true, true, false
	for _, e := range arr {
		switch e.(type) {
		case nil:
			// neither confirms nor disqualifies a homogeneity class
		case bool:
			allNum = false
			sawNonNull = true
		case float64:
			allBool = false
			sawNonNull = true
		default:
			return 0, false
		}
	}
	if !sawNonNull {
		return ScalarU8, true
	}
	if allBool {
		return ScalarBoolean, true
	}
	if !allNum {
		return 0, false
	}
	sawInt, sawFraction := false, false
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, e := range arr {
		f, ok := e.(float64)
		if !ok {
			continue // null
		}
		if f == math.Trunc(f) {
			sawInt = true
		} else {
			sawFraction = true
		}
		if f < minV {
			minV = f
		}
		if f > maxV {
			maxV = f
		}
	}
	if sawInt && sawFraction {
		// a mix of integral and fractional literals is not homogeneous;
		// each element keeps its own narrowest type in a variable array.
		return 0, false
	}
	if sawFraction {
		return ScalarFloat, true
	}
	return smallestIntType(minV, maxV), true
}

func smallestIntType(minV, maxV float64) ScalarType {
	if minV >= 0 {
		switch {
		case maxV < 0xFF:
			return ScalarU8
		case maxV < 0xFFFF:
			return ScalarU16
		case maxV < 0xFFFFFFFF:
			return ScalarU32
		default:
			return ScalarU64
		}
	}
	switch {
	case minV > -127 && maxV < 127:
		return ScalarI8
	case minV > -32767 && maxV < 32767:
		return ScalarI16
	case minV > -2147483647 && maxV < 2147483647:
		return ScalarI32
	default:
		return ScalarI64
	}
}

func appendColumnValue(col *Inserter, t ScalarType, v interface{}) *Error {
	if v == nil {
		return col.ColumnAppendNull()
	}
	switch t {
	case ScalarBoolean:
		b, _ := v.(bool)
		return col.ColumnAppendBool(b)
	case ScalarFloat:
		f, _ := v.(float64)
		return col.ColumnAppendFloat(f)
	case ScalarU8:
		f, _ := v.(float64)
		return col.ColumnAppendU8(uint8(f))
	case ScalarU16:
		f, _ := v.(float64)
		return col.ColumnAppendU16(uint16(f))
	case ScalarU32:
		f, _ := v.(float64)
		return col.ColumnAppendU32(uint32(f))
	case ScalarU64:
		f, _ := v.(float64)
		return col.ColumnAppendU64(uint64(f))
	case ScalarI8:
		f, _ := v.(float64)
		return col.ColumnAppendI8(int8(f))
	case ScalarI16:
		f, _ := v.(float64)
		return col.ColumnAppendI16(int16(f))
	case ScalarI32:
		f, _ := v.(float64)
		return col.ColumnAppendI32(int32(f))
	case ScalarI64:
		f, _ := v.(float64)
		return col.ColumnAppendI64(int64(f))
	default:
		return newErr("appendColumnValue", INTERNALERR, "unhandled scalar type %v", t)
	}
}
