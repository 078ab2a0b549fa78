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
	"encoding/base64"
	"encoding/json"
)

// exportRootToJSON walks the root array into a plain Go value tree and
// marshals it with encoding/json, the reverse of ImportJSON.
func exportRootToJSON(root *ArrayIter) (string, *Error) {
	v, err := exportArray(root)
	if err != nil {
		return "", err
	}
	b, jerr := json.Marshal(v)
	if jerr != nil {
		return "", newErr("ToJSONCompact", INTERNALERR, "marshal failed: %v", jerr)
	}
	return string(b), nil
}

func exportArray(it *ArrayIter) ([]interface{}, *Error) {
	out := []interface{}{}
	for {
		ok, isEnd, err := it.Next()
		if err != nil {
			return nil, err
		}
		if isEnd {
			return out, nil
		}
		if !ok {
			continue
		}
		v, verr := exportField(it.Current())
		if verr != nil {
			return nil, verr
		}
		out = append(out, v)
	}
}

func exportObject(it *ObjectIter) (map[string]interface{}, *Error) {
	out := map[string]interface{}{}
	for {
		ok, isEnd, err := it.Next()
		if err != nil {
			return nil, err
		}
		if isEnd {
			return out, nil
		}
		if !ok {
			continue
		}
		v, verr := exportField(it.Current())
		if verr != nil {
			return nil, verr
		}
		out[it.Key()] = v
	}
}

func exportColumn(ci *ColumnIter) ([]interface{}, *Error) {
	out := make([]interface{}, 0, ci.Len())
	for i := uint(0); i < ci.Len(); i++ {
		isNull, err := ci.IsNull(i)
		if err != nil {
			return nil, err
		}
		if isNull {
			out = append(out, nil)
			continue
		}
		var v interface{}
		switch ci.ScalarType() {
		case ScalarBoolean:
			v, err = ci.Bool(i)
		case ScalarU8:
			v, err = ci.U8(i)
		case ScalarU16:
			v, err = ci.U16(i)
		case ScalarU32:
			v, err = ci.U32(i)
		case ScalarU64:
			v, err = ci.U64(i)
		case ScalarI8:
			v, err = ci.I8(i)
		case ScalarI16:
			v, err = ci.I16(i)
		case ScalarI32:
			v, err = ci.I32(i)
		case ScalarI64:
			v, err = ci.I64(i)
		case ScalarFloat:
			v, err = ci.Float(i)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func exportField(fa *FieldAccess) (interface{}, *Error) {
	switch {
	case fa.IsNull():
		return nil, nil
	case fa.IsTrue():
		return true, nil
	case fa.IsFalse():
		return false, nil
	}
	switch fa.marker {
	case MU8:
		return fa.U8()
	case MU16:
		return fa.U16()
	case MU32:
		return fa.U32()
	case MU64:
		return fa.U64()
	case MI8:
		return fa.I8()
	case MI16:
		return fa.I16()
	case MI32:
		return fa.I32()
	case MI64:
		return fa.I64()
	case MFloat:
		return fa.Float()
	case MString:
		return fa.String()
	case MBinary, MBinaryCustom:
		_, _, data, err := fa.Binary()
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.EncodeToString(data), nil
	}
	switch fa.kind {
	case nestedArray:
		ai, err := fa.ArrayValue()
		if err != nil {
			return nil, err
		}
		return exportArray(ai)
	case nestedObject:
		oi, err := fa.ObjectValue()
		if err != nil {
			return nil, err
		}
		return exportObject(oi)
	case nestedColumn:
		ci, err := fa.ColumnValue()
		if err != nil {
			return nil, err
		}
		return exportColumn(ci)
	default:
		return nil, newErr("exportField", BADTYPE, "unknown marker 0x%02x", fa.marker)
	}
}
