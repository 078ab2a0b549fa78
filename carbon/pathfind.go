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

import "strconv"

// ColumnElementRef names one cell of a column, the leaf a dot path can
// resolve to when its last segment lands inside a column rather than on an
// array/object field: a numeric segment addresses either kind of container.
type ColumnElementRef struct {
	Col   *ColumnIter
	Index uint
}

// PathResult is the outcome of resolving a dot path: exactly one of Field
// or ColumnElem is populated. RemovalStart/RemovalEnd bound the bytes
// revise_remove must delete for a Field result — which, for an object
// property, includes the key, not just the value.
type PathResult struct {
	Field      *FieldAccess
	ColumnElem *ColumnElementRef

	RemovalStart uint
	RemovalEnd   uint
}

func parsePathSegments(path string) ([]string, *Error) {
	if path == "" {
		return nil, newErr("FindPath", DOT_PATH_PARSERR, "empty path")
	}
	segs := make([]string, 0, 4)
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			if i == start {
				return nil, newErr("FindPath", DOT_PATH_PARSERR, "empty segment in path %q", path)
			}
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	return segs, nil
}

// FindPath resolves a dot-separated path against the record's root array,
// descending through arrays (numeric index), objects (string key), and
// columns (numeric index, which must be the path's final segment). A path
// whose first segment is not numeric is resolved against the root's first
// element (where a top-level JSON object is stored), so "a.1" reads as
// "0.a.1".
func FindPath(root *ArrayIter, path string) (*PathResult, *Error) {
	segs, err := parsePathSegments(path)
	if err != nil {
		return nil, err
	}
	if _, convErr := strconv.ParseUint(segs[0], 10, 64); convErr != nil {
		segs = append([]string{"0"}, segs...)
	}
	return walkArray(root, segs)
}

func walkArray(it *ArrayIter, segs []string) (*PathResult, *Error) {
	target, convErr := strconv.ParseUint(segs[0], 10, 64)
	if convErr != nil {
		return nil, newErr("FindPath", DOT_PATH_PARSERR, "segment %q is not a numeric array index", segs[0])
	}
	var n uint64
	for {
		ok, isEnd, err := it.Next()
		if err != nil {
			return nil, err
		}
		if isEnd {
			return nil, newErr("FindPath", NOTFOUND, "array index %d out of bounds", target)
		}
		if !ok {
			continue
		}
		if n == target {
			if len(segs) == 1 {
				fa := it.Current()
				span, serr := fieldByteSpan(it.mf, fa.selfOffset)
				if serr != nil {
					return nil, serr
				}
				return &PathResult{Field: fa, RemovalStart: fa.selfOffset, RemovalEnd: fa.selfOffset + span}, nil
			}
			return descend(it.Current(), segs[1:])
		}
		n++
	}
}

func walkObject(it *ObjectIter, segs []string) (*PathResult, *Error) {
	key := segs[0]
	for {
		ok, isEnd, err := it.Next()
		if err != nil {
			return nil, err
		}
		if isEnd {
			return nil, newErr("FindPath", NOTFOUND, "object key %q not found", key)
		}
		if !ok {
			continue
		}
		if it.Key() == key {
			if len(segs) == 1 {
				fa := it.Current()
				span, serr := fieldByteSpan(it.mf, fa.selfOffset)
				if serr != nil {
					return nil, serr
				}
				return &PathResult{Field: fa, RemovalStart: it.EntryStart(), RemovalEnd: fa.selfOffset + span}, nil
			}
			return descend(it.Current(), segs[1:])
		}
	}
}

func walkColumn(ci *ColumnIter, segs []string) (*PathResult, *Error) {
	idx, convErr := strconv.ParseUint(segs[0], 10, 64)
	if convErr != nil {
		return nil, newErr("FindPath", DOT_PATH_PARSERR, "segment %q is not a numeric column index", segs[0])
	}
	if len(segs) > 1 {
		return nil, newErr("FindPath", ILLEGALOP, "cannot descend past a column element")
	}
	if idx >= uint64(ci.Len()) {
		return nil, newErr("FindPath", NOTFOUND, "column index %d out of bounds", idx)
	}
	return &PathResult{ColumnElem: &ColumnElementRef{Col: ci, Index: uint(idx)}}, nil
}

func descend(fa *FieldAccess, rest []string) (*PathResult, *Error) {
	if len(rest) == 0 {
		return &PathResult{Field: fa}, nil
	}
	switch fa.kind {
	case nestedArray:
		ai, err := fa.ArrayValue()
		if err != nil {
			return nil, err
		}
		return walkArray(ai, rest)
	case nestedObject:
		oi, err := fa.ObjectValue()
		if err != nil {
			return nil, err
		}
		return walkObject(oi, rest)
	case nestedColumn:
		ci, err := fa.ColumnValue()
		if err != nil {
			return nil, err
		}
		return walkColumn(ci, rest)
	default:
		return nil, newErr("FindPath", NOTFOUND, "path continues past a scalar field")
	}
}
