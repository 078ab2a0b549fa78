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

import "math"

// Inserter is the single-pass write cursor the Insertion Engine hands out
// while building a record's content (create_begin/JSON import). It tracks
// enough bookkeeping to grow the container it is appending into in place,
// propagating the resulting byte shift up through every enclosing container
// still open for writing.
//
// Inserter only models the strictly left-to-right build path. Mutating an
// already-closed record (revise_*) goes through span.go's fieldByteSpan and
// MemFile's InplaceInsert/InplaceRemove directly instead, since at that
// point siblings exist on both sides of the edit.
type Inserter struct {
	mf     *MemFile
	parent *Inserter
	isRoot bool
	cfg    Config

	kind       nestedKind
	derivation Derivation

	// column-only bookkeeping
	colType        ScalarType
	numElemsOffset uint
	capacityOffset uint
	payloadOffset  uint
	numElems       uint64
	capacityElems  uint64

	beginOffset uint
	writeCursor uint
	endOffset   uint // array/object: end marker offset; column: payloadEnd
}

// BeginRootArray starts a fresh record: it writes the key header (and a
// zeroed commit-hash placeholder, if keyed) and opens the root array, whose
// body spans to end-of-buffer and therefore carries no end marker and no
// reserved padding.
func BeginRootArray(cfg Config, keyKind KeyKind, derivation Derivation) (*MemFile, *Inserter, *Error) {
	mf := NewMemFile(cfg, 0)
	if err := WriteKeyHeader(mf, keyKind); err != nil {
		return nil, nil, err
	}
	if keyKind != NOKEY {
		if err := mf.Write(make([]byte, commitHashLen)); err != nil {
			return nil, nil, err
		}
	}
	begin := mf.Tell()
	if err := mf.WriteByte(byte(ArrayBeginMarker(derivation))); err != nil {
		return nil, nil, err
	}
	root := &Inserter{mf: mf, isRoot: true, cfg: cfg, kind: nestedArray, derivation: derivation, beginOffset: begin, writeCursor: mf.Tell()}
	return mf, root, nil
}

func (p *Inserter) ensureRoom(n uint) *Error {
	if n == 0 {
		return nil
	}
	if p.isRoot {
		return nil // plain append; mf.Write grows the buffer itself
	}
	avail := p.endOffset - p.writeCursor
	if n <= avail {
		return nil
	}
	growBy := n - avail
	if growBy < avail {
		growBy = avail // crude doubling heuristic
	}
	if growBy == 0 {
		growBy = n
	}
	mf := p.mf
	mf.Seek(p.endOffset)
	if err := mf.InplaceInsert(growBy); err != nil {
		return err
	}
	p.endOffset += growBy
	if p.parent != nil {
		return p.parent.onChildGrew(growBy)
	}
	return nil
}

func (p *Inserter) onChildGrew(n uint) *Error {
	if p.isRoot {
		return nil
	}
	p.endOffset += n
	if p.parent != nil {
		return p.parent.onChildGrew(n)
	}
	return nil
}

func (p *Inserter) put(size uint, fn func(mf *MemFile) *Error) *Error {
	if p.kind == nestedColumn {
		return newErr("Inserter.put", ILLEGALOP, "cannot write a scalar field directly into a column")
	}
	if err := p.ensureRoom(size); err != nil {
		return err
	}
	p.mf.Seek(p.writeCursor)
	if err := fn(p.mf); err != nil {
		return err
	}
	p.writeCursor = p.mf.Tell()
	return nil
}

func writeLEBytes(mf *MemFile, v uint64, n uint) *Error {
	var b [8]byte
	for i := uint(0); i < n; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return mf.Write(b[:n])
}

// PutKey writes an object property's key (uintvar length + UTF-8 bytes).
// The value field must be inserted immediately afterward via one of the
// scalar/container Insert*/Begin* calls on the same Inserter.
func (p *Inserter) PutKey(key string) *Error {
	if p.kind != nestedObject {
		return newErr("PutKey", ILLEGALOP, "PutKey is only valid on an object inserter")
	}
	size := uintvarLen(uint64(len(key))) + uint(len(key))
	return p.put(size, func(mf *MemFile) *Error {
		if err := mf.WriteUintvar(uint64(len(key))); err != nil {
			return err
		}
		return mf.Write([]byte(key))
	})
}

// --- scalar field insertion ---

func (p *Inserter) InsertNull() *Error  { return p.put(1, func(mf *MemFile) *Error { return mf.WriteByte(byte(MNull)) }) }
func (p *Inserter) InsertTrue() *Error  { return p.put(1, func(mf *MemFile) *Error { return mf.WriteByte(byte(MTrue)) }) }
func (p *Inserter) InsertFalse() *Error { return p.put(1, func(mf *MemFile) *Error { return mf.WriteByte(byte(MFalse)) }) }

func (p *Inserter) InsertU8(v uint8) *Error {
	return p.put(2, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MU8)); err != nil {
			return err
		}
		return writeLEBytes(mf, uint64(v), 1)
	})
}
func (p *Inserter) InsertU16(v uint16) *Error {
	return p.put(3, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MU16)); err != nil {
			return err
		}
		return writeLEBytes(mf, uint64(v), 2)
	})
}
func (p *Inserter) InsertU32(v uint32) *Error {
	return p.put(5, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MU32)); err != nil {
			return err
		}
		return writeLEBytes(mf, uint64(v), 4)
	})
}
func (p *Inserter) InsertU64(v uint64) *Error {
	return p.put(9, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MU64)); err != nil {
			return err
		}
		return writeLEBytes(mf, v, 8)
	})
}
func (p *Inserter) InsertI8(v int8) *Error {
	return p.put(2, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MI8)); err != nil {
			return err
		}
		return writeLEBytes(mf, uint64(uint8(v)), 1)
	})
}
func (p *Inserter) InsertI16(v int16) *Error {
	return p.put(3, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MI16)); err != nil {
			return err
		}
		return writeLEBytes(mf, uint64(uint16(v)), 2)
	})
}
func (p *Inserter) InsertI32(v int32) *Error {
	return p.put(5, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MI32)); err != nil {
			return err
		}
		return writeLEBytes(mf, uint64(uint32(v)), 4)
	})
}
func (p *Inserter) InsertI64(v int64) *Error {
	return p.put(9, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MI64)); err != nil {
			return err
		}
		return writeLEBytes(mf, uint64(v), 8)
	})
}
func (p *Inserter) InsertFloat(v float64) *Error {
	return p.put(9, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MFloat)); err != nil {
			return err
		}
		return writeLEBytes(mf, math.Float64bits(v), 8)
	})
}

func (p *Inserter) InsertString(s string) *Error {
	size := 1 + uintvarLen(uint64(len(s))) + uint(len(s))
	return p.put(size, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MString)); err != nil {
			return err
		}
		if err := mf.WriteUintvar(uint64(len(s))); err != nil {
			return err
		}
		return mf.Write([]byte(s))
	})
}

// InsertBinary resolves the three-tier mime lookup and inserts either a
// BINARY (known mime id) or BINARY_CUSTOM (inline name) field.
func (p *Inserter) InsertBinary(data []byte, explicitMimeName, filenameHint string) *Error {
	mimeID, mimeName := ResolveMime(explicitMimeName, filenameHint)
	if mimeName == "" {
		size := 1 + uintvarLen(mimeID) + uintvarLen(uint64(len(data))) + uint(len(data))
		return p.put(size, func(mf *MemFile) *Error {
			if err := mf.WriteByte(byte(MBinary)); err != nil {
				return err
			}
			if err := mf.WriteUintvar(mimeID); err != nil {
				return err
			}
			if err := mf.WriteUintvar(uint64(len(data))); err != nil {
				return err
			}
			return mf.Write(data)
		})
	}
	size := 1 + uintvarLen(uint64(len(mimeName))) + uint(len(mimeName)) + uintvarLen(uint64(len(data))) + uint(len(data))
	return p.put(size, func(mf *MemFile) *Error {
		if err := mf.WriteByte(byte(MBinaryCustom)); err != nil {
			return err
		}
		if err := mf.WriteUintvar(uint64(len(mimeName))); err != nil {
			return err
		}
		if err := mf.Write([]byte(mimeName)); err != nil {
			return err
		}
		if err := mf.WriteUintvar(uint64(len(data))); err != nil {
			return err
		}
		return mf.Write(data)
	})
}

// --- nested containers ---

// BeginArray opens a nested array inside p (an array or object inserter),
// reserving capacityHint bytes of body for future growth. The returned
// Inserter must be closed with EndArray before p is used again.
func (p *Inserter) BeginArray(capacityHint uint, derivation Derivation) (*Inserter, *Error) {
	if p.kind == nestedColumn {
		return nil, newErr("BeginArray", ILLEGALOP, "cannot nest an array inside a column")
	}
	if err := p.ensureRoom(1 + capacityHint + 1); err != nil {
		return nil, err
	}
	mf := p.mf
	mf.Seek(p.writeCursor)
	begin := mf.Tell()
	if err := mf.WriteByte(byte(ArrayBeginMarker(derivation))); err != nil {
		return nil, err
	}
	bodyStart := mf.Tell()
	endOffset := bodyStart + capacityHint
	mf.Seek(endOffset)
	if err := mf.WriteByte(byte(MArrayEnd)); err != nil {
		return nil, err
	}
	return &Inserter{mf: mf, parent: p, cfg: p.cfg, kind: nestedArray, derivation: derivation,
		beginOffset: begin, writeCursor: bodyStart, endOffset: endOffset}, nil
}

// EndArray finalizes a nested array opened with BeginArray, advancing p's
// write cursor past it.
func (p *Inserter) EndArray(child *Inserter) *Error {
	p.writeCursor = child.endOffset + 1
	return nil
}

// BeginObject opens a nested object inside p.
func (p *Inserter) BeginObject(capacityHint uint, derivation Derivation) (*Inserter, *Error) {
	if p.kind == nestedColumn {
		return nil, newErr("BeginObject", ILLEGALOP, "cannot nest an object inside a column")
	}
	if err := p.ensureRoom(1 + capacityHint + 1); err != nil {
		return nil, err
	}
	mf := p.mf
	mf.Seek(p.writeCursor)
	begin := mf.Tell()
	if err := mf.WriteByte(byte(ObjectBeginMarker(derivation))); err != nil {
		return nil, err
	}
	bodyStart := mf.Tell()
	endOffset := bodyStart + capacityHint
	mf.Seek(endOffset)
	if err := mf.WriteByte(byte(MObjectEnd)); err != nil {
		return nil, err
	}
	return &Inserter{mf: mf, parent: p, cfg: p.cfg, kind: nestedObject, derivation: derivation,
		beginOffset: begin, writeCursor: bodyStart, endOffset: endOffset}, nil
}

// EndObject finalizes a nested object opened with BeginObject.
func (p *Inserter) EndObject(child *Inserter) *Error {
	p.writeCursor = child.endOffset + 1
	return nil
}

// BeginColumn opens a nested homogeneous column inside p, pre-filling
// capacityHint cells with the type's null sentinel.
func (p *Inserter) BeginColumn(t ScalarType, derivation Derivation, capacityHint uint) (*Inserter, *Error) {
	if p.kind == nestedColumn {
		return nil, newErr("BeginColumn", ILLEGALOP, "cannot nest a column inside a column")
	}
	stride := columnElementStride(t)
	numElemsLen := uintvarLen(0)
	capLen := uintvarLen(uint64(capacityHint))
	total := 1 + numElemsLen + capLen + uint(capacityHint)*stride
	if err := p.ensureRoom(total); err != nil {
		return nil, err
	}
	mf := p.mf
	mf.Seek(p.writeCursor)
	begin := mf.Tell()
	if err := mf.WriteByte(byte(ColumnMarker(t, derivation))); err != nil {
		return nil, err
	}
	numElemsOffset := mf.Tell()
	if err := mf.WriteUintvar(0); err != nil {
		return nil, err
	}
	capacityOffset := mf.Tell()
	if err := mf.WriteUintvar(uint64(capacityHint)); err != nil {
		return nil, err
	}
	payloadOffset := mf.Tell()
	sentinel := scalarSentinelNull(t)
	if t == ScalarBoolean {
		sentinel = uint64(BoolCellNull)
	}
	for i := uint(0); i < capacityHint; i++ {
		if err := writeLEBytes(mf, sentinel, stride); err != nil {
			return nil, err
		}
	}
	payloadEnd := mf.Tell()
	return &Inserter{mf: mf, parent: p, cfg: p.cfg, kind: nestedColumn, colType: t, derivation: derivation,
		beginOffset: begin, numElemsOffset: numElemsOffset, capacityOffset: capacityOffset,
		payloadOffset: payloadOffset, capacityElems: uint64(capacityHint), writeCursor: payloadOffset,
		endOffset: payloadEnd}, nil
}

// EndColumn finalizes a nested column opened with BeginColumn.
func (p *Inserter) EndColumn(child *Inserter) *Error {
	p.writeCursor = child.endOffset
	return nil
}

func (c *Inserter) columnCellOffset(i uint64) uint {
	return c.payloadOffset + uint(i)*columnElementStride(c.colType)
}

func (c *Inserter) growColumnIfNeeded(extra uint) *Error {
	if c.numElems+uint64(extra) <= c.capacityElems {
		return nil
	}
	growBy := extra
	if uint64(growBy) < c.capacityElems {
		growBy = uint(c.capacityElems)
	}
	if growBy == 0 {
		growBy = extra
	}
	mf := c.mf
	newCapacity := c.capacityElems + uint64(growBy)
	mf.Seek(c.capacityOffset)
	shift, err := mf.UpdateUintvar(newCapacity)
	if err != nil {
		return err
	}
	if shift != 0 {
		c.payloadOffset = uint(int(c.payloadOffset) + shift)
	}
	stride := columnElementStride(c.colType)
	insertAt := c.payloadOffset + uint(c.capacityElems)*stride
	growBytes := uint(growBy) * stride
	mf.Seek(insertAt)
	if err := mf.InplaceInsert(growBytes); err != nil {
		return err
	}
	sentinel := scalarSentinelNull(c.colType)
	if c.colType == ScalarBoolean {
		sentinel = uint64(BoolCellNull)
	}
	for i := uint(0); i < uint(growBy); i++ {
		mf.Seek(insertAt + i*stride)
		if err := writeLEBytes(mf, sentinel, stride); err != nil {
			return err
		}
	}
	c.capacityElems = newCapacity
	c.endOffset = c.payloadOffset + uint(c.capacityElems)*stride
	totalShift := uint(shift) + growBytes
	if c.parent != nil {
		if err := c.parent.onChildGrew(totalShift); err != nil {
			return err
		}
	}
	c.writeCursor = c.columnCellOffset(c.numElems)
	return nil
}

func (c *Inserter) updateNumElems() *Error {
	mf := c.mf
	mf.Seek(c.numElemsOffset)
	shift, err := mf.UpdateUintvar(c.numElems)
	if err != nil {
		return err
	}
	if shift != 0 {
		c.capacityOffset = uint(int(c.capacityOffset) + shift)
		c.payloadOffset = uint(int(c.payloadOffset) + shift)
		c.endOffset = uint(int(c.endOffset) + shift)
		if c.parent != nil {
			if err := c.parent.onChildGrew(uint(shift)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Inserter) columnAppendRaw(raw uint64) *Error {
	if c.kind != nestedColumn {
		return newErr("ColumnAppend", ILLEGALOP, "not a column inserter")
	}
	if err := c.growColumnIfNeeded(1); err != nil {
		return err
	}
	mf := c.mf
	mf.Seek(c.columnCellOffset(c.numElems))
	if err := writeLEBytes(mf, raw, columnElementStride(c.colType)); err != nil {
		return err
	}
	c.numElems++
	return c.updateNumElems()
}

func (c *Inserter) ColumnAppendNull() *Error {
	if c.colType == ScalarBoolean {
		return c.columnAppendRaw(uint64(BoolCellNull))
	}
	return c.columnAppendRaw(scalarSentinelNull(c.colType))
}
func (c *Inserter) ColumnAppendBool(v bool) *Error {
	if c.colType != ScalarBoolean {
		return newErr("ColumnAppendBool", TYPEMISMATCH, "column holds %v", c.colType)
	}
	if v {
		return c.columnAppendRaw(uint64(BoolCellTrue))
	}
	return c.columnAppendRaw(uint64(BoolCellFalse))
}
func (c *Inserter) ColumnAppendU8(v uint8) *Error {
	if c.colType != ScalarU8 {
		return newErr("ColumnAppendU8", TYPEMISMATCH, "column holds %v", c.colType)
	}
	return c.columnAppendRaw(uint64(v))
}
func (c *Inserter) ColumnAppendU16(v uint16) *Error {
	if c.colType != ScalarU16 {
		return newErr("ColumnAppendU16", TYPEMISMATCH, "column holds %v", c.colType)
	}
	return c.columnAppendRaw(uint64(v))
}
func (c *Inserter) ColumnAppendU32(v uint32) *Error {
	if c.colType != ScalarU32 {
		return newErr("ColumnAppendU32", TYPEMISMATCH, "column holds %v", c.colType)
	}
	return c.columnAppendRaw(uint64(v))
}
func (c *Inserter) ColumnAppendU64(v uint64) *Error {
	if c.colType != ScalarU64 {
		return newErr("ColumnAppendU64", TYPEMISMATCH, "column holds %v", c.colType)
	}
	return c.columnAppendRaw(v)
}
func (c *Inserter) ColumnAppendI8(v int8) *Error {
	if c.colType != ScalarI8 {
		return newErr("ColumnAppendI8", TYPEMISMATCH, "column holds %v", c.colType)
	}
	return c.columnAppendRaw(uint64(uint8(v)))
}
func (c *Inserter) ColumnAppendI16(v int16) *Error {
	if c.colType != ScalarI16 {
		return newErr("ColumnAppendI16", TYPEMISMATCH, "column holds %v", c.colType)
	}
	return c.columnAppendRaw(uint64(uint16(v)))
}
func (c *Inserter) ColumnAppendI32(v int32) *Error {
	if c.colType != ScalarI32 {
		return newErr("ColumnAppendI32", TYPEMISMATCH, "column holds %v", c.colType)
	}
	return c.columnAppendRaw(uint64(uint32(v)))
}
func (c *Inserter) ColumnAppendI64(v int64) *Error {
	if c.colType != ScalarI64 {
		return newErr("ColumnAppendI64", TYPEMISMATCH, "column holds %v", c.colType)
	}
	return c.columnAppendRaw(uint64(v))
}
func (c *Inserter) ColumnAppendFloat(v float64) *Error {
	if c.colType != ScalarFloat {
		return newErr("ColumnAppendFloat", TYPEMISMATCH, "column holds %v", c.colType)
	}
	return c.columnAppendRaw(math.Float64bits(v))
}

// Begin returns the offset of this inserter's own begin marker (or, for a
// root array, its implicit begin marker offset).
func (p *Inserter) Begin() uint { return p.beginOffset }

// Tell returns the inserter's current write position.
func (p *Inserter) Tell() uint { return p.writeCursor }
