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

import "github.com/google/uuid"

// KeyKind is the closed set of primary key shapes a record may carry.
type KeyKind uint8

const (
	NOKEY   KeyKind = iota // no primary key, no commit hash
	AUTOKEY                // u64, generated on create_begin
	UKEY                   // u64, caller-assigned
	IKEY                   // i64, caller-assigned
	SKEY                   // UTF-8 string, caller-assigned
)

func (k KeyKind) String() string {
	switch k {
	case NOKEY:
		return "NOKEY"
	case AUTOKEY:
		return "AUTOKEY"
	case UKEY:
		return "UKEY"
	case IKEY:
		return "IKEY"
	case SKEY:
		return "SKEY"
	default:
		return "UNKNOWN"
	}
}

// KeyHeader describes the key section at the front of a record's MemFile:
//
//	[kind byte][payload][commit hash (8 bytes), present iff kind != NOKEY]
//
// A commit hash is present if and only if the record is keyed: a record
// with no identity has nothing for a reader to pin a revision to.
type KeyHeader struct {
	Kind         KeyKind
	payloadOffset uint
	payloadLen    uint // bytes of the key payload, excluding the kind byte
}

// HeaderLen is the total size of the key section (kind byte + payload),
// not including the commit hash that may follow.
func (kh *KeyHeader) HeaderLen() uint { return 1 + kh.payloadLen }

// ReadKeyHeader parses the key section at the front of mf, whatever the
// cursor position; the cursor is restored afterwards.
func ReadKeyHeader(mf *MemFile) (*KeyHeader, *Error) {
	save := mf.Tell()
	mf.Seek(0)
	b, err := mf.Read(1)
	if err != nil {
		mf.Seek(save)
		return nil, err
	}
	kind := KeyKind(b[0])
	kh := &KeyHeader{Kind: kind, payloadOffset: 1}
	switch kind {
	case NOKEY:
		kh.payloadLen = 0
	case AUTOKEY, UKEY:
		kh.payloadLen = 8
		if _, err := mf.Read(8); err != nil {
			mf.Seek(save)
			return nil, err
		}
	case IKEY:
		kh.payloadLen = 8
		if _, err := mf.Read(8); err != nil {
			mf.Seek(save)
			return nil, err
		}
	case SKEY:
		l, n, err := mf.ReadUintvar()
		if err != nil {
			mf.Seek(save)
			return nil, err
		}
		kh.payloadLen = n + uint(l)
		if _, err := mf.Read(uint(l)); err != nil {
			mf.Seek(save)
			return nil, err
		}
	default:
		mf.Seek(save)
		return nil, newErr("ReadKeyHeader", CORRUPTED, "unknown key kind %d", kind)
	}
	mf.Seek(save)
	return kh, nil
}

// WriteKeyHeader writes a fresh key section at mf's current cursor (used
// only by BeginRootArray, before any content follows). For AUTOKEY, a value
// is generated immediately via a UUID folded down to 64 bits, mirroring how
// generated identifiers are produced elsewhere in the ecosystem rather than
// a hand-rolled counter.
func WriteKeyHeader(mf *MemFile, kind KeyKind) *Error {
	if err := mf.WriteByte(byte(kind)); err != nil {
		return err
	}
	switch kind {
	case NOKEY:
		return nil
	case AUTOKEY:
		return writeFixedU64(mf, foldUUIDTo64(uuid.New()))
	case UKEY:
		return writeFixedU64(mf, 0)
	case IKEY:
		return writeFixedU64(mf, 0)
	case SKEY:
		return mf.WriteUintvar(0) // empty string payload
	default:
		return newErr("WriteKeyHeader", BADTYPE, "unknown key kind %d", kind)
	}
}

func writeFixedU64(mf *MemFile, v uint64) *Error {
	var b [8]byte
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return mf.Write(b[:])
}

func readFixedU64(mf *MemFile, offset uint) (uint64, *Error) {
	save := mf.Tell()
	mf.Seek(offset)
	b, err := mf.Read(8)
	mf.Seek(save)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, nil
}

func foldUUIDTo64(id uuid.UUID) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(id[i]^id[i+8]) << (8 * i)
	}
	return v
}

// KeySetUnsigned overwrites a UKEY's payload. TYPEMISMATCH if the record's
// key kind is not UKEY.
func KeySetUnsigned(mf *MemFile, kh *KeyHeader, v uint64) *Error {
	if kh.Kind != UKEY {
		return newErr("KeySetUnsigned", TYPEMISMATCH, "record key kind is %v, not UKEY", kh.Kind)
	}
	save := mf.Tell()
	mf.Seek(kh.payloadOffset)
	err := writeFixedU64(mf, v)
	mf.Seek(save)
	return err
}

// KeySetSigned overwrites an IKEY's payload.
func KeySetSigned(mf *MemFile, kh *KeyHeader, v int64) *Error {
	if kh.Kind != IKEY {
		return newErr("KeySetSigned", TYPEMISMATCH, "record key kind is %v, not IKEY", kh.Kind)
	}
	save := mf.Tell()
	mf.Seek(kh.payloadOffset)
	err := writeFixedU64(mf, uint64(v))
	mf.Seek(save)
	return err
}

// KeySetString overwrites an SKEY's payload, growing or shrinking the
// MemFile in place as needed; it returns the net byte shift so callers can
// fix up any recorded offsets after it (the key section precedes
// everything else, so every later offset in the record shifts by it).
func KeySetString(mf *MemFile, kh *KeyHeader, s string) (int, *Error) {
	if kh.Kind != SKEY {
		return 0, newErr("KeySetString", TYPEMISMATCH, "record key kind is %v, not SKEY", kh.Kind)
	}
	save := mf.Tell()
	mf.Seek(kh.payloadOffset)
	oldLen, _, err := mf.ReadUintvar()
	if err != nil {
		mf.Seek(save)
		return 0, err
	}
	mf.Seek(kh.payloadOffset)
	shift, err := mf.UpdateUintvar(uint64(len(s)))
	if err != nil {
		mf.Seek(save)
		return 0, err
	}
	mf.Seek(kh.payloadOffset + uintvarLen(uint64(len(s))))
	if uint64(len(s)) > oldLen {
		err = mf.InplaceInsert(uint(uint64(len(s)) - oldLen))
	} else if uint64(len(s)) < oldLen {
		err = mf.InplaceRemove(uint(oldLen - uint64(len(s))))
	}
	if err != nil {
		mf.Seek(save)
		return 0, err
	}
	shift += len(s) - int(oldLen)
	if err := mf.Write([]byte(s)); err != nil {
		mf.Seek(save)
		return 0, err
	}
	mf.Seek(save)
	kh.payloadLen = uintvarLen(uint64(len(s))) + uint(len(s))
	return shift, nil
}

// KeyGenerate re-rolls an AUTOKEY's value. TYPEMISMATCH for any other kind.
func KeyGenerate(mf *MemFile, kh *KeyHeader) (uint64, *Error) {
	if kh.Kind != AUTOKEY {
		return 0, newErr("KeyGenerate", TYPEMISMATCH, "record key kind is %v, not AUTOKEY", kh.Kind)
	}
	v := foldUUIDTo64(uuid.New())
	save := mf.Tell()
	mf.Seek(kh.payloadOffset)
	err := writeFixedU64(mf, v)
	mf.Seek(save)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// Unsigned reads a UKEY/AUTOKEY payload.
func (kh *KeyHeader) Unsigned(mf *MemFile) (uint64, *Error) {
	if kh.Kind != UKEY && kh.Kind != AUTOKEY {
		return 0, newErr("KeyHeader.Unsigned", TYPEMISMATCH, "record key kind is %v", kh.Kind)
	}
	return readFixedU64(mf, kh.payloadOffset)
}

// Signed reads an IKEY payload.
func (kh *KeyHeader) Signed(mf *MemFile) (int64, *Error) {
	if kh.Kind != IKEY {
		return 0, newErr("KeyHeader.Signed", TYPEMISMATCH, "record key kind is %v", kh.Kind)
	}
	v, err := readFixedU64(mf, kh.payloadOffset)
	return int64(v), err
}

// StringKey reads an SKEY payload.
func (kh *KeyHeader) StringKey(mf *MemFile) (string, *Error) {
	if kh.Kind != SKEY {
		return "", newErr("KeyHeader.StringKey", TYPEMISMATCH, "record key kind is %v", kh.Kind)
	}
	save := mf.Tell()
	mf.Seek(kh.payloadOffset)
	l, n, err := mf.ReadUintvar()
	if err != nil {
		mf.Seek(save)
		return "", err
	}
	b, err := mf.Read(uint(l))
	mf.Seek(save)
	if err != nil {
		return "", err
	}
	_ = n
	return string(b), nil
}
