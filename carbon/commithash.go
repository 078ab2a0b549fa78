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

import "crypto/sha256"

// commitHashLen is the width of the commit hash field that follows the key
// header whenever the record carries a key.
const commitHashLen = 8

// computeCommitHash derives the 64-bit commit hash from a record's payload
// region — callers must pass mf.Bytes()[rootBegin:], never the whole buffer,
// since the hash covers the raw payload region with the key excluded, and
// that region also excludes the commit-hash field itself, which would
// otherwise self-reference. It truncates a sha256 digest down to its first
// 8 bytes read as a little-endian uint64.
func computeCommitHash(content []byte) uint64 {
	sum := sha256.Sum256(content)
	var v uint64
	for i := 0; i < commitHashLen; i++ {
		v |= uint64(sum[i]) << (8 * i)
	}
	return v
}

// readCommitHash reads the 8-byte commit hash at offset (immediately after
// the key header).
func readCommitHash(mf *MemFile, offset uint) (uint64, *Error) {
	return readFixedU64(mf, offset)
}

// writeCommitHash overwrites the 8-byte commit hash at offset.
func writeCommitHash(mf *MemFile, offset uint, hash uint64) *Error {
	save := mf.Tell()
	mf.Seek(offset)
	err := writeFixedU64(mf, hash)
	mf.Seek(save)
	return err
}
