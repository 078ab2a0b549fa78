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

import "strings"

// mimeTable is a small static id<->name table for BINARY fields: a BINARY
// field stores a uintvar mime id rather than repeating the string,
// BINARY_CUSTOM falls back to an inline name for anything not in the table.
var mimeTable = []string{
	"application/octet-stream",
	"application/json",
	"application/pdf",
	"application/zip",
	"text/plain",
	"text/csv",
	"text/html",
	"image/png",
	"image/jpeg",
	"image/gif",
}

var extToMimeID = map[string]uint64{
	".json": 1,
	".pdf":  2,
	".zip":  3,
	".txt":  4,
	".csv":  5,
	".html": 6,
	".htm":  6,
	".png":  7,
	".jpg":  8,
	".jpeg": 8,
	".gif":  9,
}

const mimeOctetStream uint64 = 0

// MimeName resolves a mime id to its name, or "" if unknown.
func MimeName(id uint64) string {
	if id < uint64(len(mimeTable)) {
		return mimeTable[id]
	}
	return ""
}

// MimeIDByName resolves a mime name to its table id; ok is false if the
// name is not in the closed table (the caller should fall back to
// BINARY_CUSTOM with the name stored inline).
func MimeIDByName(name string) (id uint64, ok bool) {
	for i, n := range mimeTable {
		if n == name {
			return uint64(i), true
		}
	}
	return 0, false
}

// ResolveMime implements the three-tier mime resolution an insert of binary
// data goes through: an explicit mime name, if given, wins outright; failing
// that, the file extension of hint (a filename or path) is looked up in the
// extension table; failing that, it falls back to application/octet-stream.
// mimeID/mimeName mirror BINARY's and BINARY_CUSTOM's encodings respectively
// (exactly one is meaningful, matching FieldAccess.Binary's return shape).
func ResolveMime(explicitName, hint string) (mimeID uint64, mimeName string) {
	if explicitName != "" {
		if id, ok := MimeIDByName(explicitName); ok {
			return id, ""
		}
		return 0, explicitName
	}
	if dot := strings.LastIndexByte(hint, '.'); dot >= 0 {
		ext := strings.ToLower(hint[dot:])
		if id, ok := extToMimeID[ext]; ok {
			return id, ""
		}
	}
	return mimeOctetStream, ""
}
