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

import "fmt"

// Kind is the closed set of error categories a Carbon operation can fail with.
type Kind uint8

const (
	NULLPTR Kind = iota
	OOM
	OUTOFBOUNDS
	NOTFOUND
	TYPEMISMATCH
	BADTYPE
	CORRUPTED
	OUTDATED
	DOT_PATH_PARSERR
	UNSUPPORTEDTYPE
	INTERNALERR
	ILLEGALOP
)

func (k Kind) String() string {
	switch k {
	case NULLPTR:
		return "NULLPTR"
	case OOM:
		return "OOM"
	case OUTOFBOUNDS:
		return "OUTOFBOUNDS"
	case NOTFOUND:
		return "NOTFOUND"
	case TYPEMISMATCH:
		return "TYPEMISMATCH"
	case BADTYPE:
		return "BADTYPE"
	case CORRUPTED:
		return "CORRUPTED"
	case OUTDATED:
		return "OUTDATED"
	case DOT_PATH_PARSERR:
		return "DOT_PATH_PARSERR"
	case UNSUPPORTEDTYPE:
		return "UNSUPPORTEDTYPE"
	case INTERNALERR:
		return "INTERNALERR"
	case ILLEGALOP:
		return "ILLEGALOP"
	default:
		return "UNKNOWN"
	}
}

// Error is the error type every fallible Carbon operation returns. Never
// retry on CORRUPTED, BADTYPE, TYPEMISMATCH or INTERNALERR; OUTDATED, OOM
// and NOTFOUND are locally recoverable.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("carbon: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("carbon: %s: %s: %s", e.Op, e.Kind, e.Msg)
}

// Is allows errors.Is(err, carbon.Sentinel(carbon.OUTDATED)) style checks:
// two *Error values match when their Kinds are equal, whatever Op and Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Sentinel returns a comparable *Error carrying only a Kind, suitable as the
// target of errors.Is(err, carbon.Sentinel(carbon.OUTDATED)).
func Sentinel(k Kind) *Error {
	return &Error{Kind: k}
}
