/*
Copyright (C) 2024  Carl-Philip Hänsch

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
	"fmt"

	units "github.com/docker/go-units"
)

// Logger is the diagnostics sink a Record or Revision calls into: the core
// never owns a logging stack, it only calls one through this interface.
type Logger interface {
	Printf(format string, args ...any)
}

// noopLogger discards everything; it is the default for every Record.
type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// StdLogger is a plain fmt.Printf-based Logger for callers who want to see
// what a revision is doing.
type StdLogger struct{}

func (StdLogger) Printf(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// humanSize formats a byte count for pack/shrink log lines and for the
// sizes in MemFile's OOM error message.
func humanSize(n uint) string {
	return units.HumanSize(float64(n))
}
