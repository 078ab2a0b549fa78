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

// Config exposes the tunable knobs of the record engine as explicit
// parameters rather than hardwired constants.
type Config struct {
	// InitialCapacity is the MemFile size a freshly created Record allocates.
	InitialCapacity uint
	// GrowthFactor is the minimum multiplier MemFile.EnsureSpace applies
	// when it must grow the underlying buffer (at least doubling).
	GrowthFactor float64
	// MaxBufferSize is the hard ceiling a MemFile write may not cross;
	// exceeding it fails with OOM.
	MaxBufferSize uint
	// JSONArrayCapacityHint is the number of payload bytes reserved per
	// element when the importer opens a nested array or object of unknown
	// final size. Columns reserve exactly one cell per element instead.
	JSONArrayCapacityHint uint
}

// DefaultConfig holds modest initial sizes, doubling growth, and a generous
// but finite ceiling.
var DefaultConfig = Config{
	InitialCapacity:       256,
	GrowthFactor:          2.0,
	MaxBufferSize:         1 << 32, // 4 GiB
	JSONArrayCapacityHint: 256,
}
