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
	"github.com/launix-de/NonLockingReadMap"
)

// Revision is a copy-on-write working draft of a Record, opened by
// ReviseBegin/ReviseTryBegin. It owns a private clone of the underlying
// MemFile; mutations on it are invisible to the Record's current readers
// until ReviseEnd installs them into a freshly returned Record and retires
// the original. A write lock on the parent guards against a second
// concurrent revision, and is_latest distinguishes a record that still
// holds the current content from one a completed revision has superseded.
type Revision struct {
	parent *Record
	mf     *MemFile

	keyHeader        *KeyHeader
	rootBegin        uint
	commitHashOffset uint

	outstandingIters NonLockingReadMap.NonBlockingBitMap
	nextIterID       uint32
}

// ReviseBegin opens a revision, blocking (via the record's mutex) until any
// concurrent revision finishes. It fails OUTDATED if rec is no longer the
// latest revision of its record — a previous ReviseEnd on rec has already
// produced a newer Record and rec's content is frozen.
func (rec *Record) ReviseBegin() (*Revision, *Error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.isLatest {
		return nil, newErr("ReviseBegin", OUTDATED, "record is no longer the latest revision")
	}
	for rec.writeLock {
		rec.mu.Unlock()
		rec.mu.Lock()
	}
	return rec.startRevisionLocked(), nil
}

// ReviseTryBegin opens a revision only if none is outstanding; it never
// blocks and has no side effect on contention. Like ReviseBegin, it fails
// OUTDATED without touching any lock if rec is no longer the latest
// revision of its record.
func (rec *Record) ReviseTryBegin() (*Revision, bool, *Error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.isLatest {
		return nil, false, newErr("ReviseTryBegin", OUTDATED, "record is no longer the latest revision")
	}
	if rec.writeLock {
		return nil, false, nil
	}
	return rec.startRevisionLocked(), true, nil
}

// startRevisionLocked assumes rec.mu is held.
func (rec *Record) startRevisionLocked() *Revision {
	rec.writeLock = true
	return &Revision{
		parent:           rec,
		mf:               rec.mf.Clone(),
		keyHeader:        rec.keyHeader,
		rootBegin:        rec.rootBegin,
		commitHashOffset: rec.commitHashOffset,
	}
}

// ReviseEnd commits the revision's mutated buffer into a new Record,
// recomputing the commit hash if the record is keyed. The original Record
// is retired: its isLatest flag drops to false and any later ReviseBegin
// on it fails OUTDATED. Callers must switch to the returned Record to
// continue working with the document.
func (rev *Revision) ReviseEnd() (*Record, *Error) {
	if rev.outstandingIters.Count() != 0 {
		return nil, newErr("ReviseEnd", ILLEGALOP, "cannot commit with outstanding iterators open")
	}
	p := rev.parent
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commitLock = true
	if p.keyHeader.Kind != NOKEY {
		hash := computeCommitHash(rev.mf.Bytes()[rev.rootBegin:])
		if err := writeCommitHash(rev.mf, rev.commitHashOffset, hash); err != nil {
			p.commitLock = false
			return nil, err
		}
	}
	next := &Record{
		mf:               rev.mf,
		cfg:              p.cfg,
		logger:           p.logger,
		keyHeader:        rev.keyHeader,
		rootBegin:        rev.rootBegin,
		commitHashOffset: rev.commitHashOffset,
		isLatest:         true,
	}
	p.isLatest = false
	p.writeLock = false
	p.commitLock = false
	return next, nil
}

// ReviseAbort discards the revision's mutated buffer, releasing the write
// lock without touching the parent's content.
func (rev *Revision) ReviseAbort() *Error {
	p := rev.parent
	p.mu.Lock()
	p.writeLock = false
	p.mu.Unlock()
	rev.mf = nil
	return nil
}

// ReviseIteratorOpen opens a root array iterator over the revision's
// in-progress content, tracked so RevisePack/ReviseShrink can refuse to run
// while a reader is outstanding.
func (rev *Revision) ReviseIteratorOpen() (*ArrayIter, uint32, *Error) {
	it, err := newRootArrayIter(rev.mf, rev.rootBegin)
	if err != nil {
		return nil, 0, err
	}
	id := rev.nextIterID
	rev.nextIterID++
	rev.outstandingIters.Set(id, true)
	return it, id, nil
}

// ReviseIteratorClose releases the bookkeeping for an iterator opened via
// ReviseIteratorOpen.
func (rev *Revision) ReviseIteratorClose(id uint32) {
	rev.outstandingIters.Set(id, false)
}

// ReviseFindOpen resolves a dot path against the revision's current
// content, descending through arrays, objects, and columns as needed.
func (rev *Revision) ReviseFindOpen(path string) (*PathResult, *Error) {
	root, err := newRootArrayIter(rev.mf, rev.rootBegin)
	if err != nil {
		return nil, err
	}
	return FindPath(root, path)
}

// ReviseRemove deletes the field (or column element) a dot path resolves
// to, in place.
func (rev *Revision) ReviseRemove(path string) *Error {
	root, err := newRootArrayIter(rev.mf, rev.rootBegin)
	if err != nil {
		return err
	}
	res, ferr := FindPath(root, path)
	if ferr != nil {
		return ferr
	}
	if res.ColumnElem != nil {
		return res.ColumnElem.Col.RemoveAt(res.ColumnElem.Index)
	}
	rev.mf.Seek(res.RemovalStart)
	return rev.mf.InplaceRemove(res.RemovalEnd - res.RemovalStart)
}

// RevisePack compacts the revision's content.
func (rev *Revision) RevisePack() *Error {
	if rev.outstandingIters.Count() != 0 {
		return newErr("RevisePack", ILLEGALOP, "cannot pack with outstanding iterators open")
	}
	before := rev.mf.Len()
	if err := Pack(rev.mf, rev.rootBegin); err != nil {
		return err
	}
	rev.parent.logger.Printf("carbon: revise_pack reclaimed %s (%s -> %s)", humanSize(before-rev.mf.Len()), humanSize(before), humanSize(rev.mf.Len()))
	return nil
}

// ReviseShrink drops the revision's spare buffer capacity.
func (rev *Revision) ReviseShrink() *Error {
	if rev.outstandingIters.Count() != 0 {
		return newErr("ReviseShrink", ILLEGALOP, "cannot shrink with outstanding iterators open")
	}
	before := uint(len(rev.mf.buf))
	Shrink(rev.mf)
	after := uint(len(rev.mf.buf))
	rev.parent.logger.Printf("carbon: revise_shrink dropped %s of spare capacity (%s -> %s)", humanSize(before-after), humanSize(before), humanSize(after))
	return nil
}

// KeySetUnsigned/Signed/String/Generate mutate the revision's key payload.
func (rev *Revision) KeySetUnsigned(v uint64) *Error { return KeySetUnsigned(rev.mf, rev.keyHeader, v) }
func (rev *Revision) KeySetSigned(v int64) *Error     { return KeySetSigned(rev.mf, rev.keyHeader, v) }
func (rev *Revision) KeySetString(s string) *Error {
	_, err := KeySetString(rev.mf, rev.keyHeader, s)
	return err
}
func (rev *Revision) KeyGenerate() (uint64, *Error) { return KeyGenerate(rev.mf, rev.keyHeader) }
