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

// Package carbon implements a self-describing, mutable, columnar-aware
// binary document format: a single contiguous buffer holding a tree of
// objects, arrays, typed columns, and scalars, with an optional primary
// key and commit hash for tracking revisions.
package carbon

import "sync"

// Record is the public handle to one Carbon document: its MemFile, the
// configuration and logger it was built with, and the revision-protocol
// bookkeeping an in-flight Revision needs. A mutex guards structural
// changes to it; isLatest is cleared once a revision of this record has
// completed, after which any further revision attempt fails OUTDATED.
type Record struct {
	mu sync.Mutex

	mf     *MemFile
	cfg    Config
	logger Logger

	keyHeader        *KeyHeader
	rootBegin        uint
	commitHashOffset uint

	isLatest   bool
	writeLock  bool
	commitLock bool
}

// CreateBegin starts building a new record with the given key kind,
// returning the Record shell and an Inserter positioned at the root
// array's first element. The caller appends content through the Inserter
// and then calls CreateEnd.
func CreateBegin(cfg Config, logger Logger, keyKind KeyKind) (*Record, *Inserter, *Error) {
	if logger == nil {
		logger = noopLogger{}
	}
	mf, root, err := BeginRootArray(cfg, keyKind, UnsortedMultiset)
	if err != nil {
		return nil, nil, err
	}
	kh, kerr := ReadKeyHeader(mf)
	if kerr != nil {
		return nil, nil, kerr
	}
	rec := &Record{
		mf: mf, cfg: cfg, logger: logger,
		keyHeader: kh, rootBegin: root.Begin(), commitHashOffset: contentKeyHeaderLen(kh),
		isLatest: true,
	}
	return rec, root, nil
}

// CreateEnd finalizes a record built via CreateBegin, computing its commit
// hash if it carries a key.
func (rec *Record) CreateEnd() *Error {
	return rec.recomputeCommitHash()
}

func contentKeyHeaderLen(kh *KeyHeader) uint { return kh.HeaderLen() }

func (rec *Record) recomputeCommitHash() *Error {
	if rec.keyHeader.Kind == NOKEY {
		return nil
	}
	hash := computeCommitHash(rec.mf.Bytes()[rec.rootBegin:])
	return writeCommitHash(rec.mf, rec.commitHashOffset, hash)
}

// FromJSON builds a record directly from a JSON document.
func FromJSON(cfg Config, logger Logger, keyKind KeyKind, data []byte) (*Record, *Error) {
	if logger == nil {
		logger = noopLogger{}
	}
	mf, err := ImportJSON(cfg, keyKind, data)
	if err != nil {
		return nil, err
	}
	kh, kerr := ReadKeyHeader(mf)
	if kerr != nil {
		return nil, kerr
	}
	rootBegin := contentKeyHeaderLen(kh)
	if kh.Kind != NOKEY {
		rootBegin += commitHashLen
	}
	rec := &Record{
		mf: mf, cfg: cfg, logger: logger,
		keyHeader: kh, rootBegin: rootBegin, commitHashOffset: contentKeyHeaderLen(kh),
		isLatest: true,
	}
	if err := rec.recomputeCommitHash(); err != nil {
		return nil, err
	}
	return rec, nil
}

// OpenArrayIter opens a forward iterator over the record's root array.
func (rec *Record) OpenArrayIter() (*ArrayIter, *Error) {
	return newRootArrayIter(rec.mf, rec.rootBegin)
}

// ToJSONCompact renders the record's content as a compact JSON document;
// binary fields are base64-encoded, since JSON has no native byte-string
// type.
func (rec *Record) ToJSONCompact() (string, *Error) {
	root, err := rec.OpenArrayIter()
	if err != nil {
		return "", err
	}
	return exportRootToJSON(root)
}

// RawData returns the record's live on-disk bytes (key header, commit hash
// if keyed, and root array body).
func (rec *Record) RawData() []byte { return rec.mf.Bytes() }

// KeyKind returns the record's key kind.
func (rec *Record) KeyKind() KeyKind { return rec.keyHeader.Kind }

// CommitHash returns the record's current commit hash; ok is false if the
// record carries no key (and therefore no commit hash).
func (rec *Record) CommitHash() (hash uint64, ok bool, err *Error) {
	if rec.keyHeader.Kind == NOKEY {
		return 0, false, nil
	}
	h, rerr := readCommitHash(rec.mf, rec.commitHashOffset)
	if rerr != nil {
		return 0, false, rerr
	}
	return h, true, nil
}

// Clone deep-copies the record, including its MemFile, as an independent
// Record.
func (rec *Record) Clone() (*Record, *Error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	mf := rec.mf.Clone()
	kh, err := ReadKeyHeader(mf)
	if err != nil {
		return nil, err
	}
	return &Record{
		mf: mf, cfg: rec.cfg, logger: rec.logger,
		keyHeader: kh, rootBegin: rec.rootBegin,
		commitHashOffset: rec.commitHashOffset, isLatest: true,
	}, nil
}

// Drop releases the record's backing buffer.
func (rec *Record) Drop() {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.mf = nil
}

// Pack compacts the record's content in place. The caller must hold no
// outstanding iterators over it.
func (rec *Record) Pack() *Error {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	before := rec.mf.Len()
	if err := Pack(rec.mf, rec.rootBegin); err != nil {
		return err
	}
	rec.logger.Printf("carbon: pack reclaimed %s (%s -> %s)", humanSize(before-rec.mf.Len()), humanSize(before), humanSize(rec.mf.Len()))
	return nil
}

// Shrink drops the record's spare buffer capacity.
func (rec *Record) Shrink() {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	before := uint(len(rec.mf.buf))
	Shrink(rec.mf)
	after := uint(len(rec.mf.buf))
	rec.logger.Printf("carbon: shrink dropped %s of spare capacity (%s -> %s)", humanSize(before-after), humanSize(before), humanSize(after))
}
