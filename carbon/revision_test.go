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
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

func TestReviseRemoveArrayElement(t *testing.T) {
	rec, err := FromJSON(DefaultConfig, nil, UKEY, []byte(`{"a":[1,2,3]}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	before, ok, err := rec.CommitHash()
	if err != nil || !ok {
		t.Fatalf("CommitHash before revise: ok=%v err=%v", ok, err)
	}

	rev, rerr := rec.ReviseBegin()
	if rerr != nil {
		t.Fatalf("ReviseBegin: %v", rerr)
	}
	if rerr := rev.ReviseRemove("a.1"); rerr != nil {
		t.Fatalf("ReviseRemove(a.1): %v", rerr)
	}
	next, rerr := rev.ReviseEnd()
	if rerr != nil {
		t.Fatalf("ReviseEnd: %v", rerr)
	}

	got, gerr := next.ToJSONCompact()
	if gerr != nil {
		t.Fatalf("ToJSONCompact: %v", gerr)
	}
	want := decodeJSON(t, `[{"a":[1,3]}]`)
	if diff := cmp.Diff(want, decodeJSON(t, got)); diff != "" {
		t.Errorf("post-revise content mismatch (-want +got):\n%s", diff)
	}

	after, ok, err := next.CommitHash()
	if err != nil || !ok {
		t.Fatalf("CommitHash after revise: ok=%v err=%v", ok, err)
	}
	if after == before {
		t.Fatal("commit hash did not change after a successful revise_end")
	}
}

func TestReviseBeginOnOutdatedRecordFailsOutdated(t *testing.T) {
	rec, err := FromJSON(DefaultConfig, nil, UKEY, []byte(`{"a":[1,2,3]}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	rev, rerr := rec.ReviseBegin()
	if rerr != nil {
		t.Fatalf("ReviseBegin: %v", rerr)
	}
	if rerr := rev.ReviseRemove("a.1"); rerr != nil {
		t.Fatalf("ReviseRemove(a.1): %v", rerr)
	}
	next, rerr := rev.ReviseEnd()
	if rerr != nil {
		t.Fatalf("ReviseEnd: %v", rerr)
	}

	if _, rerr := rec.ReviseBegin(); rerr == nil || rerr.Kind != OUTDATED {
		t.Fatalf("ReviseBegin on the outdated handle: got err=%v, want Kind=OUTDATED", rerr)
	}
	if _, _, rerr := rec.ReviseTryBegin(); rerr == nil || rerr.Kind != OUTDATED {
		t.Fatalf("ReviseTryBegin on the outdated handle: got err=%v, want Kind=OUTDATED", rerr)
	}

	rev2, rerr := next.ReviseBegin()
	if rerr != nil {
		t.Fatalf("ReviseBegin on the revised handle should succeed: %v", rerr)
	}
	if _, rerr := rev2.ReviseEnd(); rerr != nil {
		t.Fatalf("ReviseEnd: %v", rerr)
	}
}

func TestReviseAbortLeavesRecordUntouched(t *testing.T) {
	rec, err := FromJSON(DefaultConfig, nil, NOKEY, []byte(`[1,2,3]`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	before, berr := rec.ToJSONCompact()
	if berr != nil {
		t.Fatalf("ToJSONCompact before: %v", berr)
	}

	rev, rerr := rec.ReviseBegin()
	if rerr != nil {
		t.Fatalf("ReviseBegin: %v", rerr)
	}
	if rerr := rev.ReviseRemove("1"); rerr != nil {
		t.Fatalf("ReviseRemove(1): %v", rerr)
	}
	if rerr := rev.ReviseAbort(); rerr != nil {
		t.Fatalf("ReviseAbort: %v", rerr)
	}

	after, aerr := rec.ToJSONCompact()
	if aerr != nil {
		t.Fatalf("ToJSONCompact after: %v", aerr)
	}
	if diff := cmp.Diff(decodeJSON(t, before), decodeJSON(t, after)); diff != "" {
		t.Errorf("abort should leave the record's content untouched (-before +after):\n%s", diff)
	}
}

// TestReviseTryBeginConcurrentContention checks that of several concurrent
// revise_try_begin attempts against one record, exactly the first succeeds
// and every contender returns false with no side effect; once that revision
// is abandoned, a fresh revise_try_begin succeeds again.
func TestReviseTryBeginConcurrentContention(t *testing.T) {
	rec, err := FromJSON(DefaultConfig, nil, NOKEY, []byte(`[1,2,3]`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	rev, acquired, aerr := rec.ReviseTryBegin()
	if aerr != nil || !acquired {
		t.Fatalf("expected the first revise_try_begin to succeed: acquired=%v err=%v", acquired, aerr)
	}

	const contenders = 8
	results := make([]bool, contenders)
	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() error {
			_, ok, err := rec.ReviseTryBegin()
			if err != nil {
				return err
			}
			results[i] = ok
			return nil
		})
	}
	if gerr := g.Wait(); gerr != nil {
		t.Fatalf("contending revise_try_begin: %v", gerr)
	}
	for i, ok := range results {
		if ok {
			t.Errorf("contender %d unexpectedly acquired a revision while one was outstanding", i)
		}
	}

	if rerr := rev.ReviseAbort(); rerr != nil {
		t.Fatalf("ReviseAbort: %v", rerr)
	}

	_, acquired2, err2 := rec.ReviseTryBegin()
	if err2 != nil || !acquired2 {
		t.Fatalf("expected revise_try_begin to succeed after the first revision aborted: acquired=%v err=%v", acquired2, err2)
	}
}

func TestKeyCommitHashCoupling(t *testing.T) {
	noKey, err := FromJSON(DefaultConfig, nil, NOKEY, []byte(`[1]`))
	if err != nil {
		t.Fatalf("FromJSON(NOKEY): %v", err)
	}
	if _, ok, err := noKey.CommitHash(); err != nil || ok {
		t.Fatalf("NOKEY record must carry no commit hash: ok=%v err=%v", ok, err)
	}

	keyed, err := FromJSON(DefaultConfig, nil, UKEY, []byte(`[1]`))
	if err != nil {
		t.Fatalf("FromJSON(UKEY): %v", err)
	}
	if _, ok, err := keyed.CommitHash(); err != nil || !ok {
		t.Fatalf("UKEY record must carry a commit hash: ok=%v err=%v", ok, err)
	}
}

func TestAutoKeyGenerateProducesNonzeroKeyAndHash(t *testing.T) {
	rec, inserter, err := CreateBegin(DefaultConfig, nil, AUTOKEY)
	if err != nil {
		t.Fatalf("CreateBegin: %v", err)
	}
	if err := inserter.InsertU8(1); err != nil {
		t.Fatalf("InsertU8: %v", err)
	}
	if err := rec.CreateEnd(); err != nil {
		t.Fatalf("CreateEnd: %v", err)
	}
	if rec.KeyKind() != AUTOKEY {
		t.Fatalf("KeyKind: got %v, want AUTOKEY", rec.KeyKind())
	}
	if key, kerr := rec.keyHeader.Unsigned(rec.mf); kerr != nil || key == 0 {
		t.Errorf("expected a nonzero generated key: got %d, %v", key, kerr)
	}
	hash, ok, herr := rec.CommitHash()
	if herr != nil || !ok {
		t.Fatalf("CommitHash: ok=%v err=%v", ok, herr)
	}
	if hash == 0 {
		t.Error("expected a nonzero commit hash on a keyed record")
	}
}
