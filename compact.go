/*
 * Copyright (c) 2024 The cairnkv Authors.
 * Licensed under the MIT License (the "License");
 * you may not use this file except in compliance with the License.
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cairnkv

import (
	"fmt"

	"github.com/cairnkv/cairnkv/internal/generation"
)

// maybeCompactLocked runs compactLocked if uncompacted bytes have crossed
// the configured threshold, per spec §4.C ("If uncompacted > THRESHOLD,
// trigger compaction"). Callers must hold db.mu for writing.
func (db *Store) maybeCompactLocked() error {
	if db.uncompacted <= db.options.CompactionThreshold {
		return nil
	}
	return db.compactLocked()
}

// compactLocked rewrites every live keydir entry into a fresh
// generation and retires the generations it superseded, per spec §4.D
// "Compaction". It runs synchronously with respect to the mutation that
// triggered it (spec §4.D: "Single-threaded, synchronous with respect
// to the triggering call") — db.mu is already held for writing by the
// caller, so no other Set/Get/Remove can observe a half-compacted state.
//
// Unlike the teacher's Merge, which rewrites into a separate
// "<dir>-merge" directory and finalizes with a hint file plus an
// atomic rename, this follows spec.md's simpler two-generation
// reservation directly: the destination and the next active generation
// are both carved out up front, and mutations after compaction land
// strictly above the destination.
func (db *Store) compactLocked() error {
	compactionGen := db.gens.CurrentGen() + 1
	nextActiveGen := db.gens.CurrentGen() + 2

	compactionWriter, err := db.gens.OpenGeneration(compactionGen)
	if err != nil {
		return fmt.Errorf("cairnkv: compaction: open destination generation %d: %w", compactionGen, err)
	}

	for key, pos := range db.keydir.snapshot() {
		newPos, err := db.copyRecord(compactionWriter, pos)
		if err != nil {
			return fmt.Errorf("cairnkv: compaction: copy key %q: %w", key, err)
		}
		newPos.Gen = compactionGen
		db.keydir.updatePos(key, newPos)
	}

	if err := compactionWriter.Flush(); err != nil {
		return fmt.Errorf("cairnkv: compaction: flush destination generation %d: %w", compactionGen, err)
	}
	if err := compactionWriter.Close(); err != nil {
		return fmt.Errorf("cairnkv: compaction: close destination generation %d: %w", compactionGen, err)
	}

	// The destination generation is now sealed: nothing will ever append
	// to it again, so it gets the same mmap-backed reader every other
	// sealed generation has instead of permanently keeping the
	// per-read-syscall reader OpenGeneration gave it for the write phase.
	if err := db.gens.Reseal(compactionGen); err != nil {
		return fmt.Errorf("cairnkv: compaction: reseal destination generation %d: %w", compactionGen, err)
	}

	if err := db.gens.NewGeneration(nextActiveGen); err != nil {
		return fmt.Errorf("cairnkv: compaction: open next active generation %d: %w", nextActiveGen, err)
	}

	if err := db.gens.RetireBelow(compactionGen); err != nil {
		return fmt.Errorf("cairnkv: compaction: retire superseded generations: %w", err)
	}

	db.uncompacted = 0
	return nil
}

// copyRecord copies exactly pos.Len bytes starting at pos.Pos in pos's
// source generation into w, returning the EntryPos the data now lives
// at (gen is left zero; the caller fills it in, since w may not be the
// generation object that knows its own number).
func (db *Store) copyRecord(w *generation.Writer, pos EntryPos) (EntryPos, error) {
	reader, ok := db.gens.Reader(pos.Gen)
	if !ok {
		return EntryPos{}, fmt.Errorf("generation %d not open", pos.Gen)
	}

	buf := make([]byte, pos.Len)
	if _, err := reader.ReadAt(buf, int64(pos.Pos)); err != nil {
		return EntryPos{}, fmt.Errorf("read generation %d at %d: %w", pos.Gen, pos.Pos, err)
	}

	newOffset, err := w.Append(buf)
	if err != nil {
		return EntryPos{}, fmt.Errorf("append to destination generation: %w", err)
	}

	return EntryPos{Pos: uint64(newOffset), Len: pos.Len}, nil
}
