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

// Package cairnkv implements a Bitcask-style persistent key-value store:
// an append-only log of records, an in-memory keydir index for O(1)
// point lookup, and background-free, synchronous compaction that
// reclaims space from superseded and tombstoned records.
package cairnkv

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/cairnkv/cairnkv/internal/generation"
	"github.com/cairnkv/cairnkv/internal/record"
	"github.com/cairnkv/cairnkv/utils"
)

// dataSubdir is the fixed subdirectory name Open creates under the
// user-supplied path, per spec §6.
const dataSubdir = ".kvsdata"

// Store is a single open instance of the storage engine (spec §4.C).
// All mutating operations serialize on mu; reads take the read side of
// the same lock. Spec §5 describes the concrete engine as
// single-threaded internally even though its public surface already
// looks like the reader/writer-separated design a production rewrite
// would use — this mirrors that shape with one RWMutex rather than
// separate locks per concern, in keeping with the teacher's Database.
type Store struct {
	mu sync.RWMutex

	options Options
	dataDir string

	fileLock *flock.Flock
	gens     *generation.Set
	keydir   *keydir

	uncompacted int64
}

// Stat reports point-in-time engine statistics, carried over from the
// teacher's Database.Stat (db.go) and from the original's size
// accounting in kvs/src/engines/kvs.rs.
type Stat struct {
	KeyCount        int
	GenerationCount int
	ReclaimableSize int64
	DiskSize        int64
}

// Open opens (creating if necessary) a store rooted at
// options.DirectoryPath. Recovery rebuilds the keydir from every
// generation file already present before Open returns (spec §4.D).
func Open(options Options) (*Store, error) {
	if err := checkOptions(options); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(options.DirectoryPath, 0755); err != nil {
		return nil, fmt.Errorf("cairnkv: create data directory: %w", err)
	}

	dataDir := filepath.Join(options.DirectoryPath, dataSubdir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("cairnkv: create %s: %w", dataSubdir, err)
	}

	fileLock, err := acquireDirectoryLock(dataDir)
	if err != nil {
		return nil, err
	}

	gens, err := generation.Open(dataDir)
	if err != nil {
		_ = fileLock.Unlock()
		return nil, err
	}

	kd := newKeydir()
	uncompacted, err := loadKeydir(gens, kd)
	if err != nil {
		_ = gens.Close()
		_ = fileLock.Unlock()
		return nil, err
	}

	currentGen := nextGeneration(gens.Generations())
	if err := gens.NewGeneration(currentGen); err != nil {
		_ = gens.Close()
		_ = fileLock.Unlock()
		return nil, err
	}

	return &Store{
		options:     options,
		dataDir:     dataDir,
		fileLock:    fileLock,
		gens:        gens,
		keydir:      kd,
		uncompacted: uncompacted,
	}, nil
}

// nextGeneration picks current_gen = max(existing) + 1, or 1 if empty,
// per spec §4.D "Recovery on open".
func nextGeneration(existing []uint64) uint64 {
	var max uint64
	for _, gen := range existing {
		if gen > max {
			max = gen
		}
	}
	return max + 1
}

// Close releases every resource the store holds; every mutation was
// already flushed before it returned. The directory lock is released
// last so a concurrent Open cannot acquire it while the generation set
// is half-closed.
func (db *Store) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	err := db.gens.Close()
	if unlockErr := db.fileLock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// Set writes key=value, per spec §4.C "set". An empty value is rejected
// rather than silently becoming a tombstone (spec §9 "Set over empty
// value"): value_size == 0 on disk means deletion, so there is no wire
// representation for "the empty string" distinct from "absent".
func (db *Store) Set(key, value string) error {
	if key == "" {
		return ErrKeyIsEmpty
	}
	if value == "" {
		return ErrValueIsEmpty
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	pos, err := db.append(&record.Record{Key: key, Value: []byte(value)})
	if err != nil {
		return err
	}

	old, replaced := db.keydir.put(key, pos)
	if replaced {
		db.uncompacted += int64(old.Len)
	}

	return db.maybeCompactLocked()
}

// Get reads the value stored for key. found is false, with a nil error,
// when the key is absent — per spec §7, that is not an error condition.
func (db *Store) Get(key string) (value string, found bool, err error) {
	if key == "" {
		return "", false, ErrKeyIsEmpty
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	pos, ok := db.keydir.get(key)
	if !ok {
		return "", false, nil
	}

	rec, err := db.readAt(pos)
	if err != nil {
		return "", false, err
	}

	// A keydir entry never points at a tombstone (spec §4.C): a remove
	// deletes the entry rather than leaving it pointing at one.
	return string(rec.Value), true, nil
}

// Remove deletes key. It fails with ErrKeyNotFound, without writing
// anything, if key is not present (spec §4.C "remove").
func (db *Store) Remove(key string) error {
	if key == "" {
		return ErrKeyIsEmpty
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.keydir.get(key); !ok {
		return ErrKeyNotFound
	}

	pos, err := db.append(&record.Record{Key: key})
	if err != nil {
		return err
	}

	old, _ := db.keydir.delete(key)
	// Both the prior live record and the tombstone itself are dead
	// weight after compaction (spec §4.C "remove"); unlike the source,
	// which only counts the tombstone at recovery time, this store
	// counts it here too, at write time, per spec §9's recommendation
	// that the two paths agree.
	db.uncompacted += int64(old.Len) + int64(pos.Len)

	return db.maybeCompactLocked()
}

// append encodes rec, writes it to the current generation, flushes, and
// returns its EntryPos. Callers must hold db.mu.
func (db *Store) append(rec *record.Record) (EntryPos, error) {
	buf := record.Encode(rec)

	writer := db.gens.Writer()
	start, err := writer.Append(buf)
	if err != nil {
		return EntryPos{}, fmt.Errorf("cairnkv: append record: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return EntryPos{}, fmt.Errorf("cairnkv: flush generation %d: %w", db.gens.CurrentGen(), err)
	}

	return EntryPos{
		Gen: db.gens.CurrentGen(),
		Pos: uint64(start),
		Len: uint64(writer.Pos() - start),
	}, nil
}

// readAt resolves an EntryPos to its decoded record. Callers must hold
// at least db.mu's read side.
func (db *Store) readAt(pos EntryPos) (*record.Record, error) {
	reader, ok := db.gens.Reader(pos.Gen)
	if !ok {
		return nil, fmt.Errorf("cairnkv: generation %d not open", pos.Gen)
	}

	buf := make([]byte, pos.Len)
	if _, err := reader.ReadAt(buf, int64(pos.Pos)); err != nil {
		return nil, fmt.Errorf("cairnkv: read generation %d at %d: %w", pos.Gen, pos.Pos, err)
	}

	rec, _, err := record.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// Stat reports the engine's current key count, generation count,
// reclaimable bytes, and on-disk size.
func (db *Store) Stat() (Stat, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	diskSize, err := utils.DirectorySize(db.dataDir)
	if err != nil {
		return Stat{}, err
	}

	return Stat{
		KeyCount:        db.keydir.size(),
		GenerationCount: len(db.gens.Generations()),
		ReclaimableSize: db.uncompacted,
		DiskSize:        diskSize,
	}, nil
}
