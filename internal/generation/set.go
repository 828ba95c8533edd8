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

package generation

import (
	"fmt"
	"os"
)

// Set owns every generation file belonging to one data directory: a
// reader per live generation plus the writer of the current (newest)
// one. It is the generalization of the teacher's Database.activeFile /
// olderFiles pair to an arbitrary number of named generations.
type Set struct {
	dir        string
	readers    map[uint64]Reader
	writer     *Writer
	currentGen uint64
}

// Open lists every generation file already in dir and opens a
// memory-mapped reader for each. It does not create a writer: callers
// recover the keydir from these readers first, then call NewGeneration
// once to establish the active generation to write into.
func Open(dir string) (*Set, error) {
	gens, err := Sorted(dir)
	if err != nil {
		return nil, err
	}

	s := &Set{dir: dir, readers: make(map[uint64]Reader, len(gens))}

	for _, gen := range gens {
		r, err := newSealedReader(FileName(dir, gen))
		if err != nil {
			s.closeAll()
			return nil, fmt.Errorf("generation: open reader for gen %d: %w", gen, err)
		}
		s.readers[gen] = r
	}

	return s, nil
}

// newSealedReader opens a memory-mapped reader, falling back to a plain
// file reader for the (legal, if unusual) case of an empty generation
// file, which mmap refuses to map.
func newSealedReader(path string) (Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return newFileReader(path)
	}
	return newMMapReader(path)
}

// Generations returns every generation currently tracked, including the
// active one once NewGeneration has been called.
func (s *Set) Generations() []uint64 {
	gens := make([]uint64, 0, len(s.readers))
	for gen := range s.readers {
		gens = append(gens, gen)
	}
	return gens
}

// Reader returns the reader for gen, if one is open.
func (s *Set) Reader(gen uint64) (Reader, bool) {
	r, ok := s.readers[gen]
	return r, ok
}

// Writer returns the writer of the current generation. Nil until
// NewGeneration has been called at least once.
func (s *Set) Writer() *Writer {
	return s.writer
}

// CurrentGen returns the generation NewGeneration most recently opened.
func (s *Set) CurrentGen() uint64 {
	return s.currentGen
}

// OpenGeneration creates generation gen's file and opens both a writer
// and a plain-file reader for it (a memory mapping would go stale as the
// writer appends), registering the reader but without making gen the
// current generation. This is what compaction uses for its destination
// generation: a generation that is written to like the active one, but
// isn't where new mutations land.
func (s *Set) OpenGeneration(gen uint64) (*Writer, error) {
	path := FileName(s.dir, gen)

	w, err := openWriter(path)
	if err != nil {
		return nil, fmt.Errorf("generation: open writer for gen %d: %w", gen, err)
	}

	r, err := newFileReader(path)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("generation: open reader for gen %d: %w", gen, err)
	}

	s.readers[gen] = r
	return w, nil
}

// NewGeneration opens gen exactly as OpenGeneration does, and additionally
// makes it the current generation: future Writer() calls return gen's
// writer, and CurrentGen() returns gen. gen must be larger than any
// generation already tracked.
func (s *Set) NewGeneration(gen uint64) error {
	w, err := s.OpenGeneration(gen)
	if err != nil {
		return err
	}

	s.writer = w
	s.currentGen = gen

	return nil
}

// Reseal closes gen's current reader and reopens it as a memory-mapped
// reader (falling back to a plain file reader for an empty file, same
// as newSealedReader). gen must not be the current (still-appended)
// generation. Compaction calls this once its destination generation is
// fully written and closed for writing, so that generation gets the
// same mmap-backed reader every other sealed generation has instead of
// permanently keeping the per-read-syscall reader OpenGeneration gave
// it for the writing phase.
func (s *Set) Reseal(gen uint64) error {
	r, ok := s.readers[gen]
	if !ok {
		return fmt.Errorf("generation: reseal gen %d: no reader open", gen)
	}

	if err := r.Close(); err != nil {
		return fmt.Errorf("generation: reseal gen %d: close old reader: %w", gen, err)
	}

	sealed, err := newSealedReader(FileName(s.dir, gen))
	if err != nil {
		return fmt.Errorf("generation: reseal gen %d: open mmap reader: %w", gen, err)
	}

	s.readers[gen] = sealed
	return nil
}

// RetireBelow closes and deletes every generation file strictly less
// than keep, per spec §4.D step 5 ("delete every generation file and
// reader whose generation is strictly less than compaction_gen").
func (s *Set) RetireBelow(keep uint64) error {
	for gen, r := range s.readers {
		if gen >= keep {
			continue
		}

		if err := r.Close(); err != nil {
			return fmt.Errorf("generation: close gen %d: %w", gen, err)
		}
		delete(s.readers, gen)

		if err := os.Remove(FileName(s.dir, gen)); err != nil {
			return fmt.Errorf("generation: remove gen %d: %w", gen, err)
		}
	}

	return nil
}

// Close closes every reader and the writer.
func (s *Set) Close() error {
	var firstErr error
	s.closeAll()
	if s.writer != nil {
		if err := s.writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Set) closeAll() {
	for _, r := range s.readers {
		_ = r.Close()
	}
	s.readers = make(map[uint64]Reader)
}
