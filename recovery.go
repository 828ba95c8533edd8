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
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/cairnkv/cairnkv/internal/generation"
	"github.com/cairnkv/cairnkv/internal/record"
)

// loadKeydir rebuilds kd from every generation file in gens, in
// ascending generation order and in file order within each generation
// (spec §4.D "Recovery on open"). This traversal order is what makes
// invariant 2 hold: the newest record for any key ends up as the one
// the keydir references.
//
// It returns the uncompacted-bytes count recovery accumulates along the
// way: every record displaced by a later one, plus every tombstone
// (its target's length and its own), exactly mirroring what a live
// Set/Remove would have added had these mutations just happened.
func loadKeydir(gens *generation.Set, kd *keydir) (int64, error) {
	var uncompacted int64

	generations := gens.Generations()
	sort.Slice(generations, func(i, j int) bool { return generations[i] < generations[j] })

	for _, gen := range generations {
		reader, ok := gens.Reader(gen)
		if !ok {
			return 0, fmt.Errorf("cairnkv: recovery: generation %d has no reader", gen)
		}

		size, err := reader.Size()
		if err != nil {
			return 0, fmt.Errorf("cairnkv: recovery: size of generation %d: %w", gen, err)
		}

		var offset int64
		for offset < size {
			rec, recLen, err := record.Decode(&readerAtCursor{r: reader, pos: offset})
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return 0, fmt.Errorf("cairnkv: recovery: generation %d at offset %d: %w", gen, offset, err)
			}

			pos := EntryPos{Gen: gen, Pos: uint64(offset), Len: uint64(recLen)}

			if rec.IsTombstone() {
				if old, existed := kd.delete(rec.Key); existed {
					uncompacted += int64(old.Len)
				}
				uncompacted += int64(recLen)
			} else {
				if old, replaced := kd.put(rec.Key, pos); replaced {
					uncompacted += int64(old.Len)
				}
			}

			offset += recLen
		}
	}

	return uncompacted, nil
}

// readerAtCursor adapts a generation.Reader (ReadAt-based) to io.Reader
// for record.Decode, advancing its own position on each call so a
// sequential scan over ReadAt reads like a stream.
type readerAtCursor struct {
	r   generation.Reader
	pos int64
}

func (c *readerAtCursor) Read(buf []byte) (int, error) {
	n, err := c.r.ReadAt(buf, c.pos)
	c.pos += int64(n)
	if err != nil {
		return n, err
	}
	return n, nil
}
