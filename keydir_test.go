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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeydirPutGetDelete(t *testing.T) {
	kd := newKeydir()

	_, replaced := kd.put("key1", EntryPos{Gen: 1, Pos: 0, Len: 10})
	assert.False(t, replaced)

	pos, ok := kd.get("key1")
	assert.True(t, ok)
	assert.Equal(t, EntryPos{Gen: 1, Pos: 0, Len: 10}, pos)

	old, replaced := kd.put("key1", EntryPos{Gen: 2, Pos: 20, Len: 5})
	assert.True(t, replaced)
	assert.Equal(t, EntryPos{Gen: 1, Pos: 0, Len: 10}, old)

	old, existed := kd.delete("key1")
	assert.True(t, existed)
	assert.Equal(t, EntryPos{Gen: 2, Pos: 20, Len: 5}, old)

	_, ok = kd.get("key1")
	assert.False(t, ok)
}

func TestKeydirDeleteMissingKey(t *testing.T) {
	kd := newKeydir()

	_, existed := kd.delete("nope")
	assert.False(t, existed)
}

func TestKeydirSizeAndSnapshot(t *testing.T) {
	kd := newKeydir()

	kd.put("key1", EntryPos{Gen: 1, Pos: 0, Len: 4})
	kd.put("key2", EntryPos{Gen: 1, Pos: 4, Len: 6})

	assert.Equal(t, 2, kd.size())

	snapshot := kd.snapshot()
	assert.Len(t, snapshot, 2)
	assert.Equal(t, EntryPos{Gen: 1, Pos: 0, Len: 4}, snapshot["key1"])

	// Mutating the snapshot must not reach back into the keydir.
	snapshot["key1"] = EntryPos{Gen: 99, Pos: 99, Len: 99}
	pos, ok := kd.get("key1")
	assert.True(t, ok)
	assert.Equal(t, EntryPos{Gen: 1, Pos: 0, Len: 4}, pos)
}

func TestKeydirUpdatePosIsNoOpForMissingKey(t *testing.T) {
	kd := newKeydir()

	kd.updatePos("nope", EntryPos{Gen: 1, Pos: 1, Len: 1})

	_, ok := kd.get("nope")
	assert.False(t, ok)
}

func TestKeydirUpdatePosRewritesExistingEntry(t *testing.T) {
	kd := newKeydir()
	kd.put("key1", EntryPos{Gen: 1, Pos: 0, Len: 4})

	kd.updatePos("key1", EntryPos{Gen: 2, Pos: 40, Len: 4})

	pos, ok := kd.get("key1")
	assert.True(t, ok)
	assert.Equal(t, EntryPos{Gen: 2, Pos: 40, Len: 4}, pos)
}
