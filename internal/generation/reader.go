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
	"os"

	"golang.org/x/exp/mmap"
)

// Reader is a seekable, position-addressable byte stream over one
// generation file. Implementations are safe for concurrent ReadAt calls.
type Reader interface {
	ReadAt(buf []byte, offset int64) (int, error)
	Size() (int64, error)
	Close() error
}

// fileReader backs a Reader with a plain read-only file descriptor. Used
// for the current (still being appended) generation, where a memory
// mapping's fixed length would go stale as the writer grows the file.
type fileReader struct {
	f *os.File
}

func newFileReader(path string) (*fileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &fileReader{f: f}, nil
}

func (r *fileReader) ReadAt(buf []byte, offset int64) (int, error) {
	return r.f.ReadAt(buf, offset)
}

func (r *fileReader) Size() (int64, error) {
	info, err := r.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (r *fileReader) Close() error {
	return r.f.Close()
}

// mmapReader backs a Reader with a read-only memory mapping, grounded on
// the teacher's fileio.MMap. Used for sealed generations: once a
// generation is no longer the active write target, its length is fixed
// for the rest of the process's life, so mapping it is safe and avoids a
// syscall per read.
type mmapReader struct {
	r *mmap.ReaderAt
}

func newMMapReader(path string) (*mmapReader, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &mmapReader{r: r}, nil
}

func (r *mmapReader) ReadAt(buf []byte, offset int64) (int, error) {
	return r.r.ReadAt(buf, offset)
}

func (r *mmapReader) Size() (int64, error) {
	return int64(r.r.Len()), nil
}

func (r *mmapReader) Close() error {
	return r.r.Close()
}
