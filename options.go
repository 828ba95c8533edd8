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

import "errors"

// Options configures a Store opened with Open.
type Options struct {
	// DirectoryPath is the user-supplied root directory. Open creates a
	// ".kvsdata" subdirectory inside it (spec §6) if one doesn't exist.
	DirectoryPath string

	// CompactionThreshold is the number of uncompacted (superseded or
	// tombstoned) bytes that triggers a compaction after a mutation.
	// Spec §4.C fixes this at 1 MiB; it's exposed here, in the teacher's
	// style of surfacing tunables on Options, mainly so tests can drive
	// compaction without writing a megabyte of data.
	CompactionThreshold int64
}

// DefaultOptions mirrors the teacher's DefaultOptions package var: a
// ready-to-use configuration, overridden field-by-field by callers.
var DefaultOptions = Options{
	CompactionThreshold: 1048576, // 1 MiB, per spec §4.C
}

func checkOptions(options Options) error {
	if options.DirectoryPath == "" {
		return errors.New("cairnkv: DirectoryPath must not be empty")
	}

	if options.CompactionThreshold <= 0 {
		return errors.New("cairnkv: CompactionThreshold must be greater than zero")
	}

	return nil
}
