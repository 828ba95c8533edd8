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
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFileName is the advisory lock file Open acquires inside the data
// directory, refer to [https://github.com/gofrs/flock]. Spec §5 and §9
// leave concurrent-open protection as the caller's responsibility; this
// resolves that Open Question the way a production rewrite would, the
// same way the teacher's Database.fileLock does.
const lockFileName = ".lock"

func acquireDirectoryLock(dataDir string) (*flock.Flock, error) {
	fileLock := flock.New(filepath.Join(dataDir, lockFileName))

	held, err := fileLock.TryLock()
	if err != nil {
		return nil, err
	}
	if !held {
		return nil, ErrDatabaseIsInUse
	}

	return fileLock, nil
}
