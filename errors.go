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

var (
	ErrKeyIsEmpty      = errors.New("cairnkv: key is empty")
	ErrValueIsEmpty    = errors.New("cairnkv: value is empty; use Remove to delete a key")
	ErrKeyNotFound     = errors.New("cairnkv: key not found")
	ErrDatabaseIsInUse = errors.New("cairnkv: data directory is in use by another store instance")
)
