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

// Command cairnkv-server starts a cairnkv.Store behind the CRLF wire
// protocol. Argument parsing, process lifecycle, and signal handling
// are explicitly out of scope for the storage engine itself, so this
// stays as thin as the teacher's redis/cmd/server.go: open the engine,
// wrap it in a server, listen.
package main

import (
	"flag"
	"log"

	"github.com/cairnkv/cairnkv"
	"github.com/cairnkv/cairnkv/internal/server"
)

func main() {
	dir := flag.String("dir", "./cairnkv-data", "data directory root")
	addr := flag.String("addr", "127.0.0.1:6399", "listen address")
	flag.Parse()

	options := cairnkv.DefaultOptions
	options.DirectoryPath = *dir

	db, err := cairnkv.Open(options)
	if err != nil {
		log.Fatalf("cairnkv-server: open %s: %v", *dir, err)
	}
	defer db.Close()

	srv := server.New(db)
	if err := srv.ListenAndServe(*addr); err != nil {
		log.Fatalf("cairnkv-server: %v", err)
	}
}
