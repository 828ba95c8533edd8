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

// Command cairnkv-client sends a single get/set/rm request to a
// cairnkv-server and prints the response. Argument parsing and process
// lifecycle are out of scope for the storage engine (spec §1), so this
// is a thin wire-protocol exerciser, not a full CLI.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/cairnkv/cairnkv/internal/protocol"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:6399", "server address")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: cairnkv-client [-addr host:port] get|set|rm key [value]")
		os.Exit(2)
	}

	req, err := buildRequest(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(*addr, req); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRequest(args []string) (protocol.Request, error) {
	switch args[0] {
	case "get":
		if len(args) != 2 {
			return protocol.Request{}, fmt.Errorf("get takes exactly one key")
		}
		return protocol.Request{Op: protocol.OpGet, Key: args[1]}, nil
	case "set":
		if len(args) != 3 {
			return protocol.Request{}, fmt.Errorf("set takes exactly a key and a value")
		}
		return protocol.Request{Op: protocol.OpSet, Key: args[1], Value: args[2]}, nil
	case "rm":
		if len(args) != 2 {
			return protocol.Request{}, fmt.Errorf("rm takes exactly one key")
		}
		return protocol.Request{Op: protocol.OpRemove, Key: args[1]}, nil
	default:
		return protocol.Request{}, fmt.Errorf("unknown command %q", args[0])
	}
}

func run(addr string, req protocol.Request) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	buf, err := protocol.EncodeRequest(req)
	if err != nil {
		return err
	}
	if _, err := conn.Write(buf); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	response, err := protocol.ReadResponse(bufio.NewReader(conn))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// The response line is printed to stdout as received: an absent key
	// on GET shows as the "-1" sentinel, and a "!..." error reply is
	// printed here too rather than to stderr.
	fmt.Println(response)
	return nil
}
