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

package server

import (
	"bufio"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeEngine is a minimal in-memory cairnkv.Engine stand-in, so these
// tests exercise only the wire dispatch, not the storage engine.
type fakeEngine struct {
	data map[string]string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{data: make(map[string]string)}
}

func (e *fakeEngine) Set(key, value string) error {
	e.data[key] = value
	return nil
}

func (e *fakeEngine) Get(key string) (string, bool, error) {
	value, ok := e.data[key]
	return value, ok, nil
}

func (e *fakeEngine) Remove(key string) error {
	if _, ok := e.data[key]; !ok {
		return errors.New("cairnkv: key not found")
	}
	delete(e.data, key)
	return nil
}

func startTestServer(t *testing.T) (addr string, engine *fakeEngine) {
	t.Helper()

	engine = newFakeEngine()
	srv := New(engine)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	srv.listener = listener

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			srv.handle(conn)
		}
	}()

	t.Cleanup(func() { _ = srv.Close() })

	return listener.Addr().String(), engine
}

func sendRequest(t *testing.T, addr, request string) string {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	assert.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(request))
	assert.NoError(t, err)

	response, err := bufio.NewReader(conn).ReadString('\n')
	assert.NoError(t, err)

	return response
}

func TestServerSetThenGet(t *testing.T) {
	addr, _ := startTestServer(t)

	assert.Equal(t, "OK\r\n", sendRequest(t, addr, "+\r\nkey1\r\nvalue1\r\n"))
	assert.Equal(t, "value1\r\n", sendRequest(t, addr, "?\r\nkey1\r\n"))
}

func TestServerGetAbsentKey(t *testing.T) {
	addr, _ := startTestServer(t)

	assert.Equal(t, "-1\r\n", sendRequest(t, addr, "?\r\nnope\r\n"))
}

func TestServerRemove(t *testing.T) {
	addr, _ := startTestServer(t)

	assert.Equal(t, "OK\r\n", sendRequest(t, addr, "+\r\nkey1\r\nvalue1\r\n"))
	assert.Equal(t, "OK\r\n", sendRequest(t, addr, "-\r\nkey1\r\n"))
	assert.Equal(t, "-1\r\n", sendRequest(t, addr, "?\r\nkey1\r\n"))
}

func TestServerRemoveMissingKeyReturnsError(t *testing.T) {
	addr, _ := startTestServer(t)

	response := sendRequest(t, addr, "-\r\nnope\r\n")
	assert.Equal(t, byte('!'), response[0])
}

func TestServerMalformedRequestReturnsError(t *testing.T) {
	addr, _ := startTestServer(t)

	response := sendRequest(t, addr, "*\r\nkey1\r\n")
	assert.Equal(t, byte('!'), response[0])
}

func TestServerClosesConnectionAfterOneRequest(t *testing.T) {
	addr, _ := startTestServer(t)

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	assert.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("?\r\nkey1\r\n"))
	assert.NoError(t, err)

	r := bufio.NewReader(conn)
	_, err = r.ReadString('\n')
	assert.NoError(t, err)

	// The server closed its end after the one response; a second read
	// must observe EOF rather than a hung connection.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = r.ReadByte()
	assert.Error(t, err)
}
