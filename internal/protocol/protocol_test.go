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

package protocol

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadRequestGet(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("?\r\nkey1\r\n"))

	req, err := ReadRequest(r)
	assert.NoError(t, err)
	assert.Equal(t, Request{Op: OpGet, Key: "key1"}, req)
}

func TestReadRequestSet(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("+\r\nkey1\r\nvalue1\r\n"))

	req, err := ReadRequest(r)
	assert.NoError(t, err)
	assert.Equal(t, Request{Op: OpSet, Key: "key1", Value: "value1"}, req)
}

func TestReadRequestRemove(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("-\r\nkey1\r\n"))

	req, err := ReadRequest(r)
	assert.NoError(t, err)
	assert.Equal(t, Request{Op: OpRemove, Key: "key1"}, req)
}

func TestReadRequestUnknownOpcodeIsProtocolError(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("*\r\nkey1\r\n"))

	_, err := ReadRequest(r)
	assert.ErrorIs(t, err, ErrProtocolError)
}

func TestReadRequestMissingLineIsProtocolError(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("+\r\nkey1\r\n"))

	_, err := ReadRequest(r)
	assert.ErrorIs(t, err, ErrProtocolError)
}

func TestEncodeRequestRoundTrips(t *testing.T) {
	for _, req := range []Request{
		{Op: OpGet, Key: "key1"},
		{Op: OpSet, Key: "key1", Value: "value1"},
		{Op: OpRemove, Key: "key1"},
	} {
		buf, err := EncodeRequest(req)
		assert.NoError(t, err)

		decoded, err := ReadRequest(bufio.NewReader(bytes.NewReader(buf)))
		assert.NoError(t, err)
		assert.Equal(t, req, decoded)
	}
}

func TestWriteValue(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteValue(&buf, "value1"))
	assert.Equal(t, "value1\r\n", buf.String())
}

func TestWriteAbsent(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteAbsent(&buf))
	assert.Equal(t, "-1\r\n", buf.String())
}

func TestWriteOK(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteOK(&buf))
	assert.Equal(t, "OK\r\n", buf.String())
}

func TestWriteErrorStripsCRLF(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteError(&buf, "bad\r\nthing"))
	assert.Equal(t, "!bad  thing\r\n", buf.String())
}
