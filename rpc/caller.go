/*
 * Copyright 2018 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package rpc

import (
	"io"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"sync"

	"github.com/pkg/errors"
	mux "github.com/xtaci/smux"
)

// Caller is a persistent RPC client to one remote address. It keeps one
// smux.Session open and opens a fresh stream per Call, so a slow call never
// blocks an unrelated one on the same socket. The underlying client is
// rebuilt lazily after a connection-level error instead of eagerly at
// construction time.
type Caller struct {
	targetAddr string

	mu   sync.Mutex
	sess *mux.Session
}

// NewCaller returns a Caller for targetAddr. No connection is made until
// the first Call.
func NewCaller(targetAddr string) *Caller {
	return &Caller{targetAddr: targetAddr}
}

func (c *Caller) session() (*mux.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil && !c.sess.IsClosed() {
		return c.sess, nil
	}
	sess, err := dialSession(c.targetAddr)
	if err != nil {
		return nil, err
	}
	c.sess = sess
	return sess, nil
}

func (c *Caller) resetSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		_ = c.sess.Close()
		c.sess = nil
	}
}

// Call issues one RPC and tears down the session on any connection-level
// failure, so the next Call dials fresh instead of wedging forever.
func (c *Caller) Call(method string, args, reply interface{}) error {
	sess, err := c.session()
	if err != nil {
		return err
	}

	stream, err := sess.OpenStream()
	if err != nil {
		c.resetSession()
		return errors.Wrapf(err, "open stream to %s failed", c.targetAddr)
	}
	defer stream.Close()

	client := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(stream))
	defer client.Close()

	err = client.Call(method, args, reply)
	if isConnectionError(err) {
		c.resetSession()
	}
	return errors.Wrapf(err, "call %s to %s failed", method, c.targetAddr)
}

// Close releases the underlying session.
func (c *Caller) Close() {
	c.resetSession()
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF || err == io.ErrClosedPipe || err == rpc.ErrShutdown {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "shut down") ||
		strings.Contains(msg, "closed")
}
