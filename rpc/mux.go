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

// Package rpc carries VT messages between a timestamper, its shards, its
// clients and its peer VTs. It multiplexes one smux.Session per outbound TCP
// connection and runs net/rpc with the JSON codec over each smux.Stream, so
// concurrent calls to the same remote (e.g. a TX_INIT and a NOP bound for
// the same shard) share a single socket.
package rpc

import (
	"net"

	"github.com/pkg/errors"
	mux "github.com/xtaci/smux"
)

// MuxConfig holds the default smux session configuration shared by every
// dialed and accepted connection.
var MuxConfig = mux.DefaultConfig()

// dialSession opens a fresh TCP connection to addr and wraps it in a smux
// client session.
func dialSession(addr string) (*mux.Session, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s failed", addr)
	}
	sess, err := mux.Client(conn, MuxConfig)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "init mux session to %s failed", addr)
	}
	return sess, nil
}
