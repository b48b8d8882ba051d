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
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/pkg/errors"
	mux "github.com/xtaci/smux"

	"github.com/CovenantSQL/vectortime/utils/log"
)

// Server accepts inbound connections, multiplexes each with smux, and
// serves one net/rpc session per stream. One Server backs every inbound
// surface a VT exposes: shard callbacks, client requests, and peer gossip
// all register their methods on the same instance, keyed by the Go method
// name (e.g. "Dispatcher.ClientTxInit").
type Server struct {
	rpcServer *rpc.Server
	listener  net.Listener
	stopCh    chan struct{}
}

// NewServer returns a Server with no registered services yet.
func NewServer() *Server {
	return &Server{
		rpcServer: rpc.NewServer(),
		stopCh:    make(chan struct{}),
	}
}

// RegisterName exposes a service under name, following net/rpc's own
// exported-method convention. Call once per receiver before Serve.
func (s *Server) RegisterName(name string, receiver interface{}) error {
	return s.rpcServer.RegisterName(name, receiver)
}

// Listen binds addr and readies the Server for Serve.
func (s *Server) Listen(addr string) (err error) {
	s.listener, err = net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s failed", addr)
	}
	return nil
}

// Serve runs the accept loop until Stop is called. It blocks, so callers
// normally invoke it in its own goroutine.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				log.WithField("err", err).Warn("rpc: accept failed")
				continue
			}
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	sess, err := mux.Server(conn, MuxConfig)
	if err != nil {
		log.WithField("err", err).Warn("rpc: mux session setup failed")
		_ = conn.Close()
		return
	}
	defer sess.Close()

	for {
		stream, err := sess.AcceptStream()
		if err != nil {
			if err != io.EOF {
				log.WithField("err", err).Debug("rpc: session closed")
			}
			return
		}
		go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(stream))
	}
}

// Stop closes the listener; connections already accepted keep running until
// their peer disconnects.
func (s *Server) Stop() {
	close(s.stopCh)
	if s.listener != nil {
		_ = s.listener.Close()
	}
}
