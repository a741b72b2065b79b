/*
 * maqsim - Raw-byte telnet front end for the four simulated terminals.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package termserver binds each of the kernel's four simulated
// terminals (spec.md §4.6, ESCR/LE's terminal_id = (pid-1) % 4) to a
// TCP port a real telnet client can attach to. Grounded on the
// teacher's telnet/listener.go Server type (net.Listener,
// sync.WaitGroup, shutdown channel, one accept goroutine plus one
// per-connection goroutine) — the IBM 3270 negotiation state machine
// in telnet/telnet.go is dropped entirely: these are simple
// byte-at-a-time async terminals (spec.md §3), never full-screen
// block-mode devices, so there is nothing for that negotiation to
// exist for.
package termserver

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rcornwell/maqsim/hw/iobus"
)

// Server listens on one TCP port and pumps bytes between its socket
// and one hw/iobus.Terminal.
type Server struct {
	wg       sync.WaitGroup
	listener net.Listener
	shutdown chan struct{}
	term     *iobus.Terminal
	addr     string
}

// Listen opens addr (e.g. ":2023") and starts pumping bytes to/from
// term. The caller keeps the returned Server to call Stop later.
func Listen(addr string, term *iobus.Terminal) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("termserver: listen %s: %w", addr, err)
	}
	s := &Server{listener: l, shutdown: make(chan struct{}), term: term, addr: addr}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				slog.Error("termserver: accept: " + err.Error())
				return
			}
		}
		s.wg.Add(1)
		go s.handleClient(conn)
	}
}

// handleClient pumps inbound bytes into the terminal's keyboard
// register and drains its screen register to the socket. Every
// accepted connection gets its own handler: several connections to one
// terminal all deliver keystrokes into it, and each chunk of screen
// output goes to whichever handler drains it first.
func (s *Server) handleClient(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			for i := 0; i < n; i++ {
				s.term.Deliver(buf[i])
			}
			if err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			out := s.term.DrainScreen()
			if len(out) == 0 {
				continue
			}
			if _, err := conn.Write(out); err != nil {
				return
			}
		}
	}
}

// Stop closes the listener and waits (briefly) for goroutines to
// notice and exit.
func (s *Server) Stop() {
	close(s.shutdown)
	s.listener.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("termserver: timed out waiting for " + s.addr + " to close")
	}
}
