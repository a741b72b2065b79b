/*
 * maqsim - Raw-byte telnet front end test set.
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

package termserver

import (
	"net"
	"testing"
	"time"

	"github.com/rcornwell/maqsim/hw/iobus"
)

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			return conn
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("dial %s: %v", addr, err)
	return nil
}

func TestKeystrokeReachesTerminal(t *testing.T) {
	term := iobus.NewTerminal()
	s, err := Listen("127.0.0.1:0", term)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Stop()

	conn := dial(t, s.listener.Addr().String())
	defer conn.Close()

	if _, err := conn.Write([]byte{42}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if term.KeyboardReady() {
			if got := term.ReadKeyboard(); got != 42 {
				t.Errorf("keystroke got: %d expected: 42", got)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("keystroke never reached the terminal")
}

func TestScreenOutputReachesSocket(t *testing.T) {
	term := iobus.NewTerminal()
	s, err := Listen("127.0.0.1:0", term)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Stop()

	conn := dial(t, s.listener.Addr().String())
	defer conn.Close()

	term.WriteScreen('O')
	term.WriteScreen('K')

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 2)
	n, err := readFull(conn, buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 2 || buf[0] != 'O' || buf[1] != 'K' {
		t.Errorf("screen output got: %q expected: OK", buf[:n])
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestStopClosesListener(t *testing.T) {
	term := iobus.NewTerminal()
	s, err := Listen("127.0.0.1:0", term)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := s.listener.Addr().String()
	s.Stop()

	if _, err := net.Dial("tcp", addr); err == nil {
		t.Errorf("expected dial to fail after Stop")
	}
}
