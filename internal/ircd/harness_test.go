package ircd

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/horgh/irc"
)

// testClient is a minimal IRC client used to drive a Server under test,
// adapted from the teacher's internal/client_test.go harness: connect,
// register, then read/write messages over channels. The reader answers
// every PING with a PONG on its own.
type testClient struct {
	nick string
	conn net.Conn
	rw   *bufio.ReadWriter

	recvChan chan irc.Message
	doneChan chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	channels map[string]struct{}
}

func newTestClient(t *testing.T, addr, nick string) *testClient {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial %s: %s", addr, err)
	}

	c := &testClient{
		nick:     nick,
		conn:     conn,
		rw:       bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
		recvChan: make(chan irc.Message, 256),
		doneChan: make(chan struct{}),
		channels: map[string]struct{}{},
	}

	if err := c.send(irc.Message{Command: "NICK", Params: []string{nick}}); err != nil {
		t.Fatalf("send NICK: %s", err)
	}
	if err := c.send(irc.Message{Command: "USER", Params: []string{nick, "0", "*", nick}}); err != nil {
		t.Fatalf("send USER: %s", err)
	}

	c.wg.Add(1)
	go c.reader()

	return c
}

func (c *testClient) send(m irc.Message) error {
	buf, err := m.Encode()
	if err != nil && err != irc.ErrTruncated {
		return err
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	if _, err := c.rw.WriteString(buf); err != nil {
		return err
	}
	return c.rw.Flush()
}

func (c *testClient) reader() {
	defer c.wg.Done()
	for {
		select {
		case <-c.doneChan:
			close(c.recvChan)
			return
		default:
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)); err != nil {
			close(c.recvChan)
			return
		}
		line, err := c.rw.ReadString('\n')
		if err != nil {
			if strings.Contains(err.Error(), "i/o timeout") {
				continue
			}
			close(c.recvChan)
			return
		}

		m, err := irc.ParseMessage(line)
		if err != nil && err != irc.ErrTruncated {
			continue
		}

		if m.Command == "PING" && len(m.Params) > 0 {
			_ = c.send(irc.Message{Command: "PONG", Params: []string{m.Params[0]}})
		}
		if m.Command == "JOIN" && m.SourceNick() == c.nick && len(m.Params) > 0 {
			c.mu.Lock()
			c.channels[m.Params[0]] = struct{}{}
			c.mu.Unlock()
		}

		c.recvChan <- m
	}
}

// waitFor reads messages until pred returns true or the timeout
// elapses, returning the matching message.
func (c *testClient) waitFor(pred func(irc.Message) bool, timeout time.Duration) (irc.Message, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case m, ok := <-c.recvChan:
			if !ok {
				return irc.Message{}, false
			}
			if pred(m) {
				return m, true
			}
		case <-deadline:
			return irc.Message{}, false
		}
	}
}

func (c *testClient) waitForCommand(command string, timeout time.Duration) (irc.Message, bool) {
	return c.waitFor(func(m irc.Message) bool { return m.Command == command }, timeout)
}

func (c *testClient) stop() {
	close(c.doneChan)
	c.wg.Wait()
	_ = c.conn.Close()
}

// startTestServer starts a Server listening on an ephemeral loopback
// port and returns it along with its address.
func startTestServer(t *testing.T) (*Server, string) {
	s := &Server{
		serverName:  "test.ayame",
		info:        "test server",
		createdAt:   time.Now(),
		listenHost:  "127.0.0.1",
		listenPort:  0,
		clients:     map[string]*Session{},
		pending:     map[*Session]struct{}{},
		channels:    map[string]*Channel{},
		opers:       map[string]operCred{"admin": {name: "admin", password: "hunter2"}},
		activeOpers: map[string]struct{}{},
		history:     map[string][]nickHistoryEntry{},
	}
	s.services = newServiceShell()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %s", err)
	}
	s.listener = ln

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.wg.Add(1)
			go s.handleConn(conn)
		}
	}()

	return s, ln.Addr().String()
}

func registeredClient(t *testing.T, addr, nick string) *testClient {
	c := newTestClient(t, addr, nick)
	if _, ok := c.waitForCommand(rplWelcome, 2*time.Second); !ok {
		t.Fatalf("client %s: never got welcome burst", nick)
	}
	return c
}
