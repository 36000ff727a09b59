// Package wire frames the IRC protocol over a TCP connection: reading one
// CRLF-terminated line at a time and decoding/encoding it with
// github.com/horgh/irc, which already implements the
// "[:<prefix>] <command> [<params>...] [:<trailing>]" grammar this
// project needs verbatim.
package wire

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/horgh/irc"
)

// Conn is a line-oriented IRC connection. It has no concept of client vs.
// server; it only knows how to move Messages across a net.Conn.
type Conn struct {
	conn net.Conn
	rw   *bufio.ReadWriter

	// ioWait bounds how long a single read or write may block, so a dead
	// peer cannot wedge a reader or writer goroutine forever.
	ioWait time.Duration
}

// New wraps an established TCP connection.
func New(conn net.Conn, ioWait time.Duration) *Conn {
	return &Conn{
		conn:   conn,
		rw:     bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
		ioWait: ioWait,
	}
}

// RemoteAddr returns the remote network address of the underlying
// connection.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// ReadMessage reads and parses a single protocol line.
func (c *Conn) ReadMessage() (irc.Message, error) {
	if c.ioWait > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.ioWait)); err != nil {
			return irc.Message{}, fmt.Errorf("unable to set read deadline: %w", err)
		}
	}

	line, err := c.rw.ReadString('\n')
	if err != nil {
		return irc.Message{}, err
	}

	m, err := irc.ParseMessage(line)
	if err != nil && err != irc.ErrTruncated {
		return irc.Message{}, fmt.Errorf("malformed message: %w", err)
	}

	return m, nil
}

// WriteMessage encodes and writes a single protocol message.
func (c *Conn) WriteMessage(m irc.Message) error {
	buf, err := m.Encode()
	if err != nil && err != irc.ErrTruncated {
		return fmt.Errorf("unable to encode message: %w", err)
	}

	if c.ioWait > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.ioWait)); err != nil {
			return fmt.Errorf("unable to set write deadline: %w", err)
		}
	}

	if _, err := c.rw.WriteString(buf); err != nil {
		return err
	}

	return c.rw.Flush()
}
