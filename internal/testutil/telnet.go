package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/whatfools/internal/frontend/telnet"
)

// DefaultWait bounds Expect.
const DefaultWait = 5 * time.Second

// TelnetClient plays the deity's side of a telnet session in tests. It sees
// the session as a player's terminal would: negotiation bytes and color codes
// are removed before any match.
type TelnetClient struct {
	t    testing.TB
	conn net.Conn
	// raw holds every byte received; screen is derived from it so that an
	// IAC sequence or escape code split across reads still filters cleanly.
	raw []byte
	// seen is the offset in the screen text up to which matches were consumed.
	seen int
}

// NewTelnetClient dials addr and returns a client closed at test cleanup.
//
// Precondition: addr must be a "host:port" with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t testing.TB, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, DefaultWait)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &TelnetClient{t: t, conn: conn}
}

// screen returns the received text with IAC sequences and SGR codes removed.
func (c *TelnetClient) screen() string {
	return telnet.StripANSI(string(telnet.FilterIAC(c.raw)))
}

// ReadUntil reads until substr appears in the unconsumed screen text.
// Text after the match stays unconsumed for the next call.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns the plain text from the previous match through
// substr, or fails the test on timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	tmp := make([]byte, 1024)
	for {
		text := c.screen()
		if i := strings.Index(text[c.seen:], substr); i >= 0 {
			end := c.seen + i + len(substr)
			out := text[c.seen:end]
			c.seen = end
			return out
		}
		n, err := c.conn.Read(tmp)
		c.raw = append(c.raw, tmp[:n]...)
		if err != nil && n == 0 {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, c.screen()[c.seen:], err)
		}
	}
}

// Expect is ReadUntil with DefaultWait.
func (c *TelnetClient) Expect(substr string) string {
	c.t.Helper()
	return c.ReadUntil(substr, DefaultWait)
}

// Answer waits for prompt and sends reply.
func (c *TelnetClient) Answer(prompt, reply string) {
	c.t.Helper()
	c.Expect(prompt)
	c.Send(reply)
}

// Transcript returns everything received so far as plain text.
func (c *TelnetClient) Transcript() string {
	return c.screen()
}

// Send writes text followed by CRLF.
//
// Precondition: text must not end in a line terminator.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(DefaultWait))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the connection, ending the session.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}
