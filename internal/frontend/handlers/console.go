package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

type lineResult struct {
	line string
	err  error
}

// ConsoleConn is a LineConn over a plain reader and writer, such as stdin
// and stdout. Lines are read by a background goroutine so that ReadLine can
// return as soon as its context ends.
type ConsoleConn struct {
	out   io.Writer
	mu    sync.Mutex
	lines chan lineResult
}

// NewConsoleConn returns a ConsoleConn reading lines from in and writing to out.
//
// Precondition: in and out must be non-nil.
func NewConsoleConn(in io.Reader, out io.Writer) *ConsoleConn {
	if in == nil || out == nil {
		panic("handlers: NewConsoleConn precondition violated: in and out must be non-nil")
	}
	c := &ConsoleConn{out: out, lines: make(chan lineResult)}
	go c.scan(in)
	return c
}

func (c *ConsoleConn) scan(in io.Reader) {
	s := bufio.NewScanner(in)
	for s.Scan() {
		c.lines <- lineResult{line: s.Text()}
	}
	err := s.Err()
	if err == nil {
		err = io.EOF
	}
	for {
		c.lines <- lineResult{err: err}
	}
}

// ReadLine returns the next input line without its line ending.
//
// Postcondition: Returns the line, io.EOF once input is exhausted, or ctx.Err().
func (c *ConsoleConn) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-c.lines:
		return trimCR(r.line), r.err
	}
}

// WriteLine writes text followed by a newline.
func (c *ConsoleConn) WriteLine(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, text)
	return err
}

// WritePrompt writes prompt without a newline.
func (c *ConsoleConn) WritePrompt(prompt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, prompt)
	return err
}

func trimCR(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		return s[:n-1]
	}
	return s
}
