// Package humanloop models out-of-band human input as an injected callback
// with an explicit timeout and fallback.
package humanloop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var ErrClosed = errors.New("input closed")

// Requester asks a human for a line of input. Implementations return when
// ctx is done.
type Requester interface {
	RequestInput(ctx context.Context, prompt string) (string, error)
}

// RequesterFunc adapts a function to Requester.
type RequesterFunc func(ctx context.Context, prompt string) (string, error)

func (f RequesterFunc) RequestInput(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Ask requests input, returning fallback when the request times out, fails,
// or yields only whitespace. A zero timeout waits for ctx alone.
func Ask(ctx context.Context, r Requester, prompt string, timeout time.Duration, fallback string) string {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	v, err := r.RequestInput(ctx, prompt)
	if err != nil || strings.TrimSpace(v) == "" {
		return fallback
	}

	return strings.TrimSpace(v)
}

// LineReader prompts on out and reads newline-terminated answers from in.
// A single reader goroutine scans one line per request. A line that
// arrives after its request was abandoned is discarded rather than handed
// to the next prompt.
type LineReader struct {
	out      io.Writer
	in       *bufio.Scanner
	once     sync.Once
	requests chan chan string
	done     chan struct{}
	err      error
}

func NewLineReader(in io.Reader, out io.Writer) *LineReader {
	return &LineReader{
		out:      out,
		in:       bufio.NewScanner(in),
		requests: make(chan chan string),
		done:     make(chan struct{}),
	}
}

func (l *LineReader) start() {
	go func() {
		defer close(l.done)
		for answer := range l.requests {
			if !l.in.Scan() {
				l.err = l.in.Err()
				return
			}
			// answer has room for one line; an abandoned request never reads it.
			answer <- l.in.Text()
		}
	}()
}

// RequestInput writes prompt and waits for the next line.
func (l *LineReader) RequestInput(ctx context.Context, prompt string) (string, error) {
	l.once.Do(l.start)

	if prompt != "" {
		fmt.Fprint(l.out, prompt)
	}

	answer := make(chan string, 1)

	select {
	case l.requests <- answer:
	case <-l.done:
		return "", l.closedErr()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case line := <-answer:
		return line, nil
	case <-l.done:
		select {
		case line := <-answer:
			return line, nil
		default:
			return "", l.closedErr()
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *LineReader) closedErr() error {
	if l.err != nil {
		return l.err
	}
	return ErrClosed
}
