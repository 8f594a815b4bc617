package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hockijo/techconnect/schema"
)

// guardFunc runs one exchange under a timeout and the caller's context.
type guardFunc func(ctx context.Context, timeout time.Duration, fn func() error) error

// link frames SCPI traffic over a byte stream. Commands end with a newline,
// text responses end with a newline and binary responses are arbitrary blocks.
type link struct {
	name    string
	w       io.Writer
	r       *bufio.Reader
	closer  io.Closer
	timeout time.Duration
	guard   guardFunc

	// readCmd is sent after every query on adapters that only talk when asked.
	readCmd string

	mu     sync.Mutex
	broken error
}

func newLink(name string, rwc io.ReadWriteCloser, timeout time.Duration, guard guardFunc) *link {
	return &link{
		name:    name,
		w:       rwc,
		r:       bufio.NewReader(rwc),
		closer:  rwc,
		timeout: timeout,
		guard:   guard,
	}
}

// Write sends a command that produces no response.
func (l *link) Write(ctx context.Context, cmd string) error {
	return l.exchange(ctx, cmd, func() error {
		return l.send(cmd)
	})
}

// Query sends cmd and returns the response line without its terminator.
func (l *link) Query(ctx context.Context, cmd string) (string, error) {
	var resp string
	err := l.exchange(ctx, cmd, func() error {
		if err := l.ask(cmd); err != nil {
			return err
		}
		line, err := l.r.ReadString('\n')
		resp = strings.TrimRight(line, "\r\n")
		return err
	})
	return resp, err
}

// QueryBinary sends cmd and decodes a block of little-endian int16 samples.
func (l *link) QueryBinary(ctx context.Context, cmd string) ([]int16, error) {
	var data []byte
	err := l.exchange(ctx, cmd, func() error {
		if err := l.ask(cmd); err != nil {
			return err
		}
		var err error
		data, err = ReadBlock(l.r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return DecodeWords(data)
}

// Close releases the underlying stream.
func (l *link) Close() error {
	return l.closer.Close()
}

func (l *link) send(cmd string) error {
	_, err := io.WriteString(l.w, cmd+"\n")
	return err
}

func (l *link) ask(cmd string) error {
	if err := l.send(cmd); err != nil {
		return err
	}
	if l.readCmd != "" {
		return l.send(l.readCmd)
	}
	return nil
}

// exchange serializes one command/response pair and classifies its failure.
// A timed out or cancelled exchange may leave a partial response on the wire, so the link
// refuses further traffic afterwards.
func (l *link) exchange(ctx context.Context, cmd string, fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.broken != nil {
		return fmt.Errorf("%w: %s unusable after earlier failure: %v", schema.ErrTransport, l.name, l.broken)
	}
	err := l.guard(ctx, l.timeout, fn)
	if err == nil {
		return nil
	}
	err = classify(l.name, cmd, err)
	if errors.Is(err, schema.ErrTimeout) || ctx.Err() != nil {
		l.broken = err
	}
	return err
}

// classify wraps err with ErrTimeout or ErrTransport.
func classify(name, cmd string, err error) error {
	if errors.Is(err, schema.ErrTransport) || errors.Is(err, schema.ErrTimeout) {
		return err
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %s %q: %v", schema.ErrTimeout, name, cmd, err)
	}
	return fmt.Errorf("%w: %s %q: %v", schema.ErrTransport, name, cmd, err)
}

// deadlineGuard bounds an exchange with connection deadlines.
// Context cancellation pulls the deadline into the past to unblock the read.
func deadlineGuard(conn net.Conn) guardFunc {
	return func(ctx context.Context, timeout time.Duration, fn func() error) error {
		deadline := time.Now().Add(timeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
		stop := context.AfterFunc(ctx, func() {
			_ = conn.SetDeadline(time.Unix(1, 0))
		})
		defer stop()

		err := fn()
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
}

// asyncGuard bounds an exchange on streams without deadlines by racing it
// against a timer. An abandoned exchange keeps running until the stream closes.
func asyncGuard(ctx context.Context, timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return os.ErrDeadlineExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}
