package xio

import (
	"io"
)

// NopCloser wraps w so it can be handed to APIs that insist on closing their
// writer. Close only closes w if it is an io.Closer itself.
func NopCloser(w io.Writer) io.WriteCloser {
	return &writeCloser{
		Writer: w,
	}
}

type writeCloser struct {
	io.Writer
	closed bool
}

func (wc *writeCloser) Close() error {
	if wc.closed {
		return nil
	}
	wc.closed = true
	if closer, ok := wc.Writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
