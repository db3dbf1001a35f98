package xio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeCounter struct {
	bytes.Buffer
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return nil
}

func TestNopCloser(t *testing.T) {
	buf := &bytes.Buffer{}
	wc := NopCloser(buf)

	_, err := wc.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, wc.Close())
	assert.Equal(t, "png", buf.String())
}

func TestNopCloserClosesOnce(t *testing.T) {
	c := &closeCounter{}
	wc := NopCloser(c)

	require.NoError(t, wc.Close())
	require.NoError(t, wc.Close())
	assert.Equal(t, 1, c.closes)
}
