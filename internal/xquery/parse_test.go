package xquery

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	query := url.Values{
		"a": {"on"},
		"b": {"no"},
		"c": {"true"},
		"d": {"maybe"},
	}

	assert.True(t, ParseBool(query, "a", false))
	assert.False(t, ParseBool(query, "b", true))
	assert.True(t, ParseBool(query, "c", false))
	assert.True(t, ParseBool(query, "d", true))
	assert.False(t, ParseBool(query, "missing", false))
}

func TestParseInt(t *testing.T) {
	query := url.Values{"n": {"12"}, "bad": {"x"}}

	assert.Equal(t, 12, ParseInt(query, "n", 0))
	assert.Equal(t, 5, ParseInt(query, "bad", 5))
	assert.Equal(t, 7, ParseInt(query, "missing", 7))
}

func TestParseTime(t *testing.T) {
	def := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	query := url.Values{"from": {"2026-10-19"}, "bad": {"19.10.2026"}}

	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), ParseTime(query, "from", def))
	assert.Equal(t, def, ParseTime(query, "bad", def))
}

func TestParseStringSlice(t *testing.T) {
	query := url.Values{"status": {" upcoming, ,passed "}, "empty": {" , "}}

	assert.Equal(t, []string{"upcoming", "passed"}, ParseStringSlice(query, "status", nil))
	assert.Equal(t, []string{"all"}, ParseStringSlice(query, "empty", []string{"all"}))
	assert.Nil(t, ParseStringSlice(query, "missing", nil))
}

func TestPathInt(t *testing.T) {
	v, ok := PathInt("42")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, ok = PathInt(bad)
		assert.False(t, ok, bad)
	}
}
