package teletext

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linesBuffer builds n fixed-size line records, each filled with its own
// line index so Next()'s returned bytes can be checked against its ordinal.
func linesBuffer(cfg *Config, n int) *bytes.Reader {
	buf := make([]byte, n*cfg.LineLength)
	for i := 0; i < n; i++ {
		for j := 0; j < cfg.LineLength; j++ {
			buf[i*cfg.LineLength+j] = byte(i)
		}
	}
	return bytes.NewReader(buf)
}

func Test_LineSource_ReadsSequentialLines(t *testing.T) {
	cfg := &Config{LineLength: 4}
	src, err := NewLineSource(linesBuffer(cfg, 3), cfg)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		data, ordinal, err := src.Next()
		require.NoError(t, err)
		assert.Equal(t, uint64(i), ordinal)
		assert.Equal(t, byte(i), data[0])
	}

	_, _, err = src.Next()
	assert.Equal(t, io.EOF, err)
}

func Test_LineSource_WithStart(t *testing.T) {
	cfg := &Config{LineLength: 4}
	src, err := NewLineSource(linesBuffer(cfg, 5), cfg, WithStart(2))
	require.NoError(t, err)

	data, ordinal, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ordinal)
	assert.Equal(t, byte(2), data[0])
}

func Test_LineSource_WithStop(t *testing.T) {
	cfg := &Config{LineLength: 4}
	src, err := NewLineSource(linesBuffer(cfg, 5), cfg, WithStop(2))
	require.NoError(t, err)

	var ordinals []uint64
	for {
		_, ordinal, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ordinals = append(ordinals, ordinal)
	}

	assert.Equal(t, []uint64{0, 1}, ordinals)
}

func Test_LineSource_WithStep(t *testing.T) {
	cfg := &Config{LineLength: 4}
	src, err := NewLineSource(linesBuffer(cfg, 6), cfg, WithStep(2))
	require.NoError(t, err)

	var ordinals []uint64
	for {
		data, ordinal, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ordinals = append(ordinals, ordinal)
		assert.Equal(t, byte(ordinal), data[0])
	}

	assert.Equal(t, []uint64{0, 2, 4}, ordinals)
}

func Test_LineSource_WithLimit(t *testing.T) {
	cfg := &Config{LineLength: 4}
	src, err := NewLineSource(linesBuffer(cfg, 10), cfg, WithLimit(2))
	require.NoError(t, err)

	count := 0
	for {
		_, _, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}

	assert.Equal(t, 2, count)
}

func Test_LineSource_TruncatedRecordYieldsEOF(t *testing.T) {
	cfg := &Config{LineLength: 4}
	src, err := NewLineSource(bytes.NewReader([]byte{1, 2}), cfg)
	require.NoError(t, err)

	_, _, err = src.Next()
	assert.Equal(t, io.EOF, err)
}
