package winmsg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteStringStopsAtCapacity(t *testing.T) {
	var b Buffer
	n := b.writeString(strings.Repeat("a", 1000), 1000)
	assert.Equal(t, MaxStr-1, n)
	assert.Equal(t, MaxStr-1, b.Len())
	assert.Equal(t, 0, b.Remaining())
	assert.False(t, b.putByte('x'))
}

func TestBufferWriteStringHonoursLimit(t *testing.T) {
	var b Buffer
	assert.Equal(t, 3, b.writeString("abcdef", 3))
	assert.Equal(t, 0, b.writeString("zz", 0))
	assert.Equal(t, "abc", string(b.Bytes()))
}

func TestBufferAddRendBounds(t *testing.T) {
	var b Buffer
	assert.ErrorIs(t, b.AddRend(-1, 1), ErrRenditionRange)
	assert.ErrorIs(t, b.AddRend(MaxStr, 1), ErrRenditionRange)
	for i := 0; i < MaxRend; i++ {
		require.NoError(t, b.AddRend(0, 1))
	}
	assert.ErrorIs(t, b.AddRend(0, 1), ErrRenditionFull)
	assert.Equal(t, MaxRend, b.NumRend())

	b.truncRends(2)
	assert.Equal(t, 2, b.NumRend())
	b.Reset()
	assert.Equal(t, 0, b.NumRend())
	assert.Equal(t, 0, b.Len())
}

func TestBufferSpliceShiftsRenditions(t *testing.T) {
	var b Buffer
	b.writeString("ab", 2)
	red := ParseAttrColor("r")
	b.splice(Line{Text: "cd", Rends: []Rend{{Pos: 1, Code: red}, {Pos: 2}}})
	assert.Equal(t, "abcd", string(b.Bytes()))
	assert.Equal(t, []Rend{{Pos: 3, Code: red}, {Pos: 4}}, b.Rends())
}

func TestBufferLineClampsRenditions(t *testing.T) {
	var b Buffer
	b.writeString("abc", 3)
	require.NoError(t, b.AddRend(10, 1))
	line := b.line(4)
	assert.Equal(t, "abc", line.Text)
	assert.Equal(t, 3, line.Rends[0].Pos)
	assert.Equal(t, 4, line.Tick)

	// the line is a copy
	b.putByte('d')
	assert.Equal(t, "abc", line.Text)
}
