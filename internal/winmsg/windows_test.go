package winmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowFlags(t *testing.T) {
	fore := &Window{Number: 1}
	other := &Window{Number: 2}
	assert.Equal(t, "*", windowFlags(fore, fore, other, true))
	assert.Equal(t, "-", windowFlags(other, fore, other, true))
	assert.Equal(t, "", windowFlags(fore, fore, other, false))

	busy := &Window{Shared: true, Activity: true, Bell: true, LoggedIn: true, Logging: true, Zombie: true}
	assert.Equal(t, "&@!$(L)Z", windowFlags(busy, fore, other, true))
}

func TestWindowListStopsAtLimit(t *testing.T) {
	sess := &Session{Windows: []*Window{
		{Number: 0, Title: "aaaaaaaaaa"},
		{Number: 1, Title: "bbbbbbbbbb"},
		{Number: 2, Title: "cccccccccc"},
	}}
	text, rends := windowList(sess, nil, listOptions{limit: 24 + 22})
	assert.Equal(t, "0 aaaaaaaaaa  1 bbbbbbbbbb", text)
	assert.Empty(t, rends)

	text, _ = windowList(sess, nil, listOptions{limit: 10})
	assert.Equal(t, "", text)
}

func TestWindowListRenditionPriority(t *testing.T) {
	mon, bell := Code(3), Code(4)
	wr := WindowListRenditions{Monitor: mon, Bell: bell}
	assert.Equal(t, mon, wr.pick(&Window{Activity: true, Bell: true}))
	assert.Equal(t, bell, wr.pick(&Window{Bell: true}))
	assert.Zero(t, wr.pick(&Window{Silence: true}))
}
