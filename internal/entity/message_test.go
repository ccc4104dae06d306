package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parleyhq/parley/pkg/constant"
)

func strPtr(s string) *string { return &s }

func TestMessageHasPayload(t *testing.T) {
	assert.False(t, (&Message{}).HasPayload())
	assert.False(t, (&Message{Content: strPtr("")}).HasPayload())
	assert.True(t, (&Message{Content: strPtr("hi")}).HasPayload())
	assert.True(t, (&Message{MediaUrl: strPtr("https://cdn/x.png")}).HasPayload())
}

func TestMessagePreview(t *testing.T) {
	assert.Equal(t, "hi", (&Message{Content: strPtr("hi")}).Preview())

	m := &Message{MediaUrl: strPtr("https://cdn/x.png"), MediaType: constant.MediaTypeImage}
	assert.Equal(t, "[image]", m.Preview())
}

func TestMessageLess(t *testing.T) {
	a := &Message{Id: "100", CreatedAt: 1000}
	b := &Message{Id: "101", CreatedAt: 2000}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))

	// Same millisecond: id allocation order breaks the tie.
	c := &Message{Id: "102", CreatedAt: 2000}
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(b))
}

func TestMembershipWatermarkHelpers(t *testing.T) {
	m := &Membership{}
	assert.False(t, m.IsArchived())
	assert.Equal(t, int64(0), m.ClearedBeforeOrZero())
	assert.Equal(t, int64(0), m.LastReadAtOrZero())

	at := int64(5000)
	m.ArchivedAt = &at
	m.ClearedBefore = &at
	m.LastReadAt = &at
	assert.True(t, m.IsArchived())
	assert.Equal(t, at, m.ClearedBeforeOrZero())
	assert.Equal(t, at, m.LastReadAtOrZero())
}
