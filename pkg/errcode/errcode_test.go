package errcode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	wrapped := ErrTransientStore.Wrap(errors.New("dial tcp: refused"))
	assert.Equal(t, ErrTransientStore.Code, wrapped.Code)
	assert.Contains(t, wrapped.Msg, "dial tcp")
	assert.True(t, ErrTransientStore.Is(wrapped))

	assert.Same(t, ErrTransientStore, ErrTransientStore.Wrap(nil))
}

func TestIs(t *testing.T) {
	assert.True(t, ErrConvNotFound.Is(ErrConvNotFound))
	assert.False(t, ErrConvNotFound.Is(ErrNotFound))
	assert.False(t, ErrConvNotFound.Is(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrTransientStore))
	assert.True(t, IsRetryable(ErrTransientStore.Wrap(errors.New("timeout"))))
	assert.False(t, IsRetryable(ErrNotConversationParty))
	assert.False(t, IsRetryable(errors.New("plain")))
}
