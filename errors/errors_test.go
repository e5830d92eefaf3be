package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(429, "policy %s exceeded", "login")
	assert.Equal(t, 429, err.GetCode())
	assert.Equal(t, "policy login exceeded", err.GetMessage())
	assert.Equal(t, "code=429, message=policy login exceeded", err.Error())

	// no args: format is taken literally
	assert.Equal(t, "100%", New(400, "100%").GetMessage())
}

func TestWithMetadata(t *testing.T) {
	err := New(429, "denied")
	assert.Same(t, err, err.WithMetadata(nil))

	withMeta := err.WithMetadata(map[string]string{"policy": "api", "key": "k1"})
	assert.NotSame(t, err, withMeta)
	assert.Nil(t, err.GetMetadata())
	assert.Equal(t, "code=429, message=denied, metadata={key=k1, policy=api}", withMeta.Error())

	meta := withMeta.GetMetadata()
	meta["policy"] = "changed"
	assert.Equal(t, "api", withMeta.Metadata["policy"])
}

func TestWrapAndUnwrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, 500, "ignored"))

	cause := errors.New("connection refused")
	err := Wrap(cause, 503, "redis unavailable")
	require.NotNil(t, err)
	assert.Same(t, cause, err.GetCause())
	assert.True(t, Is(err, cause))
	assert.Contains(t, err.Error(), "cause=connection refused")
}

func TestIsComparesCodeAndMessage(t *testing.T) {
	a := New(404, "policy not found")
	b := New(404, "policy not found").WithMetadata(map[string]string{"policy": "x"})
	assert.True(t, Is(b, a))
	assert.False(t, Is(New(404, "other"), a))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	coded := TooManyRequests("slow down")
	assert.Same(t, coded, FromError(coded))

	plain := errors.New("plain")
	converted := FromError(plain)
	assert.Equal(t, UnknownCode, converted.Code)
	assert.Same(t, plain, converted.GetCause())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 429, HTTPStatus(TooManyRequests("x")))
	assert.Equal(t, 500, HTTPStatus(New(10001, "business code")))
	assert.Equal(t, 500, HTTPStatus(errors.New("plain")))
	assert.Equal(t, 0, Code(nil))
}
