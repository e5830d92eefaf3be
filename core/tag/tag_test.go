package tag

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leaf struct {
	Capacity int `default:"10"`
}

type server struct {
	Addr    string        `default:":8080"`
	Timeout time.Duration `default:"5s"`
	Ratio   float64       `default:"0.5"`
	Enabled bool          `default:"true"`
	Addrs   []string      `default:"a:1,b:2"`
	Retries uint8         `default:"3"`
	Nested  leaf
	Ptr     *leaf `default:"{}"`
	Leaves  []leaf
	private string `default:"ignored"`
}

func TestApplyDefaults(t *testing.T) {
	s := &server{Leaves: []leaf{{}, {Capacity: 2}}}
	require.NoError(t, ApplyDefaults(s))

	assert.Equal(t, ":8080", s.Addr)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, 0.5, s.Ratio)
	assert.True(t, s.Enabled)
	assert.Equal(t, []string{"a:1", "b:2"}, s.Addrs)
	assert.EqualValues(t, 3, s.Retries)
	assert.Equal(t, 10, s.Nested.Capacity)
	require.NotNil(t, s.Ptr)
	assert.Equal(t, 10, s.Ptr.Capacity)
	assert.Equal(t, 10, s.Leaves[0].Capacity)
	assert.Equal(t, 2, s.Leaves[1].Capacity)
	assert.Empty(t, s.private)
}

func TestApplyDefaultsKeepsValues(t *testing.T) {
	s := &server{Addr: ":9090", Timeout: time.Second}
	require.NoError(t, ApplyDefaults(s))
	assert.Equal(t, ":9090", s.Addr)
	assert.Equal(t, time.Second, s.Timeout)
}

func TestApplyDefaultsErrors(t *testing.T) {
	assert.ErrorIs(t, ApplyDefaults(server{}), ErrTargetMustBePointer)
	assert.ErrorIs(t, ApplyDefaults((*server)(nil)), ErrTargetIsNil)

	type bad struct {
		Port int `default:"http"`
	}
	err := ApplyDefaults(&bad{})
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Port", fe.Path)
}
