package apierrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsObjectNotFound(t *testing.T) {
	err := NewObjectNotFoundError("foo", fmt.Errorf("bar"))
	require.True(t, IsObjectNotFound(err))
	require.True(t, IsUnretriable(err))
	require.Contains(t, err.Error(), "foo")
	require.Contains(t, err.Error(), "bar")
}

func TestUnretriable(t *testing.T) {
	err := Unretriable(fmt.Errorf("bar"))
	require.True(t, IsUnretriable(err))
	require.False(t, IsObjectNotFound(err))
	require.Equal(t, "bar", err.Error())
}
