package ircd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidNick(t *testing.T) {
	require.True(t, isValidNick("alice"))
	require.True(t, isValidNick("Alice_99"))
	require.True(t, isValidNick("9alice")) // spec's char class has no leading-digit rule
	require.True(t, isValidNick(strings.Repeat("a", maxNickLength)))
	require.False(t, isValidNick(""))
	require.False(t, isValidNick("a b"))
	require.False(t, isValidNick("a[b]")) // outside [A-Za-z0-9_-]
	require.False(t, isValidNick(strings.Repeat("a", maxNickLength+1)))
}

func TestIsValidChannel(t *testing.T) {
	require.True(t, isValidChannel("#general"))
	require.False(t, isValidChannel("general"))
	require.False(t, isValidChannel("#"))
	require.False(t, isValidChannel("#has space"))
}

func TestIsValidUser(t *testing.T) {
	require.True(t, isValidUser("alice"))
	require.False(t, isValidUser(""))
	require.False(t, isValidUser("has space"))
}
