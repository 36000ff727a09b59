package ircd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleHierarchy(t *testing.T) {
	require.True(t, roleOwner.isAdmin())
	require.True(t, roleOwner.isOperator())
	require.True(t, roleAdmin.isOperator())
	require.True(t, roleOp.isHalfOp())
	require.True(t, roleHalfOp.isVoiced())
	require.False(t, roleVoice.isHalfOp())
	require.Equal(t, "~", roleOwner.prefixFor())
	require.Equal(t, "+", roleVoice.prefixFor())
	require.Equal(t, "", role(0).prefixFor())
}

func TestChannelBanAndException(t *testing.T) {
	ch := newChannel("#test")
	ch.addBan("*!*@evil.example.com")
	require.True(t, ch.banMatches("nick!user@evil.example.com"))
	require.False(t, ch.banMatches("nick!user@good.example.com"))

	ch.addException("nick!*@evil.example.com")
	require.False(t, ch.banMatches("nick!user@evil.example.com"))
	require.True(t, ch.banMatches("other!user@evil.example.com"))
}

func TestChannelModeStringAndApply(t *testing.T) {
	ch := newChannel("#test")
	require.True(t, ch.applyMode('m', true, ""))
	require.True(t, ch.applyMode('k', true, "secret"))
	require.True(t, ch.applyMode('l', true, "5"))
	require.False(t, ch.applyMode('z', true, ""))

	letters, args := ch.modesString()
	require.Contains(t, letters, "m")
	require.Contains(t, letters, "k")
	require.Contains(t, letters, "l")
	require.Equal(t, []string{"secret", "5"}, args)
}

func TestChannelNamesListIncludesPrefixes(t *testing.T) {
	ch := newChannel("#test")
	ch.addMember("alice", roleOwner)
	ch.addMember("bob", 0)
	names := ch.namesList()
	require.Contains(t, names, "~alice")
	require.Contains(t, names, "bob")
}

func TestLimitModeClearsOnZero(t *testing.T) {
	ch := newChannel("#test")
	ch.applyMode('l', true, "3")
	require.True(t, ch.atCapacity() == false)
	ch.addMember("a", 0)
	ch.addMember("b", 0)
	ch.addMember("c", 0)
	require.True(t, ch.atCapacity())
	ch.applyMode('l', false, "")
	require.False(t, ch.atCapacity())
}
