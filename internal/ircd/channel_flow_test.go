package ircd

import (
	"testing"
	"time"

	"github.com/horgh/irc"
	"github.com/stretchr/testify/require"
)

func joinChannel(t *testing.T, c *testClient, name string) {
	t.Helper()
	require.NoError(t, c.send(irc.Message{Command: "JOIN", Params: []string{name}}))
	_, ok := c.waitForCommand("JOIN", 2*time.Second)
	require.True(t, ok, "%s: expected JOIN ack for %s", c.nick, name)
	_, _ = c.waitForCommand(rplEndOfNames, time.Second)
}

func TestJoinCreatesChannelAndGrantsOperator(t *testing.T) {
	s, addr := startTestServer(t)
	a := registeredClient(t, addr, "eve")
	defer a.stop()

	joinChannel(t, a, "#lobby")

	ch := s.lookupChannel("#lobby")
	require.NotNil(t, ch)
	require.True(t, ch.roleOf("eve").isOperator())
}

func TestJoinPartBroadcast(t *testing.T) {
	_, addr := startTestServer(t)
	a := registeredClient(t, addr, "frank")
	defer a.stop()
	b := registeredClient(t, addr, "grace")
	defer b.stop()

	joinChannel(t, a, "#lobby")

	require.NoError(t, b.send(irc.Message{Command: "JOIN", Params: []string{"#lobby"}}))
	m, ok := a.waitForCommand("JOIN", 2*time.Second)
	require.True(t, ok, "frank should see grace's join")
	require.Equal(t, "grace", m.SourceNick())

	require.NoError(t, b.send(irc.Message{Command: "PART", Params: []string{"#lobby", "bye"}}))
	m, ok = a.waitForCommand("PART", 2*time.Second)
	require.True(t, ok)
	require.Equal(t, "grace", m.SourceNick())
}

func TestPrivmsgToChannelFansOutButNotToSender(t *testing.T) {
	_, addr := startTestServer(t)
	a := registeredClient(t, addr, "heidi")
	defer a.stop()
	b := registeredClient(t, addr, "ivan")
	defer b.stop()

	joinChannel(t, a, "#room")
	require.NoError(t, b.send(irc.Message{Command: "JOIN", Params: []string{"#room"}}))
	_, _ = a.waitForCommand("JOIN", time.Second)
	_, _ = b.waitForCommand(rplEndOfNames, time.Second)

	require.NoError(t, a.send(irc.Message{Command: "PRIVMSG", Params: []string{"#room", "hello"}}))
	m, ok := b.waitForCommand("PRIVMSG", 2*time.Second)
	require.True(t, ok)
	require.Equal(t, "hello", m.Params[1])

	_, ok = a.waitForCommand("PRIVMSG", 300*time.Millisecond)
	require.False(t, ok, "sender should not receive its own PRIVMSG")
}

func TestTopicRequiresOpWhenRestricted(t *testing.T) {
	_, addr := startTestServer(t)
	a := registeredClient(t, addr, "judy")
	defer a.stop()
	b := registeredClient(t, addr, "mallory")
	defer b.stop()

	joinChannel(t, a, "#secure")
	require.NoError(t, a.send(irc.Message{Command: "MODE", Params: []string{"#secure", "+t"}}))
	_, _ = a.waitForCommand("MODE", time.Second)

	require.NoError(t, b.send(irc.Message{Command: "JOIN", Params: []string{"#secure"}}))
	_, _ = a.waitForCommand("JOIN", time.Second)
	_, _ = b.waitForCommand(rplEndOfNames, time.Second)

	require.NoError(t, b.send(irc.Message{Command: "TOPIC", Params: []string{"#secure", "new topic"}}))
	m, ok := b.waitForCommand(errChanOPrivNeed, 2*time.Second)
	require.True(t, ok, "non-op should be refused topic change")
	require.Equal(t, "#secure", m.Params[1])

	require.NoError(t, a.send(irc.Message{Command: "TOPIC", Params: []string{"#secure", "owner topic"}}))
	m, ok = b.waitForCommand("TOPIC", 2*time.Second)
	require.True(t, ok, "channel operator's topic change should broadcast")
	require.Equal(t, "owner topic", m.Params[1])
}

func TestKickRequiresHalfOpAndOutrank(t *testing.T) {
	_, addr := startTestServer(t)
	owner := registeredClient(t, addr, "ned")
	defer owner.stop()
	victim := registeredClient(t, addr, "olivia")
	defer victim.stop()

	joinChannel(t, owner, "#kickme")
	require.NoError(t, victim.send(irc.Message{Command: "JOIN", Params: []string{"#kickme"}}))
	_, _ = owner.waitForCommand("JOIN", time.Second)
	_, _ = victim.waitForCommand(rplEndOfNames, time.Second)

	require.NoError(t, victim.send(irc.Message{Command: "KICK", Params: []string{"#kickme", "ned"}}))
	_, ok := victim.waitForCommand(errChanOPrivNeed, 2*time.Second)
	require.True(t, ok, "non-privileged member cannot kick the channel operator")

	require.NoError(t, owner.send(irc.Message{Command: "KICK", Params: []string{"#kickme", "olivia", "because"}}))
	m, ok := victim.waitForCommand("KICK", 2*time.Second)
	require.True(t, ok)
	require.Equal(t, "olivia", m.Params[1])
}
