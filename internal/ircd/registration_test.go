package ircd

import (
	"testing"
	"time"

	"github.com/horgh/irc"
	"github.com/stretchr/testify/require"
)

func TestRegistrationBurst(t *testing.T) {
	_, addr := startTestServer(t)
	c := newTestClient(t, addr, "alice")
	defer c.stop()

	_, ok := c.waitForCommand(rplWelcome, 2*time.Second)
	require.True(t, ok, "expected 001 welcome")
	_, ok = c.waitForCommand(rplYourHost, time.Second)
	require.True(t, ok)
	_, ok = c.waitForCommand(rplCreated, time.Second)
	require.True(t, ok)
	_, ok = c.waitForCommand(rplMyInfo, time.Second)
	require.True(t, ok)
	_, ok = c.waitForCommand(errNoMotd, time.Second)
	require.True(t, ok, "expected 422 (the test server has no MOTD) to complete the burst")
}

func TestNickInUse(t *testing.T) {
	_, addr := startTestServer(t)
	a := registeredClient(t, addr, "bob")
	defer a.stop()

	b := newTestClient(t, addr, "bob")
	defer b.stop()

	m, ok := b.waitForCommand(errNickInUse, 2*time.Second)
	require.True(t, ok)
	require.Equal(t, "bob", m.Params[1])
}

func TestNickChangePropagates(t *testing.T) {
	_, addr := startTestServer(t)
	a := registeredClient(t, addr, "carol")
	defer a.stop()
	b := registeredClient(t, addr, "dave")
	defer b.stop()

	require.NoError(t, a.send(irc.Message{Command: "JOIN", Params: []string{"#chat"}}))
	require.NoError(t, b.send(irc.Message{Command: "JOIN", Params: []string{"#chat"}}))
	_, _ = a.waitForCommand("JOIN", time.Second)
	_, _ = b.waitForCommand("JOIN", time.Second)

	require.NoError(t, a.send(irc.Message{Command: "NICK", Params: []string{"carol2"}}))
	m, ok := b.waitForCommand("NICK", 2*time.Second)
	require.True(t, ok)
	require.Equal(t, "carol2", m.Params[0])
}
