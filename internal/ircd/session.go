package ircd

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/horgh/irc"

	"github.com/ayameircd/ayame/internal/cloak"
	"github.com/ayameircd/ayame/internal/wire"
)

// state is a Session's position in the registration state machine
// described in spec §4.1.
type state int

const (
	stateAccepted state = iota
	stateAwaitingRegistration
	stateRegistered
	stateTerminated
)

const pingInterval = 30 * time.Second

// Session is a single client connection. All mutable fields are guarded by
// mu; the registries that index sessions by nick/channel are guarded
// separately on the Server (see server.go), never by this mutex -- that
// keeps the lock order in spec §5 (registries before session fields)
// enforceable without this type knowing about the registries at all.
type Session struct {
	server *Server
	conn   *wire.Conn
	id     uint64

	writeMu sync.Mutex // serializes writes so one session's output stays ordered

	mu          sync.Mutex
	st          state
	nick        string
	user        string
	realName    string
	pass        string
	rawHost     string
	displayHost string
	cloaked     bool
	operator    bool
	identified  bool
	away        string
	quitReason  string
	channels    map[string]struct{} // lowercased channel name set
	connectedAt time.Time
	idleAt      time.Time
	gotPong     bool

	pingerStop chan struct{}
	once       sync.Once
}

func newSession(server *Server, id uint64, conn *wire.Conn, rawHost string) *Session {
	now := time.Now()
	return &Session{
		server:      server,
		conn:        conn,
		id:          id,
		st:          stateAccepted,
		rawHost:     rawHost,
		displayHost: rawHost,
		channels:    map[string]struct{}{},
		connectedAt: now,
		idleAt:      now,
		gotPong:     true,
		pingerStop:  make(chan struct{}),
	}
}

func (s *Session) String() string {
	s.mu.Lock()
	nick := s.nick
	s.mu.Unlock()
	if nick == "" {
		nick = "*"
	}
	return fmt.Sprintf("%d/%s", s.id, nick)
}

// currentNick returns the session's current nick, or "*" if unset, for use as the
// numeric-reply target.
func (s *Session) currentNick() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nick == "" {
		return "*"
	}
	return s.nick
}

// prefix builds the nick!user@host prefix used as the source of relayed
// messages.
func (s *Session) prefix() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%s!%s@%s", s.nick, s.user, s.displayHost)
}

func (s *Session) isOperator() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.operator
}

func (s *Session) isIdentified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identified
}

func (s *Session) isAway() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.away != ""
}

func (s *Session) awayText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.away
}

func (s *Session) touchIdle() {
	s.mu.Lock()
	s.idleAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSeconds() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(time.Since(s.idleAt).Seconds())
}

// write sends a raw message to the client. Writes are serialized per
// session via writeMu so a single session's emissions keep their order;
// failures are returned to the caller. sendFromServer and relay only log
// a failed write: the session is not torn down by it, and ends only when
// its read loop or ping loop ends it.
func (s *Session) write(m irc.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(m)
}

// sendFromServer emits a message whose source is this server. Numeric
// replies get the client's current nick (or "*") inserted as the first
// parameter, per convention.
func (s *Session) sendFromServer(command string, params ...string) {
	if isNumeric(command) {
		newParams := make([]string, 0, len(params)+1)
		newParams = append(newParams, s.currentNick())
		newParams = append(newParams, params...)
		params = newParams
	}

	if err := s.write(irc.Message{
		Prefix:  s.server.name(),
		Command: command,
		Params:  params,
	}); err != nil {
		log.Printf("session %s: write error: %s", s, err)
	}
}

// relay sends a message whose source is another session (or this one) --
// used for JOIN/PART/PRIVMSG/MODE/etc. fan-out.
func (s *Session) relay(prefix, command string, params ...string) {
	if err := s.write(irc.Message{
		Prefix:  prefix,
		Command: command,
		Params:  params,
	}); err != nil {
		log.Printf("session %s: write error: %s", s, err)
	}
}

func isNumeric(command string) bool {
	if len(command) == 0 {
		return false
	}
	for _, c := range command {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// onChannel reports whether the session currently believes it's a
// member of the named channel. This only consults the session's own
// bookkeeping; the authoritative membership lives on the Channel.
func (s *Session) onChannel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.channels[canonicalizeChannel(name)]
	return ok
}

func (s *Session) joinChannel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[canonicalizeChannel(name)] = struct{}{}
}

func (s *Session) leaveChannel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, canonicalizeChannel(name))
}

// channelRole resolves the session's current role on ch by its nick, a
// convenience since command handlers often need both at once.
func (s *Session) channelRole(ch *Channel) role {
	return ch.roleOf(canonicalizeNick(s.currentNick()))
}

// identity returns the session's username, display host, and real name
// together, for WHO/WHOIS/WHOWAS replies that need all three.
func (s *Session) identity() (user, host, realName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.displayHost, s.realName
}

func (s *Session) hostPair() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user + "@" + s.displayHost
}

func (s *Session) channelList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.channels))
	for name := range s.channels {
		out = append(out, name)
	}
	return out
}

// setCloak toggles display-host cloaking for user mode 'x'.
func (s *Session) setCloak(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cloaked = enabled
	if enabled {
		s.displayHost = cloak.Host(s.rawHost)
	} else {
		s.displayHost = s.rawHost
	}
}

// setVHost overrides the display host directly, used by HostServ's ON
// command to activate a registered vanity host independent of the
// cloak toggle.
func (s *Session) setVHost(host string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayHost = host
}

func (s *Session) setIdentified(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identified = v
}
