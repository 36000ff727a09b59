package ircd

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ayameircd/ayame/internal/mask"
)

// role is a bitmask of the per-participant prefixes a channel member can
// hold. Tiers are cumulative: owner implies admin implies operator implies
// half-operator implies voice (spec §4.6).
type role uint8

const (
	roleVoice role = 1 << iota
	roleHalfOp
	roleOp
	roleAdmin
	roleOwner
)

// prefixFor returns the single display character for the highest role
// bit set, or "" if none.
func (r role) prefixFor() string {
	switch {
	case r&roleOwner != 0:
		return "~"
	case r&roleAdmin != 0:
		return "&"
	case r&roleOp != 0:
		return "@"
	case r&roleHalfOp != 0:
		return "%"
	case r&roleVoice != 0:
		return "+"
	}
	return ""
}

func (r role) isOwner() bool    { return r&roleOwner != 0 }
func (r role) isAdmin() bool    { return r.isOwner() || r&roleAdmin != 0 }
func (r role) isOperator() bool { return r.isAdmin() || r&roleOp != 0 }
func (r role) isHalfOp() bool   { return r.isOperator() || r&roleHalfOp != 0 }
func (r role) isVoiced() bool   { return r.isHalfOp() || r&roleVoice != 0 }

// rank reduces a role bitmask to a single ordinal for outranking
// comparisons (KICK's "equal rank may not kick" rule), since a
// participant can hold more than one role bit at once.
func rank(r role) int {
	switch {
	case r.isOwner():
		return 5
	case r.isAdmin():
		return 4
	case r.isOperator():
		return 3
	case r.isHalfOp():
		return 2
	case r.isVoiced():
		return 1
	}
	return 0
}

// atLeast reports whether r satisfies the named tier.
func (r role) atLeast(tier role) bool {
	switch tier {
	case roleOwner:
		return r.isOwner()
	case roleAdmin:
		return r.isAdmin()
	case roleOp:
		return r.isOperator()
	case roleHalfOp:
		return r.isHalfOp()
	case roleVoice:
		return r.isVoiced()
	}
	return false
}

// topic is a channel's topic record (spec §3).
type topic struct {
	text  string
	setBy string
	setAt int64
}

// channelModes holds the boolean/valued channel modes from spec §3.
type channelModes struct {
	moderated      bool // m
	inviteOnly     bool // i
	key            string // k
	limit          int  // l (0 = unlimited)
	blockExternal  bool // n
	secret         bool // s
	topicRestricted bool // t
}

// Channel is a named channel and all state attached to it.
type Channel struct {
	// Name is never mutated after creation, so it's safe to read without a
	// lock.
	Name string

	topicMu sync.Mutex
	topic   topic

	modesMu sync.Mutex
	modes   channelModes

	// participantsMu guards participants, invited, banned, and excepted
	// together: they are small and changed in lockstep often enough (e.g.
	// a JOIN checks invite/ban state then mutates participants) that
	// splitting them would just multiply lock acquisitions without
	// reducing contention in practice.
	participantsMu sync.RWMutex
	participants   map[string]role // nick -> role bits
	invited        map[string]struct{}
	banned         map[string]struct{}
	excepted       map[string]struct{}
}

func newChannel(name string) *Channel {
	return &Channel{
		Name:         name,
		participants: map[string]role{},
		invited:      map[string]struct{}{},
		banned:       map[string]struct{}{},
		excepted:     map[string]struct{}{},
	}
}

func (c *Channel) memberCount() int {
	c.participantsMu.RLock()
	defer c.participantsMu.RUnlock()
	return len(c.participants)
}

func (c *Channel) hasMember(nick string) bool {
	c.participantsMu.RLock()
	defer c.participantsMu.RUnlock()
	_, ok := c.participants[nick]
	return ok
}

func (c *Channel) roleOf(nick string) role {
	c.participantsMu.RLock()
	defer c.participantsMu.RUnlock()
	return c.participants[nick]
}

// snapshotMembers takes a copy of the participant nicks under lock, per
// the broadcast discipline in spec §5/§9: never hold this lock while
// resolving nicks in the clients registry or writing to sockets.
func (c *Channel) snapshotMembers() []string {
	c.participantsMu.RLock()
	defer c.participantsMu.RUnlock()
	out := make([]string, 0, len(c.participants))
	for nick := range c.participants {
		out = append(out, nick)
	}
	return out
}

// addMember inserts nick with the given role, returning the member count
// after insertion.
func (c *Channel) addMember(nick string, r role) int {
	c.participantsMu.Lock()
	defer c.participantsMu.Unlock()
	c.participants[nick] = r
	return len(c.participants)
}

// removeMember deletes nick, returning the member count after removal.
func (c *Channel) removeMember(nick string) int {
	c.participantsMu.Lock()
	defer c.participantsMu.Unlock()
	delete(c.participants, nick)
	return len(c.participants)
}

// renameMember moves a participant entry from oldNick to newNick,
// preserving its role bits, used when a member's session changes nick.
func (c *Channel) renameMember(oldNick, newNick string) {
	c.participantsMu.Lock()
	defer c.participantsMu.Unlock()
	if r, ok := c.participants[oldNick]; ok {
		delete(c.participants, oldNick)
		c.participants[newNick] = r
	}
}

func (c *Channel) setRole(nick string, r role) {
	c.participantsMu.Lock()
	defer c.participantsMu.Unlock()
	c.participants[nick] = r
}

func (c *Channel) namesList() string {
	c.participantsMu.RLock()
	defer c.participantsMu.RUnlock()
	names := make([]string, 0, len(c.participants))
	for nick, r := range c.participants {
		names = append(names, r.prefixFor()+nick)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

func (c *Channel) isInvited(nick string) bool {
	c.participantsMu.RLock()
	defer c.participantsMu.RUnlock()
	_, ok := c.invited[nick]
	return ok
}

func (c *Channel) invite(nick string) {
	c.participantsMu.Lock()
	defer c.participantsMu.Unlock()
	c.invited[nick] = struct{}{}
}

func (c *Channel) isSecret() bool {
	c.modesMu.Lock()
	defer c.modesMu.Unlock()
	return c.modes.secret
}

// snapshotModes returns a copy of the current channel modes.
func (c *Channel) snapshotModes() channelModes {
	c.modesMu.Lock()
	defer c.modesMu.Unlock()
	return c.modes
}

// boolMode reports the current value of one of the simple on/off mode
// letters (m, i, n, s, t), used to suppress a MODE broadcast when a
// requested change is a no-op.
func (c *Channel) boolMode(letter byte) bool {
	c.modesMu.Lock()
	defer c.modesMu.Unlock()
	switch letter {
	case 'm':
		return c.modes.moderated
	case 'i':
		return c.modes.inviteOnly
	case 'n':
		return c.modes.blockExternal
	case 's':
		return c.modes.secret
	case 't':
		return c.modes.topicRestricted
	}
	return false
}

func (c *Channel) checkKey(key string) bool {
	c.modesMu.Lock()
	defer c.modesMu.Unlock()
	return c.modes.key == "" || c.modes.key == key
}

func (c *Channel) atCapacity() bool {
	c.modesMu.Lock()
	defer c.modesMu.Unlock()
	if c.modes.limit <= 0 {
		return false
	}
	return c.memberCount() >= c.modes.limit
}

// modesString renders the boolean/valued modes as the string used in
// RPL_CHANNELMODEIS, e.g. "+ntk key" or "+nl 10".
func (c *Channel) modesString() (letters string, args []string) {
	c.modesMu.Lock()
	defer c.modesMu.Unlock()
	var b strings.Builder
	b.WriteByte('+')
	if c.modes.inviteOnly {
		b.WriteByte('i')
	}
	if c.modes.moderated {
		b.WriteByte('m')
	}
	if c.modes.blockExternal {
		b.WriteByte('n')
	}
	if c.modes.secret {
		b.WriteByte('s')
	}
	if c.modes.topicRestricted {
		b.WriteByte('t')
	}
	if c.modes.key != "" {
		b.WriteByte('k')
		args = append(args, c.modes.key)
	}
	if c.modes.limit > 0 {
		b.WriteByte('l')
		args = append(args, fmt.Sprintf("%d", c.modes.limit))
	}
	return b.String(), args
}

// applyMode flips a single boolean/valued mode flag. ok is false when the
// letter isn't a recognized channel mode.
func (c *Channel) applyMode(letter byte, adding bool, arg string) (ok bool) {
	c.modesMu.Lock()
	defer c.modesMu.Unlock()
	switch letter {
	case 'i':
		c.modes.inviteOnly = adding
	case 'm':
		c.modes.moderated = adding
	case 'n':
		c.modes.blockExternal = adding
	case 's':
		c.modes.secret = adding
	case 't':
		c.modes.topicRestricted = adding
	case 'k':
		if adding {
			c.modes.key = arg
		} else {
			c.modes.key = ""
		}
	case 'l':
		if adding {
			n := 0
			for _, ch := range arg {
				if ch < '0' || ch > '9' {
					n = 0
					break
				}
				n = n*10 + int(ch-'0')
			}
			c.modes.limit = n
		} else {
			c.modes.limit = 0
		}
	default:
		return false
	}
	return true
}

func (c *Channel) getTopic() topic {
	c.topicMu.Lock()
	defer c.topicMu.Unlock()
	return c.topic
}

func (c *Channel) setTopic(text, setBy string) {
	c.topicMu.Lock()
	defer c.topicMu.Unlock()
	c.topic = topic{text: text, setBy: setBy, setAt: time.Now().Unix()}
}

// banMatches reports whether value matches any ban mask and no exception
// mask, per spec §4.3.
func (c *Channel) banMatches(value string) bool {
	c.participantsMu.RLock()
	defer c.participantsMu.RUnlock()
	banned := false
	for m := range c.banned {
		if mask.Match(m, value) {
			banned = true
			break
		}
	}
	if !banned {
		return false
	}
	for m := range c.excepted {
		if mask.Match(m, value) {
			return false
		}
	}
	return true
}

func (c *Channel) hasException(value string) bool {
	c.participantsMu.RLock()
	defer c.participantsMu.RUnlock()
	for m := range c.excepted {
		if mask.Match(m, value) {
			return true
		}
	}
	return false
}

func (c *Channel) addBan(m string) {
	c.participantsMu.Lock()
	defer c.participantsMu.Unlock()
	c.banned[m] = struct{}{}
}

func (c *Channel) removeBan(m string) bool {
	c.participantsMu.Lock()
	defer c.participantsMu.Unlock()
	if _, ok := c.banned[m]; !ok {
		return false
	}
	delete(c.banned, m)
	return true
}

func (c *Channel) addException(m string) {
	c.participantsMu.Lock()
	defer c.participantsMu.Unlock()
	c.excepted[m] = struct{}{}
}

func (c *Channel) removeException(m string) bool {
	c.participantsMu.Lock()
	defer c.participantsMu.Unlock()
	if _, ok := c.excepted[m]; !ok {
		return false
	}
	delete(c.excepted, m)
	return true
}

func (c *Channel) banList() []string {
	c.participantsMu.RLock()
	defer c.participantsMu.RUnlock()
	out := make([]string, 0, len(c.banned))
	for m := range c.banned {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func (c *Channel) exceptionList() []string {
	c.participantsMu.RLock()
	defer c.participantsMu.RUnlock()
	out := make([]string, 0, len(c.excepted))
	for m := range c.excepted {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
