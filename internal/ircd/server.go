// Package ircd implements the daemon: connection acceptance, the
// registration state machine, channel and user state, and the command
// set described by the project's specification.
package ircd

import (
	"fmt"
	"log"
	"net"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayameircd/ayame/internal/motd"
	"github.com/ayameircd/ayame/internal/tomlconfig"
	"github.com/ayameircd/ayame/internal/wire"
)

const (
	ioWait        = 90 * time.Second
	maxNickLength = 24
)

// nickHistoryEntry records a past (nick, user@host) pairing for WHOWAS,
// grounded on the same information the teacher's User struct keeps per
// connection, just retained past disconnection.
type nickHistoryEntry struct {
	user     string
	host     string
	realName string
	when     time.Time
}

// operCred is a configured server-operator credential.
type operCred struct {
	name     string
	password string
}

// Server owns every registry the daemon needs: connected sessions
// indexed by nick, channels indexed by name, operator credentials, and
// nick history. Per spec §5 the lock order across these registries and
// a Session's own fields is:
//
//	clientsMu -> channelsMu -> Channel.participantsMu -> Session.mu
//
// Code must never acquire a lock earlier in this list while already
// holding one later in it.
type Server struct {
	serverName string
	info       string
	createdAt  time.Time
	motdMu     sync.Mutex
	motdLines  []string
	motdPath   string
	listenHost string
	listenPort int

	nextID uint64

	clientsMu sync.RWMutex
	clients   map[string]*Session // canonical nick -> session
	pending   map[*Session]struct{}

	channelsMu sync.RWMutex
	channels   map[string]*Channel // canonical name -> channel

	opersMu       sync.Mutex
	opers         map[string]operCred // canonical name -> credential
	activeOpers   map[string]struct{} // canonical nick -> struct{}, currently OPER'd

	historyMu sync.Mutex
	history   map[string][]nickHistoryEntry // canonical nick -> past sightings

	services *serviceShell

	listener net.Listener
	wg       sync.WaitGroup
	closing  int32
}

// NewServer builds a Server from a loaded configuration. It does not
// start listening; call Run for that.
func NewServer(cfg *tomlconfig.Config) (*Server, error) {
	lines, err := motd.Load(cfg.Server.MOTDPath)
	if err != nil {
		return nil, err
	}

	opers := map[string]operCred{}
	for _, o := range cfg.Oper {
		opers[canonicalizeNick(o.Name)] = operCred{name: o.Name, password: o.Password}
	}

	s := &Server{
		serverName:  cfg.Server.Name,
		info:        fmt.Sprintf("%s IRC server", cfg.Server.Name),
		createdAt:   time.Now(),
		motdLines:   lines,
		motdPath:    cfg.Server.MOTDPath,
		listenHost:  cfg.Server.Host,
		listenPort:  cfg.Server.Port,
		clients:     map[string]*Session{},
		pending:     map[*Session]struct{}{},
		channels:    map[string]*Channel{},
		opers:       opers,
		activeOpers: map[string]struct{}{},
		history:     map[string][]nickHistoryEntry{},
	}
	s.services = newServiceShell()
	return s, nil
}

// Run listens on the configured host:port and serves connections until
// the listener is closed or Shutdown is called. It returns only on
// listener failure or clean shutdown.
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.listenHost, fmt.Sprintf("%d", s.listenPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", addr, err)
	}
	s.listener = ln
	log.Printf("listening on %s", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if atomic.LoadInt32(&s.closing) == 1 {
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept error: %w", err)
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// Shutdown stops accepting new connections and returns at once; Run then
// waits for in-flight sessions to finish teardown before it returns.
func (s *Server) Shutdown() {
	atomic.StoreInt32(&s.closing, 1)
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	id := atomic.AddUint64(&s.nextID, 1)
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}

	sess := newSession(s, id, wire.New(conn, ioWait), host)

	s.clientsMu.Lock()
	s.pending[sess] = struct{}{}
	s.clientsMu.Unlock()

	sess.st = stateAwaitingRegistration

	go s.pingLoop(sess)

	s.readLoop(sess)
}

// name returns the server's configured name, used as the message prefix
// on every server-originated message.
func (s *Server) name() string { return s.serverName }

// --- client registry -------------------------------------------------

// lookupNick resolves a canonical nick to its session, or nil if no
// session is currently registered with that nick.
func (s *Server) lookupNick(nick string) *Session {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return s.clients[canonicalizeNick(nick)]
}

// registerNick claims nick for sess, failing if it's already taken by a
// different session. Moving a session from unregistered (pending) to
// registered also happens here, under the same lock, to prevent a
// concurrent nick collision from racing registration.
func (s *Server) registerNick(sess *Session, nick string) bool {
	key := canonicalizeNick(nick)
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if existing, ok := s.clients[key]; ok && existing != sess {
		return false
	}
	s.clients[key] = sess
	delete(s.pending, sess)
	return true
}

// renameNick moves a session's registry entry from oldNick to newNick,
// recording oldNick in history. Fails if newNick is already taken by a
// different session.
func (s *Server) renameNick(sess *Session, oldNick, newNick string, user, host, realName string) bool {
	oldKey := canonicalizeNick(oldNick)
	newKey := canonicalizeNick(newNick)

	s.clientsMu.Lock()
	if existing, ok := s.clients[newKey]; ok && existing != sess {
		s.clientsMu.Unlock()
		return false
	}
	delete(s.clients, oldKey)
	s.clients[newKey] = sess
	s.clientsMu.Unlock()

	if oldNick != "" {
		s.recordHistory(oldNick, user, host, realName)
	}
	return true
}

// unregister removes sess from every registry it may appear in: the
// pending set, the nick registry, the active-oper set, and every
// channel it was a member of. It returns the channels the session was a
// member of (for PART/QUIT broadcast) and its final nick.
func (s *Server) unregister(sess *Session) (nick string, channels []*Channel) {
	sess.mu.Lock()
	nick = sess.nick
	user := sess.user
	host := sess.displayHost
	realName := sess.realName
	chanNames := make([]string, 0, len(sess.channels))
	for name := range sess.channels {
		chanNames = append(chanNames, name)
	}
	sess.mu.Unlock()

	s.clientsMu.Lock()
	delete(s.pending, sess)
	if nick != "" {
		if existing, ok := s.clients[canonicalizeNick(nick)]; ok && existing == sess {
			delete(s.clients, canonicalizeNick(nick))
		}
	}
	s.clientsMu.Unlock()

	s.opersMu.Lock()
	delete(s.activeOpers, canonicalizeNick(nick))
	s.opersMu.Unlock()

	s.channelsMu.RLock()
	for _, name := range chanNames {
		if ch, ok := s.channels[name]; ok {
			channels = append(channels, ch)
		}
	}
	s.channelsMu.RUnlock()

	for _, ch := range channels {
		ch.removeMember(canonicalizeNick(nick))
	}

	if nick != "" {
		s.recordHistory(nick, user, host, realName)
	}

	return nick, channels
}

func (s *Server) connectedCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) unknownCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.pending)
}

func (s *Server) allNicks() []string {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	out := make([]string, 0, len(s.clients))
	for nick := range s.clients {
		out = append(out, nick)
	}
	return out
}

func (s *Server) allSessions() []*Session {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	out := make([]*Session, 0, len(s.clients))
	for _, sess := range s.clients {
		out = append(out, sess)
	}
	return out
}

// --- channel registry --------------------------------------------------

func (s *Server) lookupChannel(name string) *Channel {
	s.channelsMu.RLock()
	defer s.channelsMu.RUnlock()
	return s.channels[canonicalizeChannel(name)]
}

// getOrCreateChannel returns the channel by name, creating it if it
// doesn't exist yet, along with whether it was just created (the
// caller uses this to decide whether the joiner becomes a +o operator).
func (s *Server) getOrCreateChannel(name string) (ch *Channel, created bool) {
	key := canonicalizeChannel(name)

	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()
	if existing, ok := s.channels[key]; ok {
		return existing, false
	}
	ch = newChannel(name)
	s.channels[key] = ch
	return ch, true
}

// dropChannelIfEmpty removes a channel from the registry once its last
// member leaves, matching the teacher's practice of not keeping empty
// channels around indefinitely.
func (s *Server) dropChannelIfEmpty(ch *Channel) {
	if ch.memberCount() > 0 {
		return
	}
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()
	if existing, ok := s.channels[canonicalizeChannel(ch.Name)]; ok && existing == ch && ch.memberCount() == 0 {
		delete(s.channels, canonicalizeChannel(ch.Name))
	}
}

func (s *Server) visibleChannels() []*Channel {
	s.channelsMu.RLock()
	defer s.channelsMu.RUnlock()
	out := make([]*Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Server) channelCount() int {
	s.channelsMu.RLock()
	defer s.channelsMu.RUnlock()
	return len(s.channels)
}

// --- operator registry --------------------------------------------------

func (s *Server) checkOperCredential(name, password string) bool {
	s.opersMu.Lock()
	defer s.opersMu.Unlock()
	cred, ok := s.opers[canonicalizeNick(name)]
	return ok && cred.password == password
}

func (s *Server) markOper(nick string) {
	s.opersMu.Lock()
	defer s.opersMu.Unlock()
	s.activeOpers[canonicalizeNick(nick)] = struct{}{}
}

func (s *Server) operatorCount() int {
	s.opersMu.Lock()
	defer s.opersMu.Unlock()
	return len(s.activeOpers)
}

// --- nick history --------------------------------------------------

const maxHistoryPerNick = 10

func (s *Server) recordHistory(nick, user, host, realName string) {
	key := canonicalizeNick(nick)
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	entries := append(s.history[key], nickHistoryEntry{
		user:     user,
		host:     host,
		realName: realName,
		when:     time.Now(),
	})
	if len(entries) > maxHistoryPerNick {
		entries = entries[len(entries)-maxHistoryPerNick:]
	}
	s.history[key] = entries
}

func (s *Server) lookupHistory(nick string) []nickHistoryEntry {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	entries := s.history[canonicalizeNick(nick)]
	out := make([]nickHistoryEntry, len(entries))
	copy(out, entries)
	return out
}

// --- broadcast helpers --------------------------------------------------

// broadcastToChannel sends a message from prefix to every member of ch,
// optionally skipping one nick (the sender, for messages the sender
// shouldn't echo to themself a second time). Per spec §5/§9, the
// membership list is snapshotted before any session lookups or writes,
// so the channel's lock is never held while we block on a socket write.
func (s *Server) broadcastToChannel(ch *Channel, prefix, command string, skip string, params ...string) {
	for _, nick := range ch.snapshotMembers() {
		if nick == skip {
			continue
		}
		if sess := s.lookupNick(nick); sess != nil {
			sess.relay(prefix, command, params...)
		}
	}
}

func canonicalizeNick(nick string) string {
	return strings.ToLower(nick)
}

func canonicalizeChannel(name string) string {
	return strings.ToLower(name)
}
