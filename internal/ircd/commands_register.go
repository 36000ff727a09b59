package ircd

import (
	"strings"

	"github.com/horgh/irc"
)

// capCommand answers CAP LS and CAP LIST with an empty capability set;
// REQ, END and any other subcommand get no reply.
// This daemon doesn't implement IRCv3 capability negotiation, but many
// clients send CAP LS unconditionally on connect and expect a reply
// before continuing registration.
func (s *Server) capCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) == 0 {
		return
	}
	switch strings.ToUpper(msg.Params[0]) {
	case "LS":
		sess.relay(s.name(), "CAP", "*", "LS", "")
	case "LIST":
		sess.relay(s.name(), "CAP", "*", "LIST", "")
	case "END":
		// nothing to do
	}
}

func (s *Server) passCommand(sess *Session, msg irc.Message) {
	sess.mu.Lock()
	nickAlreadySet := sess.st == stateRegistered || sess.nick != ""
	sess.mu.Unlock()
	if nickAlreadySet {
		sess.sendFromServer(errAlreadyRegist, "Unauthorized command (already registered)")
		return
	}
	if len(msg.Params) < 1 {
		sess.sendFromServer(errNeedMoreParam, "PASS", "Not enough parameters")
		return
	}
	sess.mu.Lock()
	sess.pass = msg.Params[0]
	sess.mu.Unlock()
}

// nickCommand implements NICK, including the in-use/invalid/missing
// error replies and the post-registration rename path (which updates
// every channel roster and records history for the abandoned nick),
// grounded on the teacher's nickCommand.
func (s *Server) nickCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) < 1 || msg.Params[0] == "" {
		sess.sendFromServer(errNoNicknameGvn, "No nickname given")
		return
	}
	newNick := msg.Params[0]
	if !isValidNick(newNick) {
		sess.sendFromServer(errErroneousNick, newNick, "Erroneous nickname")
		return
	}

	sess.mu.Lock()
	st := sess.st
	oldNick := sess.nick
	user := sess.user
	host := sess.displayHost
	realName := sess.realName
	sess.mu.Unlock()

	if st == stateRegistered {
		if !s.renameNick(sess, oldNick, newNick, user, host, realName) {
			sess.sendFromServer(errNickInUse, newNick, "Nickname is already in use")
			return
		}
		sess.mu.Lock()
		sess.nick = newNick
		channels := make([]string, 0, len(sess.channels))
		for c := range sess.channels {
			channels = append(channels, c)
		}
		sess.mu.Unlock()

		prefix := oldNick + "!" + user + "@" + host
		for _, name := range channels {
			if ch := s.lookupChannel(name); ch != nil {
				ch.renameMember(canonicalizeNick(oldNick), canonicalizeNick(newNick))
				s.broadcastToChannel(ch, prefix, "NICK", canonicalizeNick(newNick), newNick)
			}
		}
		sess.relay(prefix, "NICK", newNick)
		return
	}

	if !s.registerNick(sess, newNick) {
		sess.sendFromServer(errNickInUse, newNick, "Nickname is already in use")
		return
	}
	sess.mu.Lock()
	sess.nick = newNick
	ready := sess.user != ""
	sess.mu.Unlock()

	if ready {
		s.completeRegistration(sess)
	}
}

// userCommand implements USER: it records username/realname and, once a
// nick is already set, completes registration -- the same ordering the
// teacher's client.go completeRegistration logic depends on (USER may
// arrive before or after NICK).
func (s *Server) userCommand(sess *Session, msg irc.Message) {
	sess.mu.Lock()
	if sess.st == stateRegistered {
		sess.mu.Unlock()
		sess.sendFromServer(errAlreadyRegist, "Unauthorized command (already registered)")
		return
	}
	sess.mu.Unlock()

	if len(msg.Params) < 4 {
		sess.sendFromServer(errNeedMoreParam, "USER", "Not enough parameters")
		return
	}
	if !isValidUser(msg.Params[0]) {
		sess.sendFromServer(errNeedMoreParam, "USER", "Invalid username")
		return
	}

	sess.mu.Lock()
	sess.user = msg.Params[0]
	sess.realName = msg.Params[3]
	ready := sess.nick != ""
	sess.mu.Unlock()

	if ready {
		s.completeRegistration(sess)
	}
}

// completeRegistration flips the session to Registered and sends the
// welcome burst, matching the teacher's client.go completeRegistration.
func (s *Server) completeRegistration(sess *Session) {
	sess.mu.Lock()
	sess.st = stateRegistered
	sess.mu.Unlock()
	s.sendRegistrationBurst(sess)
}

// operCommand implements OPER, checking the configured operator
// credential table loaded from [[oper]] entries.
func (s *Server) operCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) < 2 {
		sess.sendFromServer(errNeedMoreParam, "OPER", "Not enough parameters")
		return
	}
	if !s.checkOperCredential(msg.Params[0], msg.Params[1]) {
		sess.sendFromServer(errPasswdMismatc, "Password incorrect")
		return
	}
	sess.mu.Lock()
	sess.operator = true
	nick := sess.nick
	sess.mu.Unlock()
	s.markOper(nick)
	sess.sendFromServer(rplYoureOper, "You are now an IRC operator")
}

// quitCommand implements QUIT: it records the quit reason (if any) and
// lets teardown (invoked when the read loop exits right after this
// handler returns) handle the actual broadcast and deregistration.
func (s *Server) quitCommand(sess *Session, msg irc.Message) {
	reason := "Client quit"
	if len(msg.Params) > 0 && msg.Params[0] != "" {
		reason = msg.Params[0]
	}
	sess.mu.Lock()
	sess.quitReason = reason
	sess.st = stateTerminated
	sess.mu.Unlock()
}

func (s *Server) pingCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) < 1 {
		sess.sendFromServer(errNoOrigin, "No origin specified")
		return
	}
	sess.sendFromServer("PONG", s.name(), msg.Params[0])
}

func (s *Server) pongCommand(sess *Session, msg irc.Message) {
	sess.mu.Lock()
	sess.gotPong = true
	sess.mu.Unlock()
}
