package ircd

import (
	"strings"

	"github.com/horgh/irc"
)

// modeCommand dispatches to the channel or user mode path per spec
// §4.2: a target starting with '#' is a channel; anything else is a
// user (only the caller's own nick is meaningful, per §4.7).
func (s *Server) modeCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) == 0 {
		sess.sendFromServer(errNeedMoreParam, "MODE", "Not enough parameters")
		return
	}
	if strings.HasPrefix(msg.Params[0], "#") {
		s.channelModeCommand(sess, msg)
		return
	}
	s.userModeCommand(sess, msg)
}

func (s *Server) userModeCommand(sess *Session, msg irc.Message) {
	target := msg.Params[0]
	if canonicalizeNick(target) != canonicalizeNick(sess.currentNick()) {
		sess.sendFromServer(errUsersDontMtch, "Cannot change mode for other users")
		return
	}

	if len(msg.Params) < 2 {
		sess.sendFromServer("221", userModeString(sess))
		return
	}

	adding := true
	var changed strings.Builder
	for _, c := range msg.Params[1] {
		switch c {
		case '+':
			adding = true
			continue
		case '-':
			adding = false
			continue
		case 'o', 'O':
			if adding {
				// There is no in-band grant path; only OPER can set this.
				continue
			}
			sess.mu.Lock()
			sess.operator = false
			sess.mu.Unlock()
		case 'a':
			// Read-only: reflects away state, can't be toggled directly.
			continue
		case 'x':
			sess.setCloak(adding)
		default:
			sess.sendFromServer(errUModeUnknownF, "Unknown MODE flag")
			continue
		}
		if adding {
			changed.WriteByte('+')
		} else {
			changed.WriteByte('-')
		}
		changed.WriteRune(c)
	}

	if changed.Len() > 0 {
		sess.relay(sess.prefix(), "MODE", sess.currentNick(), changed.String())
	}
}

func userModeString(sess *Session) string {
	var b strings.Builder
	b.WriteByte('+')
	if sess.isOperator() {
		b.WriteByte('o')
	}
	if sess.isAway() {
		b.WriteByte('a')
	}
	sess.mu.Lock()
	cloaked := sess.cloaked
	sess.mu.Unlock()
	if cloaked {
		b.WriteByte('x')
	}
	return b.String()
}

// channelModeCommand implements MODE on a #channel, including the
// query form (no extra params) and the set/clear form, per the table
// in §4.3.
func (s *Server) channelModeCommand(sess *Session, msg irc.Message) {
	ch := s.lookupChannel(msg.Params[0])
	if ch == nil {
		sess.sendFromServer(errNoSuchChannel, msg.Params[0], "No such channel")
		return
	}

	if len(msg.Params) == 1 {
		isMember := sess.onChannel(ch.Name)
		if ch.isSecret() && !isMember && !sess.isOperator() {
			sess.sendFromServer(errNoSuchChannel, ch.Name, "No such channel")
			return
		}
		letters, args := ch.modesString()
		params := append([]string{ch.Name, letters}, args...)
		sess.sendFromServer(rplChannelModeIs, params...)
		return
	}

	isMember := sess.onChannel(ch.Name)
	if !isMember && !sess.isOperator() {
		sess.sendFromServer(errChanOPrivNeed, ch.Name, "You're not a channel operator")
		return
	}

	callerRole := sess.channelRole(ch)
	serverOp := sess.isOperator()

	spec := msg.Params[1]
	extra := msg.Params[2:]
	extraIdx := 0
	nextArg := func() (string, bool) {
		if extraIdx >= len(extra) {
			return "", false
		}
		v := extra[extraIdx]
		extraIdx++
		return v, true
	}

	adding := true
	var changes strings.Builder
	var changeArgs []string

	for _, c := range spec {
		switch c {
		case '+':
			adding = true
			continue
		case '-':
			adding = false
			continue
		}

		switch c {
		case 'm', 'i', 'n', 's', 't':
			if !serverOp && !callerRole.isOperator() {
				sess.sendFromServer(errChanOPrivNeed, ch.Name, "You're not a channel operator")
				continue
			}
			if ch.boolMode(byte(c)) == adding {
				continue
			}
			ch.applyMode(byte(c), adding, "")
			changes.WriteByte(boolByte(adding))
			changes.WriteRune(c)

		case 'k':
			if !serverOp && !callerRole.isOperator() {
				sess.sendFromServer(errChanOPrivNeed, ch.Name, "You're not a channel operator")
				continue
			}
			if adding {
				key, ok := nextArg()
				if !ok {
					continue
				}
				if ch.snapshotModes().key != "" {
					sess.sendFromServer(errKeySet, ch.Name, "Channel key already set")
					continue
				}
				ch.applyMode('k', true, key)
				changes.WriteByte('+')
				changes.WriteRune(c)
				changeArgs = append(changeArgs, key)
			} else {
				ch.applyMode('k', false, "")
				changes.WriteByte('-')
				changes.WriteRune(c)
			}

		case 'l':
			if !serverOp && !callerRole.isOperator() {
				sess.sendFromServer(errChanOPrivNeed, ch.Name, "You're not a channel operator")
				continue
			}
			if adding {
				limit, _ := nextArg()
				ch.applyMode('l', true, limit)
				changes.WriteByte('+')
				changes.WriteRune(c)
				changeArgs = append(changeArgs, limit)
			} else {
				ch.applyMode('l', false, "")
				changes.WriteByte('-')
				changes.WriteRune(c)
			}

		case 'b', 'e':
			m, ok := nextArg()
			if !ok {
				// Listing form: show current masks instead of erroring.
				if c == 'b' {
					for _, bm := range ch.banList() {
						sess.sendFromServer("367", ch.Name, bm)
					}
					sess.sendFromServer("368", ch.Name, "End of Channel Ban List")
				} else {
					for _, em := range ch.exceptionList() {
						sess.sendFromServer("348", ch.Name, em)
					}
					sess.sendFromServer("349", ch.Name, "End of Channel Exception List")
				}
				continue
			}
			if !serverOp && !callerRole.isOperator() {
				sess.sendFromServer(errChanOPrivNeed, ch.Name, "You're not a channel operator")
				continue
			}
			masks := ch.banList()
			if c == 'e' {
				masks = ch.exceptionList()
			}
			alreadySet := false
			for _, existing := range masks {
				alreadySet = alreadySet || existing == m
			}
			var ok2 bool
			if c == 'b' {
				if adding {
					ch.addBan(m)
					ok2 = !alreadySet
				} else {
					ok2 = ch.removeBan(m)
				}
			} else {
				if adding {
					ch.addException(m)
					ok2 = !alreadySet
				} else {
					ok2 = ch.removeException(m)
				}
			}
			if ok2 {
				changes.WriteByte(boolByte(adding))
				changes.WriteRune(c)
				changeArgs = append(changeArgs, m)
			}

		case 'q', 'a', 'o', 'h', 'v':
			nick, ok := nextArg()
			if !ok {
				continue
			}
			tier := roleForLetter(byte(c))
			required := tier
			if c == 'v' {
				if adding {
					required = roleHalfOp
				} else {
					required = roleVoice
				}
			}
			if !serverOp && !callerRole.atLeast(required) {
				sess.sendFromServer(errChanOPrivNeed, ch.Name, "You're not a channel operator")
				continue
			}
			member := s.lookupNick(nick)
			if member == nil || !member.onChannel(ch.Name) {
				sess.sendFromServer(errUserNotInChan, nick, ch.Name, "They aren't on that channel")
				continue
			}
			key := canonicalizeNick(nick)
			current := ch.roleOf(key)
			next := current | tier
			if !adding {
				next = current &^ tier
			}
			if next == current {
				continue
			}
			ch.setRole(key, next)
			changes.WriteByte(boolByte(adding))
			changes.WriteRune(c)
			changeArgs = append(changeArgs, nick)

		default:
			sess.sendFromServer(errUnknownMode, string(c), "is unknown mode char to me")
		}
	}

	if changes.Len() == 0 {
		return
	}

	prefix := sess.prefix()
	params := append([]string{ch.Name, changes.String()}, changeArgs...)
	s.broadcastToChannel(ch, prefix, "MODE", canonicalizeNick(sess.currentNick()), params...)
	sess.relay(prefix, "MODE", params...)
}

func boolByte(adding bool) byte {
	if adding {
		return '+'
	}
	return '-'
}

func roleForLetter(c byte) role {
	switch c {
	case 'q':
		return roleOwner
	case 'a':
		return roleAdmin
	case 'o':
		return roleOp
	case 'h':
		return roleHalfOp
	case 'v':
		return roleVoice
	}
	return 0
}
