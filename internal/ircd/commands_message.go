package ircd

import (
	"strings"

	"github.com/horgh/irc"
)

func (s *Server) privmsgCommand(sess *Session, msg irc.Message) {
	s.sendMessage(sess, msg, "PRIVMSG", false)
}

func (s *Server) noticeCommand(sess *Session, msg irc.Message) {
	s.sendMessage(sess, msg, "NOTICE", true)
}

// sendMessage implements both PRIVMSG and NOTICE, which share the same
// target resolution and only differ in whether errors and away-replies
// are ever sent back (never, for NOTICE, per spec §4.4/RFC 2812).
func (s *Server) sendMessage(sess *Session, msg irc.Message, command string, quiet bool) {
	if len(msg.Params) == 0 {
		if !quiet {
			sess.sendFromServer(errNoRecipient, "No recipient given ("+command+")")
		}
		return
	}
	if len(msg.Params) == 1 || msg.Params[1] == "" {
		if !quiet {
			sess.sendFromServer(errNoTextToSend, "No text to send")
		}
		return
	}

	text := msg.Params[1]
	for _, target := range strings.Split(msg.Params[0], ",") {
		s.sendToOneTarget(sess, target, text, command, quiet)
	}
}

func (s *Server) sendToOneTarget(sess *Session, target, text, command string, quiet bool) {
	prefix := sess.prefix()

	if strings.HasPrefix(target, "#") {
		ch := s.lookupChannel(target)
		onChannel := ch != nil && sess.onChannel(ch.Name)
		if ch != nil {
			modes := ch.snapshotModes()
			if modes.blockExternal && !onChannel {
				if !quiet {
					sess.sendFromServer(errCannotSendToC, ch.Name, "Cannot send to channel")
				}
				return
			}
			if modes.moderated && !sess.channelRole(ch).isVoiced() {
				if !quiet {
					sess.sendFromServer(errCannotSendToC, ch.Name, "Cannot send to channel")
				}
				return
			}
		}
		if ch == nil {
			// Bug-for-bug: reuses the "no such nick" reply rather than a
			// channel-flavored one for an unknown channel target here.
			if !quiet {
				sess.sendFromServer(errNoSuchNick, target, "No such nick/channel")
			}
			return
		}
		if ch.banMatches(prefix) && !ch.hasException(prefix) && !sess.channelRole(ch).isHalfOp() {
			if !quiet {
				sess.sendFromServer(errCannotSendToC, ch.Name, "Cannot send to channel")
			}
			return
		}
		s.broadcastToChannel(ch, prefix, command, canonicalizeNick(sess.currentNick()), target, text)
		return
	}

	if strings.HasPrefix(target, "!") || strings.HasPrefix(target, "&") || strings.HasPrefix(target, "+") {
		if !quiet {
			sess.sendFromServer(errNoSuchChannel, target, "No such channel")
		}
		return
	}

	if handled := s.services.handle(sess, target, text); handled {
		return
	}

	dest := s.lookupNick(target)
	if dest == nil {
		if !quiet {
			sess.sendFromServer(errNoSuchNick, target, "No such nick")
		}
		return
	}
	dest.relay(prefix, command, target, text)

	if !quiet && dest.isAway() {
		sess.sendFromServer(rplAway, target, dest.awayText())
	}
}
