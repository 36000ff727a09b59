package ircd

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/horgh/irc"

	"github.com/ayameircd/ayame/internal/motd"
)

// lusersCommand sends the LUSERS numeric burst unconditionally; it's
// called both directly from LUSERS and as part of the registration
// burst, matching the teacher's lusersCommand.
func (s *Server) lusersCommand(sess *Session) {
	sess.sendFromServer("251", fmt.Sprintf("There are %d users and 0 services on 1 server", s.connectedCount()))
	sess.sendFromServer("252", fmt.Sprintf("%d", s.operatorCount()), "operator(s) online")
	sess.sendFromServer("253", fmt.Sprintf("%d", s.unknownCount()), "unknown connection(s)")
	sess.sendFromServer("254", fmt.Sprintf("%d", s.channelCount()), "channels formed")
	sess.sendFromServer("255", fmt.Sprintf("I have %d clients and 1 server", s.connectedCount()))
}

func (s *Server) lusersCommandArgs(sess *Session, msg irc.Message) {
	s.lusersCommand(sess)
}

// motdCommand sends the MOTD numeric burst.
func (s *Server) motdCommand(sess *Session) {
	s.motdMu.Lock()
	lines := s.motdLines
	s.motdMu.Unlock()

	if len(lines) == 0 {
		sess.sendFromServer(errNoMotd, "MOTD File is missing")
		return
	}
	sess.sendFromServer(rplMotdStart, "- "+s.name()+" Message of the day -")
	for _, line := range lines {
		sess.sendFromServer(rplMotd, "- "+line)
	}
	sess.sendFromServer(rplEndOfMotd, "End of /MOTD command")
}

func (s *Server) motdCommandArgs(sess *Session, msg irc.Message) {
	s.motdCommand(sess)
}

func (s *Server) versionCommand(sess *Session, msg irc.Message) {
	sess.sendFromServer(rplVersion, "ayame-1", s.name(), "")
}

func (s *Server) timeCommand(sess *Session, msg irc.Message) {
	sess.sendFromServer(rplTime, s.name(), timeNowString())
}

func (s *Server) statsCommand(sess *Session, msg irc.Message) {
	query := "u"
	if len(msg.Params) > 0 {
		query = msg.Params[0]
	}
	switch query {
	case "u":
		sess.sendFromServer("242", "Server Up "+formatUptime(time.Since(s.createdAt)))
	default:
		sess.sendFromServer("219", query, "End of /STATS report")
		return
	}
	sess.sendFromServer("219", query, "End of /STATS report")
}

func (s *Server) usersCommand(sess *Session, msg irc.Message) {
	sess.sendFromServer(errUsersDisabled, "USERS has been disabled")
}

func (s *Server) summonCommand(sess *Session, msg irc.Message) {
	sess.sendFromServer(errSummonDisable, "SUMMON has been disabled")
}

func (s *Server) rehashCommand(sess *Session, msg irc.Message) {
	if !sess.isOperator() {
		sess.sendFromServer(errNoPrivileges, "Permission Denied- You're not an IRC operator")
		return
	}
	if lines, err := motd.Load(s.motdPath); err == nil {
		s.motdMu.Lock()
		s.motdLines = lines
		s.motdMu.Unlock()
	} else {
		log.Printf("rehash: reload motd: %s", err)
	}
	sess.sendFromServer(rplRehashing, "ircd.conf", "Rehashing")
}

func (s *Server) dieCommand(sess *Session, msg irc.Message) {
	if !sess.isOperator() {
		sess.sendFromServer(errNoPrivileges, "Permission Denied- You're not an IRC operator")
		return
	}
	s.Shutdown()
}

func (s *Server) restartCommand(sess *Session, msg irc.Message) {
	if !sess.isOperator() {
		sess.sendFromServer(errNoPrivileges, "Permission Denied- You're not an IRC operator")
		return
	}
	sess.sendFromServer("382", "RESTART is not supported; restart the process manually")
}

func (s *Server) awayCommand(sess *Session, msg irc.Message) {
	text := ""
	if len(msg.Params) > 0 {
		text = msg.Params[0]
	}
	sess.mu.Lock()
	sess.away = text
	sess.mu.Unlock()
	if text == "" {
		sess.sendFromServer(rplUnAway, "You are no longer marked as being away")
	} else {
		sess.sendFromServer(rplNowAway, "You have been marked as being away")
	}
}

func (s *Server) userhostCommand(sess *Session, msg irc.Message) {
	var parts []string
	for _, nick := range msg.Params {
		target := s.lookupNick(nick)
		if target == nil {
			continue
		}
		entry := target.currentNick()
		if target.isOperator() {
			entry += "*"
		}
		entry += "="
		if target.isAway() {
			entry += "-"
		} else {
			entry += "+"
		}
		entry += target.hostPair()
		parts = append(parts, entry)
	}
	sess.sendFromServer(rplUserHost, strings.Join(parts, " "))
}

func (s *Server) isonCommand(sess *Session, msg irc.Message) {
	var online []string
	for _, nick := range msg.Params {
		if s.lookupNick(nick) != nil {
			online = append(online, nick)
		}
	}
	sess.sendFromServer(rplIson, strings.Join(online, " "))
}

func (s *Server) whoCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) == 0 {
		sess.sendFromServer(rplEndOfWho, "*", "End of /WHO list")
		return
	}
	mask := msg.Params[0]
	opsOnly := len(msg.Params) > 1 && msg.Params[1] == "o"

	if ch := s.lookupChannel(mask); ch != nil {
		for _, nick := range ch.snapshotMembers() {
			r := ch.roleOf(nick)
			if opsOnly && !r.isOperator() {
				continue
			}
			target := s.lookupNick(nick)
			if target == nil {
				continue
			}
			s.whoReplyLine(sess, ch.Name, target, r)
		}
		sess.sendFromServer(rplEndOfWho, mask, "End of /WHO list")
		return
	}

	if target := s.lookupNick(mask); target != nil {
		s.whoReplyLine(sess, "*", target, 0)
	}
	sess.sendFromServer(rplEndOfWho, mask, "End of /WHO list")
}

func (s *Server) whoReplyLine(sess *Session, channel string, target *Session, r role) {
	user, host, realName := target.identity()
	away := "H"
	if target.isAway() {
		away = "G"
	}
	if target.isOperator() {
		away += "*"
	}
	away += r.prefixFor()
	sess.sendFromServer(rplWhoReply, channel, user, host, s.name(), target.currentNick(), away, "0 "+realName)
}

func (s *Server) whoisCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) == 0 {
		sess.sendFromServer(errNoNicknameGvn, "No nickname given")
		return
	}
	target := s.lookupNick(msg.Params[0])
	if target == nil {
		sess.sendFromServer(errNoSuchNick, msg.Params[0], "No such nick")
		return
	}

	user, host, realName := target.identity()
	nick := target.currentNick()

	sess.sendFromServer(rplWhoisUser, nick, user, host, "*", realName)
	if target.isIdentified() {
		sess.sendFromServer(rplWhoisRegNick, nick, "is identified for this nick")
	}
	sess.sendFromServer(rplWhoisServer, nick, s.name(), s.info)
	if target.isOperator() {
		sess.sendFromServer(rplWhoisOperator, nick, "is an IRC operator")
	}
	if target.isAway() {
		sess.sendFromServer(rplAway, nick, target.awayText())
	}

	if sess.isOperator() {
		var withPrefix []string
		for _, name := range target.channelList() {
			if ch := s.lookupChannel(name); ch != nil {
				withPrefix = append(withPrefix, ch.roleOf(canonicalizeNick(nick)).prefixFor()+ch.Name)
			}
		}
		if len(withPrefix) > 0 {
			sess.sendFromServer(rplWhoisChannels, nick, strings.Join(withPrefix, " "))
		}
	}

	sess.sendFromServer(rplWhoisIdle, nick, fmt.Sprintf("%d", target.idleSeconds()), "0", "seconds idle, signon time")
	sess.sendFromServer(rplEndOfWhois, nick, "End of /WHOIS list")
}

func (s *Server) whowasCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) == 0 {
		sess.sendFromServer(errNoNicknameGvn, "No nickname given")
		return
	}
	nick := msg.Params[0]
	entries := s.lookupHistory(nick)
	if len(entries) == 0 {
		sess.sendFromServer(errWasNoSuchNick, nick, "There was no such nickname")
		sess.sendFromServer(rplEndOfWhoWas, nick, "End of WHOWAS")
		return
	}

	// Optional second param is a count; 0 (or absent) means all entries,
	// per spec §4.5. Entries are oldest-first, so take the most recent N.
	if len(msg.Params) > 1 {
		if n, err := strconv.Atoi(msg.Params[1]); err == nil && n > 0 && n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}

	for _, e := range entries {
		sess.sendFromServer(rplWhoWasUser, nick, e.user, e.host, "*", e.realName)
		sess.sendFromServer(rplWhoisServer, nick, s.name(), s.info)
	}
	sess.sendFromServer(rplEndOfWhoWas, nick, "End of WHOWAS")
}

func timeNowString() string {
	return time.Now().Format("Mon Jan 2 2006 15:04:05 -0700")
}

// formatUptime renders a duration as "<days> days, HH:MM:SS", matching
// spec §4.2's STATS "u" sub-query format.
func formatUptime(d time.Duration) string {
	total := int64(d.Seconds())
	days := total / 86400
	rem := total % 86400
	hours := rem / 3600
	minutes := (rem % 3600) / 60
	seconds := rem % 60
	return fmt.Sprintf("%d days, %02d:%02d:%02d", days, hours, minutes, seconds)
}
