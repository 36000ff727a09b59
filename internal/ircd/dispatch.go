package ircd

import (
	"strings"

	"github.com/horgh/irc"
)

// handler processes one parsed command for a session.
type handler func(s *Server, sess *Session, msg irc.Message)

// preRegOK lists the commands a session may issue before completing
// registration, matching the teacher's local_user.go gating: everything
// else gets a polite "you have not registered" refusal rather than
// silently being ignored.
var preRegOK = map[string]bool{
	"CAP":  true,
	"PASS": true,
	"NICK": true,
	"USER": true,
}

var commandTable = map[string]handler{
	"CAP":      (*Server).capCommand,
	"PASS":     (*Server).passCommand,
	"NICK":     (*Server).nickCommand,
	"USER":     (*Server).userCommand,
	"OPER":     (*Server).operCommand,
	"QUIT":     (*Server).quitCommand,
	"PING":     (*Server).pingCommand,
	"PONG":     (*Server).pongCommand,
	"JOIN":     (*Server).joinCommand,
	"PART":     (*Server).partCommand,
	"TOPIC":    (*Server).topicCommand,
	"NAMES":    (*Server).namesCommand,
	"LIST":     (*Server).listCommand,
	"INVITE":   (*Server).inviteCommand,
	"KICK":     (*Server).kickCommand,
	"MODE":     (*Server).modeCommand,
	"PRIVMSG":  (*Server).privmsgCommand,
	"NOTICE":   (*Server).noticeCommand,
	"WHO":      (*Server).whoCommand,
	"WHOIS":    (*Server).whoisCommand,
	"WHOWAS":   (*Server).whowasCommand,
	"USERHOST": (*Server).userhostCommand,
	"ISON":     (*Server).isonCommand,
	"STATS":    (*Server).statsCommand,
	"TIME":     (*Server).timeCommand,
	"VERSION":  (*Server).versionCommand,
	"MOTD":     (*Server).motdCommandArgs,
	"LUSERS":   (*Server).lusersCommandArgs,
	"REHASH":   (*Server).rehashCommand,
	"DIE":      (*Server).dieCommand,
	"RESTART":  (*Server).restartCommand,
	"SUMMON":   (*Server).summonCommand,
	"USERS":    (*Server).usersCommand,
	"AWAY":     (*Server).awayCommand,
}

// dispatch routes a parsed message to its handler, enforcing the
// registration gate and the not-registered/unknown-command error
// replies the teacher's handleMessage if-chain sends.
func (s *Server) dispatch(sess *Session, msg irc.Message) {
	command := strings.ToUpper(msg.Command)

	sess.mu.Lock()
	st := sess.st
	sess.mu.Unlock()

	if st != stateRegistered && !preRegOK[command] {
		sess.sendFromServer(errNotRegist, "You have not registered")
		return
	}

	h, ok := commandTable[command]
	if !ok {
		sess.sendFromServer(errUnknownCmd, command, "Unknown command")
		return
	}

	h(s, sess, msg)
}
