package ircd

import (
	"fmt"
	"strings"

	"github.com/horgh/irc"
)

// joinCommand implements JOIN, including the comma-separated
// multi-channel form with a paired comma-separated key list (spec
// §4.3: "For each target channel in the comma-separated list, paired
// with the corresponding password from a second comma list if
// present").
func (s *Server) joinCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) == 0 {
		sess.sendFromServer(errNeedMoreParam, "JOIN", "Not enough parameters")
		return
	}

	if msg.Params[0] == "0" {
		sess.mu.Lock()
		names := make([]string, 0, len(sess.channels))
		for c := range sess.channels {
			names = append(names, c)
		}
		sess.mu.Unlock()
		for _, name := range names {
			s.partChannel(sess, name, "Leaving")
		}
		return
	}

	channelNames := strings.Split(msg.Params[0], ",")
	var keys []string
	if len(msg.Params) > 1 {
		keys = strings.Split(msg.Params[1], ",")
	}

	for i, channelName := range channelNames {
		if channelName == "" {
			continue
		}
		key := ""
		if i < len(keys) {
			key = keys[i]
		}
		s.joinOneChannel(sess, channelName, key)
	}
}

func (s *Server) joinOneChannel(sess *Session, channelName, key string) {
	if !isValidChannel(canonicalizeChannel(channelName)) {
		sess.sendFromServer(errNoSuchChannel, channelName, "Invalid channel name")
		return
	}

	nick := sess.currentNick()

	if sess.onChannel(channelName) {
		return
	}

	ch, created := s.getOrCreateChannel(channelName)

	if !created && !sess.isOperator() {
		if ch.banMatches(sess.prefix()) && !ch.hasException(sess.prefix()) {
			sess.sendFromServer(errBannedFromCh, ch.Name, "Cannot join channel (+b)")
			return
		}
		modes := ch.snapshotModes()
		if modes.inviteOnly && !ch.isInvited(canonicalizeNick(nick)) {
			sess.sendFromServer(errInviteOnlyCh, ch.Name, "Cannot join channel (+i)")
			return
		}
		if !ch.checkKey(key) {
			sess.sendFromServer(errBadChannelKey, ch.Name, "Cannot join channel (+k)")
			return
		}
		if ch.atCapacity() {
			sess.sendFromServer(errChannelIsFull, ch.Name, "Cannot join channel (+l)")
			return
		}
	}

	var r role
	if created {
		r = roleOp
	}
	ch.addMember(canonicalizeNick(nick), r)
	sess.joinChannel(ch.Name)

	prefix := sess.prefix()
	s.broadcastToChannel(ch, prefix, "JOIN", canonicalizeNick(nick), ch.Name)
	sess.relay(prefix, "JOIN", ch.Name)

	t := ch.getTopic()
	if t.text == "" {
		sess.sendFromServer(rplNoTopic, ch.Name, "No topic is set")
	} else {
		sess.sendFromServer(rplTopic, ch.Name, t.text)
	}

	s.namesReply(sess, ch)
}

func (s *Server) partCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) == 0 {
		sess.sendFromServer(errNeedMoreParam, "PART", "Not enough parameters")
		return
	}
	reason := ""
	if len(msg.Params) >= 2 {
		reason = msg.Params[1]
	}
	s.partChannel(sess, msg.Params[0], reason)
}

// partChannel is shared by PART and "JOIN 0".
func (s *Server) partChannel(sess *Session, channelName, reason string) {
	ch := s.lookupChannel(channelName)
	if ch == nil {
		sess.sendFromServer(errNoSuchChannel, channelName, "No such channel")
		return
	}
	if !sess.onChannel(ch.Name) {
		sess.sendFromServer(errNotOnChannel, ch.Name, "You're not on that channel")
		return
	}

	prefix := sess.prefix()
	params := []string{ch.Name}
	if reason != "" {
		params = append(params, reason)
	}
	s.broadcastToChannel(ch, prefix, "PART", canonicalizeNick(sess.currentNick()), params...)
	sess.relay(prefix, "PART", params...)

	ch.removeMember(canonicalizeNick(sess.currentNick()))
	sess.leaveChannel(ch.Name)
	s.dropChannelIfEmpty(ch)
}

func (s *Server) topicCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) == 0 {
		sess.sendFromServer(errNeedMoreParam, "TOPIC", "Not enough parameters")
		return
	}
	ch := s.lookupChannel(msg.Params[0])
	if ch == nil {
		sess.sendFromServer(errNoSuchChannel, msg.Params[0], "No such channel")
		return
	}
	if !sess.onChannel(ch.Name) {
		sess.sendFromServer(errNotOnChannel, ch.Name, "You're not on that channel")
		return
	}

	if len(msg.Params) == 1 {
		t := ch.getTopic()
		if t.text == "" {
			sess.sendFromServer(rplNoTopic, ch.Name, "No topic is set")
			return
		}
		sess.sendFromServer(rplTopic, ch.Name, t.text)
		sess.sendFromServer(rplTopicWhoTime, ch.Name, t.setBy, fmt.Sprintf("%d", t.setAt))
		return
	}

	if ch.snapshotModes().topicRestricted && !sess.channelRole(ch).isHalfOp() && !sess.isOperator() {
		sess.sendFromServer(errChanOPrivNeed, ch.Name, "You're not a channel operator")
		return
	}

	text := msg.Params[1]
	if len(text) > maxTopicLength {
		text = text[:maxTopicLength]
	}
	ch.setTopic(text, sess.currentNick())

	prefix := sess.prefix()
	s.broadcastToChannel(ch, prefix, "TOPIC", canonicalizeNick(sess.currentNick()), ch.Name, text)
	sess.relay(prefix, "TOPIC", ch.Name, text)
}

func (s *Server) namesCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) == 0 {
		for _, ch := range s.visibleChannels() {
			if ch.isSecret() && !sess.onChannel(ch.Name) && !sess.isOperator() {
				continue
			}
			s.namesReply(sess, ch)
		}
		sess.sendFromServer(rplEndOfNames, "*", "End of /NAMES list")
		return
	}
	ch := s.lookupChannel(msg.Params[0])
	if ch != nil {
		s.namesReply(sess, ch)
	}
	sess.sendFromServer(rplEndOfNames, msg.Params[0], "End of /NAMES list")
}

func (s *Server) namesReply(sess *Session, ch *Channel) {
	sess.sendFromServer(rplNameReply, "=", ch.Name, ch.namesList())
	sess.sendFromServer(rplEndOfNames, ch.Name, "End of /NAMES list")
}

func (s *Server) listCommand(sess *Session, msg irc.Message) {
	sess.sendFromServer(rplListStart, "Channel", "Users Name")
	for _, ch := range s.visibleChannels() {
		if ch.isSecret() && !sess.onChannel(ch.Name) && !sess.isOperator() {
			continue
		}
		t := ch.getTopic()
		sess.sendFromServer(rplList, ch.Name, fmt.Sprintf("%d", ch.memberCount()), t.text)
	}
	sess.sendFromServer(rplListEnd, "End of /LIST")
}

func (s *Server) inviteCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) < 2 {
		sess.sendFromServer(errNeedMoreParam, "INVITE", "Not enough parameters")
		return
	}
	targetNick, channelName := msg.Params[0], msg.Params[1]
	ch := s.lookupChannel(channelName)
	if ch == nil {
		sess.sendFromServer(errNoSuchChannel, channelName, "No such channel")
		return
	}
	if !sess.onChannel(ch.Name) {
		sess.sendFromServer(errNotOnChannel, ch.Name, "You're not on that channel")
		return
	}
	if !sess.channelRole(ch).isOperator() && !sess.isOperator() {
		sess.sendFromServer(errChanOPrivNeed, ch.Name, "You're not a channel operator")
		return
	}
	target := s.lookupNick(targetNick)
	if target == nil {
		sess.sendFromServer(errNoSuchNick, targetNick, "No such nick")
		return
	}
	if target.onChannel(ch.Name) {
		sess.sendFromServer(errUserOnChannel, targetNick, ch.Name, "is already on channel")
		return
	}
	ch.invite(canonicalizeNick(targetNick))
	s.broadcastToChannel(ch, s.name(), "NOTICE", "", "@"+ch.Name, sess.currentNick()+" invited "+targetNick+" into channel "+ch.Name)
	sess.sendFromServer(rplInviting, targetNick, ch.Name)
	target.relay(sess.prefix(), "INVITE", targetNick, ch.Name)
	if target.isAway() {
		sess.sendFromServer(rplAway, targetNick, target.awayText())
	}
}

// kickCommand implements KICK's target/user fan-out rule (spec §4.2):
// with exactly one channel and one or more users, every user is kicked
// from that channel; with equal channel and user counts, they're paired
// off positionally; any other combination is ignored outright.
func (s *Server) kickCommand(sess *Session, msg irc.Message) {
	if len(msg.Params) < 2 {
		sess.sendFromServer(errNeedMoreParam, "KICK", "Not enough parameters")
		return
	}
	channels := strings.Split(msg.Params[0], ",")
	nicks := strings.Split(msg.Params[1], ",")
	reason := sess.currentNick()
	if len(msg.Params) >= 3 {
		reason = msg.Params[2]
	}

	switch {
	case len(channels) == 1:
		for _, nick := range nicks {
			s.kickOne(sess, channels[0], nick, reason)
		}
	case len(channels) == len(nicks):
		for i, channelName := range channels {
			s.kickOne(sess, channelName, nicks[i], reason)
		}
	}
}

func (s *Server) kickOne(sess *Session, channelName, targetNick, reason string) {
	ch := s.lookupChannel(channelName)
	if ch == nil {
		sess.sendFromServer(errNoSuchChannel, channelName, "No such channel")
		return
	}
	if !sess.onChannel(ch.Name) {
		sess.sendFromServer(errNotOnChannel, ch.Name, "You're not on that channel")
		return
	}
	selfKick := canonicalizeNick(targetNick) == canonicalizeNick(sess.currentNick())
	callerRole := sess.channelRole(ch)
	if !selfKick && !callerRole.isHalfOp() && !sess.isOperator() {
		sess.sendFromServer(errChanOPrivNeed, ch.Name, "You're not a channel operator")
		return
	}
	target := s.lookupNick(targetNick)
	if target == nil || !target.onChannel(ch.Name) {
		sess.sendFromServer(errUserNotInChan, targetNick, ch.Name, "They aren't on that channel")
		return
	}
	if !selfKick && !sess.isOperator() && rank(callerRole) <= rank(target.channelRole(ch)) {
		sess.sendFromServer(errChanOPrivNeed, ch.Name, "You're not a channel operator")
		return
	}

	prefix := sess.prefix()
	s.broadcastToChannel(ch, prefix, "KICK", canonicalizeNick(targetNick), ch.Name, targetNick, reason)
	target.relay(prefix, "KICK", ch.Name, targetNick, reason)

	ch.removeMember(canonicalizeNick(targetNick))
	target.leaveChannel(ch.Name)
	s.dropChannelIfEmpty(ch)
}
