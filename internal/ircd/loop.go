package ircd

import (
	"io"
	"log"
	"time"
)

// readLoop is the per-connection reader goroutine: it blocks on socket
// reads and dispatches each parsed message to the command table. It
// returns (and tears the session down) on any read error, including the
// liveness timeout enforced via the connection's read deadline.
func (s *Server) readLoop(sess *Session) {
	defer s.teardown(sess)

	for {
		msg, err := sess.conn.ReadMessage()
		if err != nil {
			if err != io.EOF {
				log.Printf("session %s: read error: %s", sess, err)
			}
			return
		}

		sess.touchIdle()
		s.dispatch(sess, msg)

		sess.mu.Lock()
		terminated := sess.st == stateTerminated
		sess.mu.Unlock()
		if terminated {
			return
		}
	}
}

// pingLoop runs for the life of a session, periodically sending PING and
// disconnecting a client that never answers with PONG, per spec §4.1's
// liveness requirement. It exits once the session is torn down.
func (s *Server) pingLoop(sess *Session) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.pingerStop:
			return
		case <-ticker.C:
			sess.mu.Lock()
			if sess.st == stateTerminated {
				sess.mu.Unlock()
				return
			}
			answered := sess.gotPong
			sess.gotPong = false
			sess.mu.Unlock()

			if !answered {
				sess.sendFromServer("ERROR", "Closing Link: ping timeout")
				s.teardown(sess)
				return
			}

			sess.sendFromServer("PING", s.name())
		}
	}
}

// teardown removes a session from every registry exactly once and tells
// its peers it's gone. It's safe to call multiple times (from both the
// read loop and the ping loop racing a timeout) because of the
// sync.Once guard.
func (s *Server) teardown(sess *Session) {
	sess.once.Do(func() {
		close(sess.pingerStop)

		sess.mu.Lock()
		sess.st = stateTerminated
		quitMsg := sess.quitReason
		sess.mu.Unlock()
		if quitMsg == "" {
			quitMsg = "Client quit"
		}

		nick, channels := s.unregister(sess)
		if nick != "" {
			prefix := sess.prefix()
			for _, ch := range channels {
				s.broadcastToChannel(ch, prefix, "QUIT", nick, quitMsg)
				s.dropChannelIfEmpty(ch)
			}
		}

		_ = sess.conn.Close()
	})
}

// sendRegistrationBurst sends the 001-004 welcome sequence followed by
// LUSERS and MOTD, matching the teacher's completeRegistration shape.
func (s *Server) sendRegistrationBurst(sess *Session) {
	sess.sendFromServer(rplWelcome, "Welcome to the "+s.name()+" IRC network "+sess.prefix())
	sess.sendFromServer(rplYourHost, "Your host is "+s.name()+", running version ayame-1")
	sess.sendFromServer(rplCreated, "This server was created "+s.createdAt.Format(time.RFC1123))
	sess.sendFromServer(rplMyInfo, s.name(), "ayame-1", "ix", "beiklmnost")

	s.lusersCommand(sess)
	s.motdCommand(sess)
}
