package ircd

import (
	"strings"
	"sync"

	"github.com/ayameircd/ayame/internal/cloak"
)

// serviceShell dispatches PRIVMSG bodies addressed to reserved service
// nicks (NickServ, HostServ) to the matching in-process pseudo-user,
// grounded on services/nickserv.rs and services/hostserv.rs.
type serviceShell struct {
	nickServ *nickServ
	hostServ *hostServ
}

func newServiceShell() *serviceShell {
	return &serviceShell{
		nickServ: &nickServ{nicks: map[string]string{}},
		hostServ: &hostServ{requireActivation: false, hosts: map[string]string{}, pending: map[string]string{}},
	}
}

// handle reports whether target names a service; if so it parses text
// as a whitespace-separated command line and dispatches it, returning
// true regardless of whether the command was recognized.
func (sh *serviceShell) handle(sess *Session, target, text string) bool {
	switch strings.ToLower(target) {
	case "nickserv":
		sh.nickServ.onMessage(sess, strings.Fields(text))
		return true
	case "hostserv":
		sh.hostServ.onMessage(sess, strings.Fields(text))
		return true
	}
	return false
}

func serviceReply(sess *Session, from, message string) {
	sess.relay(from+"@services", "NOTICE", sess.currentNick(), message)
}

// --- NickServ ------------------------------------------------------

type nickServ struct {
	mu    sync.Mutex
	nicks map[string]string // canonical nick -> password
}

func (n *nickServ) onMessage(sess *Session, params []string) {
	if len(params) < 1 {
		return
	}
	switch strings.ToLower(params[0]) {
	case "register":
		if len(params) < 3 {
			serviceReply(sess, "NickServ", "Not enough params")
			return
		}
		key := canonicalizeNick(params[1])
		n.mu.Lock()
		_, taken := n.nicks[key]
		n.mu.Unlock()
		if taken {
			serviceReply(sess, "NickServ", "Nick already taken")
			return
		}
		if canonicalizeNick(sess.currentNick()) != key {
			serviceReply(sess, "NickServ", "You can only register your current nick")
			return
		}
		n.mu.Lock()
		n.nicks[key] = params[2]
		n.mu.Unlock()
		serviceReply(sess, "NickServ", "Nick successfully registered")

	case "identify":
		if len(params) < 3 {
			serviceReply(sess, "NickServ", "Not enough params")
			return
		}
		if sess.isIdentified() {
			serviceReply(sess, "NickServ", "You are already identified")
			return
		}
		n.mu.Lock()
		password, ok := n.nicks[canonicalizeNick(params[1])]
		n.mu.Unlock()
		if !ok {
			serviceReply(sess, "NickServ", "Nick not registered")
			return
		}
		if password != params[2] {
			serviceReply(sess, "NickServ", "Wrong password")
			return
		}
		sess.setIdentified(true)
		serviceReply(sess, "NickServ", "You are now identified for this nick")

	case "logout":
		if !sess.isIdentified() {
			serviceReply(sess, "NickServ", "You are not identified")
			return
		}
		sess.setIdentified(false)
		serviceReply(sess, "NickServ", "You are no longer identified")

	case "drop":
		if len(params) < 3 {
			serviceReply(sess, "NickServ", "Not enough params")
			return
		}
		if sess.isIdentified() {
			serviceReply(sess, "NickServ", "You must logout before dropping a nick")
			return
		}
		key := canonicalizeNick(params[1])
		n.mu.Lock()
		password, ok := n.nicks[key]
		n.mu.Unlock()
		if !ok {
			serviceReply(sess, "NickServ", "Nick not registered")
			return
		}
		if password != params[2] {
			serviceReply(sess, "NickServ", "Wrong password")
			return
		}
		n.mu.Lock()
		delete(n.nicks, key)
		n.mu.Unlock()
		serviceReply(sess, "NickServ", "The nick registration has been released")

	case "help":
		serviceReply(sess, "NickServ", "NickServ commands:")
		serviceReply(sess, "NickServ", "REGISTER <nick> <password>")
		serviceReply(sess, "NickServ", "IDENTIFY <nick> <password>")
		serviceReply(sess, "NickServ", "LOGOUT")
		serviceReply(sess, "NickServ", "DROP <nick> <password>")
		serviceReply(sess, "NickServ", "HELP")

	default:
		serviceReply(sess, "NickServ", "Unknown command, try HELP")
	}
}

// --- HostServ --------------------------------------------------------

type hostServ struct {
	mu                sync.Mutex
	requireActivation bool
	hosts             map[string]string // canonical nick -> vhost
	pending           map[string]string // canonical nick -> requested vhost
}

func isVHostValid(vhost string) bool {
	for _, chunk := range strings.Split(vhost, ".") {
		if len(chunk) == 0 {
			return false
		}
		for _, c := range chunk {
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
				return false
			}
		}
	}
	return true
}

func (h *hostServ) onMessage(sess *Session, params []string) {
	if len(params) < 1 {
		return
	}
	key := canonicalizeNick(sess.currentNick())

	switch strings.ToLower(params[0]) {
	case "on":
		if !sess.isIdentified() {
			serviceReply(sess, "HostServ", "You are not identified for that nick")
			return
		}
		h.mu.Lock()
		vhost, ok := h.hosts[key]
		_, pendingOK := h.pending[key]
		h.mu.Unlock()
		switch {
		case ok:
			sess.setVHost(vhost)
			serviceReply(sess, "HostServ", "Your vhost of "+vhost+" is now activated")
		case pendingOK:
			serviceReply(sess, "HostServ", "Your vhost is pending activation")
		default:
			serviceReply(sess, "HostServ", "There is no vhost for your nick")
		}

	case "off":
		if !sess.isIdentified() {
			serviceReply(sess, "HostServ", "You are not identified for that nick")
			return
		}
		sess.mu.Lock()
		raw := sess.rawHost
		sess.mu.Unlock()
		sess.setVHost(cloak.Host(raw))

	case "request":
		if len(params) < 2 {
			serviceReply(sess, "HostServ", "Not enough params")
			return
		}
		if !sess.isIdentified() {
			serviceReply(sess, "HostServ", "You are not identified for that nick")
			return
		}
		if !isVHostValid(params[1]) {
			serviceReply(sess, "HostServ", "Invalid vhost format specified")
			return
		}
		h.mu.Lock()
		var hadOld bool
		if h.requireActivation {
			_, hadOld = h.pending[key]
			h.pending[key] = params[1]
		} else {
			_, hadOld = h.hosts[key]
			h.hosts[key] = params[1]
		}
		h.mu.Unlock()
		if h.requireActivation {
			serviceReply(sess, "HostServ", "Your vhost has been requested and awaiting activation")
		} else {
			serviceReply(sess, "HostServ", "Your vhost has been activated and is ready to use")
		}
		if hadOld {
			serviceReply(sess, "HostServ", "Your old vhost has been removed")
		}

	case "activate":
		if len(params) < 2 {
			serviceReply(sess, "HostServ", "Not enough params")
			return
		}
		if !sess.isOperator() {
			serviceReply(sess, "HostServ", "You are not an IRC operator")
			return
		}
		target := canonicalizeNick(params[1])
		h.mu.Lock()
		vhost, ok := h.pending[target]
		if ok {
			delete(h.pending, target)
			h.hosts[target] = vhost
		}
		h.mu.Unlock()
		if !ok {
			serviceReply(sess, "HostServ", "No pending vhost for nick "+params[1]+" found")
			return
		}
		serviceReply(sess, "HostServ", "You have activated the requested vhost")

	case "reject":
		if len(params) < 2 {
			serviceReply(sess, "HostServ", "Not enough params")
			return
		}
		if !sess.isOperator() {
			serviceReply(sess, "HostServ", "You are not an IRC operator")
			return
		}
		target := canonicalizeNick(params[1])
		h.mu.Lock()
		_, ok := h.pending[target]
		delete(h.pending, target)
		h.mu.Unlock()
		if !ok {
			serviceReply(sess, "HostServ", "No pending vhost for nick "+params[1]+" found")
			return
		}
		serviceReply(sess, "HostServ", "You have rejected the requested vhost for nick "+params[1])

	case "waiting":
		if !sess.isOperator() {
			serviceReply(sess, "HostServ", "You are not an IRC operator")
			return
		}
		serviceReply(sess, "HostServ", "List of pending vhosts:")
		h.mu.Lock()
		for nick, vhost := range h.pending {
			serviceReply(sess, "HostServ", nick+" - "+vhost)
		}
		h.mu.Unlock()

	case "del":
		if len(params) < 2 {
			serviceReply(sess, "HostServ", "Not enough params")
			return
		}
		if !sess.isOperator() {
			serviceReply(sess, "HostServ", "You are not an IRC operator")
			return
		}
		target := canonicalizeNick(params[1])
		h.mu.Lock()
		_, ok := h.hosts[target]
		delete(h.hosts, target)
		h.mu.Unlock()
		if !ok {
			serviceReply(sess, "HostServ", "No vhost for nick "+params[1]+" found")
			return
		}
		serviceReply(sess, "HostServ", "You have removed the vhost for nick "+params[1])

	case "help":
		serviceReply(sess, "HostServ", "HostServ commands:")
		serviceReply(sess, "HostServ", "ON")
		serviceReply(sess, "HostServ", "OFF")
		serviceReply(sess, "HostServ", "REQUEST <vhost>")
		serviceReply(sess, "HostServ", "HELP")

	default:
		serviceReply(sess, "HostServ", "Unknown command, try HELP")
	}
}
