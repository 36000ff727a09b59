package ircd

const (
	maxChannelLength = 50
	maxTopicLength   = 300
)

// isValidNick checks a nickname for validity per spec §4.1: 1..24
// characters, each one in [A-Za-z0-9_-].
func isValidNick(n string) bool {
	if len(n) == 0 || len(n) > maxNickLength {
		return false
	}
	for _, c := range n {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

const maxUserLength = 16

// isValidUser checks a USER command's username field for validity.
func isValidUser(u string) bool {
	if len(u) == 0 || len(u) > maxUserLength {
		return false
	}
	for _, c := range u {
		if c == ' ' || c == '\x00' || c == '\r' || c == '\n' || c == '@' {
			return false
		}
	}
	return true
}

// isValidChannel checks a channel name for validity. Only '#'-prefixed
// channels are supported.
func isValidChannel(c string) bool {
	if len(c) < 2 || len(c) > maxChannelLength {
		return false
	}
	if c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		if r == ' ' || r == ',' || r == '\x07' {
			return false
		}
	}
	return true
}
