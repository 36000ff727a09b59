package mask

import "testing"

func TestMatch(t *testing.T) {
	cases := []struct {
		mask, value string
		want        bool
	}{
		{"alice!*@*", "alice!alice@host.example.com", true},
		{"alice!*@*", "bob!bob@host.example.com", false},
		{"*!*@*.example.com", "bob!bob@irc.example.com", true},
		{"*!*@*.example.com", "bob!bob@irc.example.org", false},
		{"a?ice!*@*", "alice!alice@host", true},
		{"a?ice!*@*", "alce!alice@host", false},
		{"literal", "literal", true},
		{"literal", "literals", false},
		{`\*literal`, "*literal", true},
		{`\*literal`, "xliteral", false},
		{"**", "anything", true},
		{"", "", true},
		{"", "x", false},
	}

	for _, c := range cases {
		if got := Match(c.mask, c.value); got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.mask, c.value, got, c.want)
		}
	}
}
