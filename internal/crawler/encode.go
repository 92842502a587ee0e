package crawler

import (
	"net/url"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// encodeComponent percent-encodes every byte of s except the unreserved
// characters A-Z, a-z, 0-9, '-', '.', '_' and '~'. Escapes use upper-case
// hex digits. The output is what third-party tooling expects as a help-tag
// anchor, so it must not change.
func encodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// tagURL joins content as a fragment onto a copy of base. Any fragment base
// already carried is replaced; scheme, host, path and query are kept.
func tagURL(base *url.URL, content string) *url.URL {
	u := *base
	u.Fragment = content
	u.RawFragment = encodeComponent(content)
	return &u
}
