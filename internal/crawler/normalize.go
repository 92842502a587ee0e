package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind tells how a raw link was turned into a URL.
type Kind int

const (
	// Malformed means the link could not be turned into a URL.
	Malformed Kind = iota

	// Absolute means the link carried its own scheme.
	Absolute

	// Relative means the link was resolved against a base URL.
	Relative
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case Absolute:
		return "absolute"
	case Relative:
		return "relative"
	default:
		return "malformed"
	}
}

// Reference is the tagged outcome of resolving one raw link.
// URL is set for Absolute and Relative; Err is set for Malformed.
type Reference struct {
	Kind Kind
	URL  *url.URL
	Err  error
}

// defaultPorts maps schemes to the port that is dropped from the host.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// stripNewlines removes ASCII tab and newline characters anywhere in a link,
// the way browsers do before parsing.
var stripNewlines = strings.NewReplacer("\t", "", "\n", "", "\r", "")

// Resolve turns raw into a canonical, fragment-free URL.
//
// A raw value with a scheme is used as is. A relative reference is resolved
// against base following RFC 3986. A relative reference with a nil base,
// or a value that does not parse, is reported as Malformed.
func Resolve(base *url.URL, raw string) Reference {
	cleaned := strings.TrimFunc(raw, func(r rune) bool { return r <= ' ' })
	cleaned = stripNewlines.Replace(cleaned)

	u, err := url.Parse(cleaned)
	if err != nil && base != nil && !hasScheme(cleaned) {
		// "10:30.html" is a path whose first segment holds a colon.
		if dotted, dotErr := url.Parse("./" + cleaned); dotErr == nil {
			u, err = dotted, nil
		}
	}
	if err != nil {
		return Reference{Kind: Malformed, Err: fmt.Errorf("%w: %w", ErrMalformedURL, err)}
	}

	kind := Absolute
	if !u.IsAbs() {
		if base == nil {
			return Reference{Kind: Malformed, Err: ErrRelativeWithoutBase}
		}
		u = base.ResolveReference(u)
		kind = Relative
	}

	canonicalize(u)
	return Reference{Kind: kind, URL: u}
}

// hasScheme reports whether raw starts with a valid scheme followed by a
// colon: a letter, then letters, digits, '+', '-' or '.'.
func hasScheme(raw string) bool {
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9', c == '+', c == '-', c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			return i > 0
		default:
			return false
		}
	}
	return false
}

// Normalize is Resolve for callers that only care about success.
func Normalize(base *url.URL, raw string) (*url.URL, error) {
	ref := Resolve(base, raw)
	if ref.Kind == Malformed {
		return nil, ref.Err
	}
	return ref.URL, nil
}

// canonicalize strips the fragment and brings scheme, host, port and the
// empty path into one form so equal pages compare equal.
func canonicalize(u *url.URL) {
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)

	if u.Host == "" {
		return
	}

	host := strings.ToLower(u.Host)
	if port, ok := defaultPorts[u.Scheme]; ok {
		host = strings.TrimSuffix(host, ":"+port)
	}
	u.Host = host

	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
		u.RawPath = ""
	}
}

// withoutFragment returns a copy of u with any fragment removed.
func withoutFragment(u *url.URL) *url.URL {
	c := *u
	canonicalize(&c)
	return &c
}
