package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// TestEncodeComponent tests percent-encoding of tag text.
func TestEncodeComponent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"intro", "intro"},
		{"'tabstop'", "%27tabstop%27"},
		{"a b", "a%20b"},
		{"-._~", "-._~"},
		{"CTRL-W_+", "CTRL-W_%2B"},
		{":help", "%3Ahelp"},
		{"/", "%2F"},
		{"ü", "%C3%BC"},
		{"&lt;Tab&gt;", "%26lt%3BTab%26gt%3B"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := encodeComponent(tt.in); got != tt.want {
				t.Errorf("encodeComponent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestTagURL tests joining a tag as a fragment.
func TestTagURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    string
		content string
		want    string
	}{
		{"plain tag", "https://neovim.io/doc/user/intro.html", "intro", "https://neovim.io/doc/user/intro.html#intro"},
		{"quoted option", "https://neovim.io/doc/user/options.html", "'ts'", "https://neovim.io/doc/user/options.html#%27ts%27"},
		{"query kept and fragment replaced", "https://neovim.io/a?b=1#old", "new", "https://neovim.io/a?b=1#new"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base := mustParseURL(t, tt.base)
			got := tagURL(base, tt.content)
			if got.String() != tt.want {
				t.Errorf("got %q, want %q", got.String(), tt.want)
			}
			if base.String() != tt.base {
				t.Errorf("base was modified: %q", base.String())
			}
		})
	}
}

// TestInnerHTML tests fragment serialization.
func TestInnerHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{"plain text", `<span id="t">intro</span>`, "intro"},
		{"quotes are not escaped in text", `<span id="t">'ts' "x"</span>`, `'ts' "x"`},
		{"markup characters are escaped", `<span id="t">a&amp;b &lt;c&gt;</span>`, "a&amp;b &lt;c&gt;"},
		{"nbsp is escaped", "<span id=\"t\">a&nbsp;b</span>", "a&nbsp;b"},
		{"nested element with attribute", `<span id="t"><b class="x" title='a"b'>x</b></span>`, `<b class="x" title="a&quot;b">x</b>`},
		{"void element has no end tag", `<span id="t">a<br>b</span>`, "a<br>b"},
		{"comment is kept", `<span id="t"><!-- c -->x</span>`, "<!-- c -->x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("failed to parse: %v", err)
			}
			node := doc.Find("#t").Get(0)

			if got := innerHTML(node); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
