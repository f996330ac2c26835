package sanitize

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "  One Piece  ", "One Piece"},
		{"tags", "<h3><a href=\"/x\">Solo <b>Leveling</b></a></h3>", "Solo Leveling"},
		{"named entities", "Tom &amp; Jerry &quot;Classic&quot;", `Tom & Jerry "Classic"`},
		{"decimal entity", "It&#39;s", "It's"},
		{"hex entity", "caf&#xe9;", "café"},
		{"nbsp", "&nbsp;Chapter&nbsp;12&nbsp;", "Chapter 12"},
		{"script body dropped", "Title<script>alert(1)</script>", "Title"},
		{"escaped markup stripped", "&lt;b&gt;Bold&lt;/b&gt;", "Bold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestText_DeeplyEncoded(t *testing.T) {
	assert.Equal(t, "x", Text("&"+strings.Repeat("amp;", 10)+"lt;b&gt;x"))
	assert.Equal(t, "x", Text("&"+strings.Repeat("amp;", 64)+"lt;i&"+strings.Repeat("amp;", 64)+"gt;x"))
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"<p>x</p>",
		"&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;",
		"a < b && c > d",
		"<<b>>nested<</b>>",
		"&#60;i&#62;x&#60;/i&#62;",
		"unterminated <b",
		"  &nbsp; spaced &nbsp; ",
		"<img src=x onerror=alert(1)>caption",
		"&" + strings.Repeat("amp;", 10) + "lt;b&gt;x",
		"&" + strings.Repeat("amp;", 200) + "lt;script&gt;alert(1)",
		strings.Repeat("&amp;", 50) + "lt;",
	}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
	}
}

var anyTag = regexp.MustCompile(`<\s*/?\s*([a-zA-Z][a-zA-Z0-9]*)`)

func TestHTML_OnlyInlineTagsSurvive(t *testing.T) {
	allowed := map[string]bool{}
	for _, tag := range InlineTags {
		allowed[tag] = true
	}

	inputs := []string{
		`<p onclick="steal()">Hello <b style="color:red">world</b></p>`,
		`<div><script>alert(1)</script><span class="x">kept</span></div>`,
		`<a href="javascript:alert(1)">link text</a>`,
		`<img src=x onerror=alert(1)>`,
		`<p><p><em>unclosed`,
		`<iframe src="//evil"></iframe><strong>ok</strong>`,
		`&lt;script&gt;alert(1)&lt;/script&gt;`,
		`<svg><g onload=alert(1)></g></svg>text`,
	}
	for _, in := range inputs {
		out := HTML(in)
		for _, m := range anyTag.FindAllStringSubmatch(out, -1) {
			assert.True(t, allowed[strings.ToLower(m[1])], "tag %q leaked from %q: %q", m[1], in, out)
		}
		assert.NotContains(t, out, "onclick")
		assert.NotContains(t, out, "onerror")
		assert.NotContains(t, out, "style=")
		assert.NotContains(t, out, "class=")
	}
}

func TestHTML(t *testing.T) {
	assert.Equal(t, "", HTML(""))
	assert.Equal(t, "<p>Hello <b>world</b></p>", HTML(`<p onclick="x()">Hello <b id="y">world</b></p>`))
	assert.Equal(t, "link text", HTML(`<a href="/x">link text</a>`))
	assert.Equal(t, "before after", HTML(`before <script>alert(1)</script>after`))
	assert.Equal(t, "It's &amp; done", HTML("It&#39;s &amp; done"))
	assert.Equal(t, "&lt;script&gt;", HTML("&lt;script&gt;"))
}

func TestURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/x", "https://example.com/x"},
		{"http://cdn.komiku.co.id/a.jpg", "http://cdn.komiku.co.id/a.jpg"},
		{"/relative/path", "/relative/path"},
		{"javascript:alert(1)", ""},
		{"JavaScript:alert(1)", ""},
		{"data:image/png;base64,AAAA", ""},
		{"//evil.example.com/x", ""},
		{"/\\evil.example.com", ""},
		{"relative/path", ""},
		{"https://", ""},
		{"ht tp://bad", ""},
		{"https://exa mple.com/\x00", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, URL(tt.in), "URL(%q)", tt.in)
	}
}

func TestURLs(t *testing.T) {
	got := URLs([]string{"https://a.example/1.jpg", "javascript:x", "", "/2.jpg"})
	assert.Equal(t, []string{"https://a.example/1.jpg", "/2.jpg"}, got)
	assert.Empty(t, URLs(nil))
}
