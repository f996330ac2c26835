package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavPolicy_Accept(t *testing.T) {
	p := DefaultNavPolicy()

	tests := []struct {
		name      string
		href      string
		mangaSlug string
		want      string
	}{
		{"chapter token", "https://komikcast03.com/chapter/one-piece-chapter-1101-bahasa-indonesia/", "one-piece", "one-piece-chapter-1101-bahasa-indonesia"},
		{"root relative", "/solo-leveling-chapter-12/", "", "solo-leveling-chapter-12"},
		{"ch abbreviation", "/ch/blue-lock-ch-200/", "", "blue-lock-ch-200"},
		{"numeric suffix", "/komik-a-123", "", "komik-a-123"},
		{"manga index path", "https://komikcast03.com/manga/one-piece/", "one-piece", ""},
		{"own manga slug", "https://komiku.org/one-piece/", "one-piece", ""},
		{"index slug", "https://komikcast03.com/daftar-komik/", "", ""},
		{"manga prefix", "/manga-list-2/", "", ""},
		{"no chapter shape", "https://komikcast03.com/about-us/", "", ""},
		{"empty", "", "", ""},
		{"root", "/", "", ""},
		{"contains ch only in word", "/watch-out/", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Accept(tt.href, tt.mangaSlug))
		})
	}
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "one-piece", lastSegment("https://komiku.org/manga/one-piece/"))
	assert.Equal(t, "one-piece", lastSegment("/manga/one-piece"))
	assert.Equal(t, "", lastSegment(""))
	assert.Equal(t, "", lastSegment("/"))
}
