package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMediaURLs(t *testing.T) {
	t.Parallel()

	text := "see https://example.com/photo.jpg and http://cdn.example.com/a/b/clip.GIF plus https://example.com/page.html"
	got := ExtractMediaURLs(text)

	assert.Equal(t, []string{
		"https://example.com/photo.jpg",
		"http://cdn.example.com/a/b/clip.GIF",
	}, got)
}

func TestExtractMediaURLsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ExtractMediaURLs("no media here"))
}

func TestMediaFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "photo.jpg", MediaFileName("https://example.com/images/photo.jpg"))
	assert.Equal(t, "", MediaFileName("https://example.com/images/"))
	assert.Equal(t, "plain.png", MediaFileName("plain.png"))
}
