package discovery

import (
	"regexp"
	"strings"
)

// imageURLPattern matches image URLs embedded in snippet text. The extension
// list mirrors what the media gallery can render.
var imageURLPattern = regexp.MustCompile(`(?i)https?://\S+\.(?:jpg|jpeg|png|gif|webp)`)

// ExtractMediaURLs returns every embedded image URL found in the text, in
// order of appearance.
func ExtractMediaURLs(text string) []string {
	return imageURLPattern.FindAllString(text, -1)
}

// MediaFileName derives the stored file name from a media URL: the last path
// segment, empty when the URL ends in a slash.
func MediaFileName(mediaURL string) string {
	idx := strings.LastIndex(mediaURL, "/")
	if idx < 0 {
		return mediaURL
	}
	return mediaURL[idx+1:]
}
