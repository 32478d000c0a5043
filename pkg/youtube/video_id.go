package youtube

import "regexp"

// videoIdPatterns are tried in order; the first match wins.
var videoIdPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`embed/([a-zA-Z0-9_-]{11})`),
}

var videoIdShape = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ExtractVideoId pulls the 11 character video id out of a watch, short-link
// or embed URL. When nothing matches the input is returned unchanged, so
// callers must check the result with IsValidVideoId.
func ExtractVideoId(url string) string {
	for _, pattern := range videoIdPatterns {
		if match := pattern.FindStringSubmatch(url); match != nil {
			return match[1]
		}
	}
	return url
}

// IsValidVideoId reports whether id has the shape of a video id.
func IsValidVideoId(id string) bool {
	return videoIdShape.MatchString(id)
}
