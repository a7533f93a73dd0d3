package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	shortHost = "youtu.be"
	wwwHost   = "www.youtube.com"
	bareHost  = "youtube.com"

	videoQueryParam = "v"
)

// Syntactic pre-filter only; it does not guarantee a playable video.
var youtubeURLPattern = regexp.MustCompile(`^(https?://)?((www\.)?youtube\.com|youtu\.?be)/.+$`)

// Schemes that cannot be parsed without a host.
var hostRequiredSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
	"ws":    {},
	"wss":   {},
	"ftp":   {},
}

// IsURL reports whether raw parses as an absolute URL.
func IsURL(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return false
	}
	if _, ok := hostRequiredSchemes[strings.ToLower(parsed.Scheme)]; ok && parsed.Host == "" {
		return false
	}
	return true
}

// ValidateYoutubeURL reports whether raw looks like a youtube.com or youtu.be link.
// Callers must check IsURL first.
func ValidateYoutubeURL(raw string) bool {
	return youtubeURLPattern.MatchString(raw)
}

// ExtractVideoID returns the video identifier of a validated YouTube URL, or ""
// when the URL carries none.
func ExtractVideoID(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	switch strings.ToLower(parsed.Hostname()) {
	case shortHost:
		return strings.TrimPrefix(parsed.EscapedPath(), "/")
	case wwwHost, bareHost:
		return QueryValue(parsed.RawQuery, videoQueryParam)
	default:
		return ""
	}
}

// QueryValue returns the first value of key in rawQuery, or "" when key is
// absent. Pairs are separated by '&' only, so ';' stays part of a value.
func QueryValue(rawQuery, key string) string {
	for _, pair := range strings.Split(rawQuery, "&") {
		name, value, _ := strings.Cut(pair, "=")
		if decodeQueryComponent(name) == key {
			return decodeQueryComponent(value)
		}
	}
	return ""
}

// decodeQueryComponent keeps malformed escapes literally.
func decodeQueryComponent(s string) string {
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return strings.ReplaceAll(s, "+", " ")
}
