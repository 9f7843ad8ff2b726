package core

import (
	"mime"
	"strings"
)

var acceptedMediaTypes = []string{"image/jpeg", "image/jpg", "image/png"}

// IsAcceptable reports whether a proof file of the given media type can be
// attached to a bill. Parameters such as charset are ignored.
func IsAcceptable(mediaType string) bool {
	mt := strings.TrimSpace(mediaType)
	if mt == "" {
		return false
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	} else if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	mt = strings.ToLower(mt)
	for _, a := range acceptedMediaTypes {
		if mt == a {
			return true
		}
	}
	return false
}

// AcceptedMediaTypes returns a copy of the allow-set.
func AcceptedMediaTypes() []string {
	out := make([]string, len(acceptedMediaTypes))
	copy(out, acceptedMediaTypes)
	return out
}
