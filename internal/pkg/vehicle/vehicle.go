package vehicle

import (
	"regexp"
	"strings"
)

// TrailerLabel prefixes the trailer plate when it is moved into remarks.
const TrailerLabel = "รถพ่วง: "

var headTrailerPattern = regexp.MustCompile(`^\s*(\S.*?)\s*/\s*(\S.*?)\s*$`)

// SplitHeadTrailer splits "HEAD / TRAILER" notation. Input without a slash, or
// with an empty side, comes back as head with an empty trailer.
func SplitHeadTrailer(carNumber string) (head, trailer string) {
	m := headTrailerPattern.FindStringSubmatch(carNumber)
	if m == nil {
		return strings.TrimSpace(carNumber), ""
	}
	return m[1], m[2]
}

// Remarks joins free-text notes with the trailer line, skipping empty parts.
func Remarks(notes, trailer string) string {
	notes = strings.TrimSpace(notes)
	if trailer == "" {
		return notes
	}
	line := TrailerLabel + trailer
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
