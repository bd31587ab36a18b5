package usecase

import (
	"regexp"
	"strings"
)

// DefaultShareBaseURL is the web app a shared list is handed to
const DefaultShareBaseURL = "https://www.checkjebon.nl/"

var shareNewlineRegex = regexp.MustCompile(`\r\n|\n|\r`)

// EncodeShareLink returns baseURL#list with spaces, slashes and line breaks escaped.
// Every other character, commas included, is left as is.
func EncodeShareLink(baseURL, list string) string {
	encoded := strings.ReplaceAll(list, " ", "%20")
	encoded = strings.ReplaceAll(encoded, "/", "%2F")
	encoded = shareNewlineRegex.ReplaceAllString(encoded, "%0A")
	return baseURL + "#" + encoded
}

// EncodeShareLines joins lines with newlines and encodes them
func EncodeShareLines(baseURL string, lines []string) string {
	return EncodeShareLink(baseURL, strings.Join(lines, "\n"))
}
