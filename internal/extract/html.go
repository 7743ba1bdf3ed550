package extract

import (
	"regexp"
	"strings"
)

var (
	htmlScriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlStyleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	htmlSpaceRe  = regexp.MustCompile(`\s+`)
)

// extractHTML strips script and style blocks, replaces the remaining tags
// with spaces, and collapses runs of whitespace.
func extractHTML(content []byte) (string, error) {
	text, err := extractPlain(content)
	if err != nil {
		return "", err
	}
	text = htmlScriptRe.ReplaceAllString(text, "")
	text = htmlStyleRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(htmlSpaceRe.ReplaceAllString(text, " ")), nil
}
