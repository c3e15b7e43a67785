package optimizer

import (
	"regexp"
	"strings"

	"optipix/internal/config"
)

// svgOptimizer is a text transform, not a renderer. It removes only a
// known-safe set of bytes: XML comments, <metadata> blocks, editor
// namespace attributes, and redundant whitespace. Elements outside that
// set are never touched, even when they look removable, and the transform
// is idempotent. SVG is resolution-independent, so it is never resized.
type svgOptimizer struct{}

var (
	svgCommentRe    = regexp.MustCompile(`(?s)<!--.*?-->`)
	svgMetadataRe   = regexp.MustCompile(`(?s)<metadata[^>]*>.*?</metadata>`)
	svgInkscapeRe   = regexp.MustCompile(`\s*inkscape:[\w.-]+="[^"]*"`)
	svgSodipodiRe   = regexp.MustCompile(`\s*sodipodi:[\w.-]+="[^"]*"`)
	svgAdobeRe      = regexp.MustCompile(`\s*adobe-[\w.-]+="[^"]*"`)
	svgWhitespaceRe = regexp.MustCompile(`\s+`)
)

func (svgOptimizer) Optimize(data []byte, _ config.Run) ([]byte, error) {
	return []byte(optimizeSVGContent(string(data))), nil
}

func optimizeSVGContent(content string) string {
	out := svgCommentRe.ReplaceAllString(content, "")
	out = svgMetadataRe.ReplaceAllString(out, "")
	out = svgInkscapeRe.ReplaceAllString(out, "")
	out = svgSodipodiRe.ReplaceAllString(out, "")
	out = svgAdobeRe.ReplaceAllString(out, "")
	out = svgWhitespaceRe.ReplaceAllString(out, " ")

	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
