package bus

import (
	"regexp"
	"strings"
)

// compiledPattern is the pre-compiled form of a subscription's event-type
// pattern: literal patterns take the
// fast map path, patterns containing "*" segments are compiled once into a
// regexp and take the slow path.
type compiledPattern struct {
	literal string
	re      *regexp.Regexp
}

func compilePattern(pattern string) compiledPattern {
	if !strings.Contains(pattern, "*") {
		return compiledPattern{literal: pattern}
	}
	// Dots are literal separators; "*" segments behave as ".*" over the
	// entire type string.
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, `.*`)
	return compiledPattern{re: regexp.MustCompile("^" + escaped + "$")}
}

func (p compiledPattern) matches(eventType string) bool {
	if p.re != nil {
		return p.re.MatchString(eventType)
	}
	return p.literal == eventType
}
