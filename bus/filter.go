package bus

import (
	"strings"

	"github.com/lightning-os/runtime/event"
	"github.com/lightning-os/runtime/provider"
)

// matchesFilter requires every key in the filter to evaluate true
// (logical AND); an unreachable path or missing key means the filter fails.
// Wildcards in values are not supported — equality only (Open Question 4).
func matchesFilter(f provider.Filter, e *event.Event) bool {
	for key, want := range f {
		if !matchesOne(key, want, e) {
			return false
		}
	}
	return true
}

func matchesOne(key string, want any, e *event.Event) bool {
	switch {
	case strings.HasPrefix(key, "data."):
		return walkPath(e.Data, strings.Split(key[len("data."):], ".")) == want
	case strings.HasPrefix(key, "metadata."):
		got, ok := e.Metadata[key[len("metadata."):]]
		return ok && got == want
	default:
		return attribute(e, key) == want
	}
}

func walkPath(m map[string]any, segments []string) any {
	var cur any = m
	for _, seg := range segments {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return missing{}
		}
		v, ok := asMap[seg]
		if !ok {
			return missing{}
		}
		cur = v
	}
	return cur
}

// missing is a sentinel distinct from any JSON value so a present-but-nil
// path never accidentally equals a filter's literal nil.
type missing struct{}

func attribute(e *event.Event, name string) any {
	switch name {
	case "id":
		return e.ID
	case "event_type", "type":
		return e.Type
	case "correlation_id":
		return e.CorrelationID
	case "reply_to":
		return e.ReplyTo
	case "priority":
		return string(e.Priority)
	default:
		return missing{}
	}
}
