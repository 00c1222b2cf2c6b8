package model

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// agentRefKeys are the requirement keys accepted for a single agent reference, in priority order.
var agentRefKeys = []string{"agent_id", "agentId", "target_agent_id", "target", "agent"}

// agentListKeys are the requirement keys accepted for a list of agent references.
var agentListKeys = []string{"agent_ids", "agentIds", "agents"}

var listSeparator = regexp.MustCompile(`[,;\s]+`)

// Requirements is the free-form job input supplied by a buyer.
type Requirements map[string]any

// JobContext carries optional runtime data about the job being executed.
type JobContext struct {
	ClientAddress string `json:"clientAddress,omitempty"`
	JobID         string `json:"jobId,omitempty"`
}

// AgentRef returns the first non-empty agent reference.
// present reports whether any reference key holds a value at all, and valid
// reports whether that value is a string or a number.
func (r Requirements) AgentRef() (ref string, present bool, valid bool) {
	return r.first(agentRefKeys)
}

// AgentRefs returns the references of a multi-agent request. A JSON list is
// read item by item; a string is split on commas, semicolons and whitespace.
// Duplicates are dropped, order is kept.
func (r Requirements) AgentRefs() (refs []string, present bool) {
	for _, k := range agentListKeys {
		v, ok := r[k]
		if !ok || isEmpty(v) {
			continue
		}
		var parts []string
		if items, isList := v.([]any); isList {
			for _, item := range items {
				if s, valid := formatScalar(item); valid {
					parts = append(parts, s)
				}
			}
		} else {
			s, _ := formatScalar(v)
			parts = listSeparator.Split(s, -1)
		}
		return dedupe(parts), true
	}
	return nil, false
}

func dedupe(parts []string) []string {
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// String returns the string value stored at key, or "".
func (r Requirements) String(key string) string {
	s, ok := formatScalar(r[key])
	if !ok {
		return ""
	}
	return s
}

func (r Requirements) first(keys []string) (string, bool, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || isEmpty(v) {
			continue
		}
		s, valid := formatScalar(v)
		return strings.TrimSpace(s), true, valid
	}
	return "", false, true
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	}
	return false
}

func formatScalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return formatScalar(float64(t))
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case fmt.Stringer:
		return t.String(), true
	}
	return fmt.Sprint(v), false
}
