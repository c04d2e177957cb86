// Package robots parses robots.txt documents and enforces per-origin
// access and crawl-delay rules. The parser and precedence algorithm are
// deliberately hand-rolled (not github.com/temoto/robotstxt, the
// teacher's dependency for this — see DESIGN.md) because spec.md §4.2
// fixes an exact longest-prefix tie-break algorithm that a general robots
// parser library doesn't guarantee to reproduce.
package robots

import (
	"strconv"
	"strings"
)

// Rules is the parsed allow/disallow state for one origin, grounded in
// original_source/app/robots_manager.py's RobotsRules dataclass.
type Rules struct {
	Allows     []string
	Disallows  []string
	CrawlDelay float64 // seconds; 0 means absent
}

// IsAllowed applies spec.md §4.2's precedence rule: the longest matching
// prefix wins; disallow wins ties against a shorter allow but a tie at
// equal length allows, and "no match" (-1) on either side defers to the
// other.
func (r Rules) IsAllowed(path string) bool {
	allowLen := longestPrefix(path, r.Allows)
	disallowLen := longestPrefix(path, r.Disallows)

	if disallowLen == -1 {
		return true
	}
	if allowLen == -1 {
		return false
	}
	if allowLen > disallowLen {
		return true
	}
	if allowLen < disallowLen {
		return false
	}
	return true
}

func longestPrefix(path string, patterns []string) int {
	best := -1
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.HasPrefix(path, p) && len(p) > best {
			best = len(p)
		}
	}
	return best
}

// Parse implements the permissive line parser of spec.md §4.2: split on
// newlines, strip "#" comments, ignore lines with no colon, group
// consecutive user-agent lines into one agent group, apply subsequent
// allow/disallow/crawl-delay lines to every agent in the current group.
// After parsing, select the group matching userAgent case-insensitively,
// else "*", else empty (allow-all) rules.
func Parse(content, userAgent string) Rules {
	groups := map[string]*Rules{}
	var currentAgents []string
	lastKey := ""

	ensure := func(agent string) *Rules {
		if g, ok := groups[agent]; ok {
			return g
		}
		g := &Rules{}
		groups[agent] = g
		return g
	}

	for _, rawLine := range strings.Split(content, "\n") {
		line := rawLine
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sep := strings.IndexByte(line, ':')
		if sep < 0 {
			continue
		}
		key := strings.TrimSpace(line[:sep])
		value := strings.TrimSpace(line[sep+1:])
		keyLower := strings.ToLower(key)

		switch keyLower {
		case "user-agent":
			if lastKey == "user-agent" {
				currentAgents = append(currentAgents, value)
			} else {
				currentAgents = []string{value}
			}
			ensure(value)
		case "allow", "disallow":
			if len(currentAgents) == 0 {
				continue
			}
			for _, agent := range currentAgents {
				g := ensure(agent)
				if value == "" {
					continue
				}
				if keyLower == "allow" {
					g.Allows = append(g.Allows, value)
				} else {
					g.Disallows = append(g.Disallows, value)
				}
			}
		case "crawl-delay":
			if len(currentAgents) == 0 {
				continue
			}
			delay, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			for _, agent := range currentAgents {
				ensure(agent).CrawlDelay = delay
			}
		}
		lastKey = keyLower
	}

	userAgentLower := strings.ToLower(userAgent)
	for agent, rules := range groups {
		if strings.ToLower(agent) == userAgentLower {
			return *rules
		}
	}
	if g, ok := groups["*"]; ok {
		return *g
	}
	return Rules{}
}
