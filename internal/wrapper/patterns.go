package wrapper

import (
	"regexp"
	"sync"
)

// patternCache memoizes compiled attribute patterns, bounded at 512 entries.
type patternCache struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func newPatternCache() *patternCache {
	return &patternCache{patterns: make(map[string]*regexp.Regexp)}
}

func (c *patternCache) get(expr string) *regexp.Regexp {
	c.mu.RLock()
	re, ok := c.patterns[expr]
	c.mu.RUnlock()
	if ok {
		return re
	}

	re = regexp.MustCompile(expr)
	c.mu.Lock()
	if len(c.patterns) > 512 {
		c.patterns = make(map[string]*regexp.Regexp)
	}
	c.patterns[expr] = re
	c.mu.Unlock()
	return re
}
