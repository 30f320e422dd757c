package scene

import (
	"strings"

	"github.com/signalsfoundry/rf-heatmap/model"
)

// LegacyTowerToken is the name fragment older scenes use to mark towers.
const LegacyTowerToken = "Tower"

// Matcher decides whether a scene object is an RF emitter.
type Matcher interface {
	Match(obj model.SceneObject) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(obj model.SceneObject) bool

// Match calls f(obj).
func (f MatcherFunc) Match(obj model.SceneObject) bool { return f(obj) }

// TagMatcher matches objects carrying the given tag.
func TagMatcher(tag string) Matcher {
	return MatcherFunc(func(obj model.SceneObject) bool { return obj.HasTag(tag) })
}

// NameTokenMatcher matches objects whose name contains token.
func NameTokenMatcher(token string) Matcher {
	return MatcherFunc(func(obj model.SceneObject) bool {
		return token != "" && strings.Contains(obj.Name, token)
	})
}

// AnyMatcher matches when at least one of ms does.
func AnyMatcher(ms ...Matcher) Matcher {
	return MatcherFunc(func(obj model.SceneObject) bool {
		for _, m := range ms {
			if m != nil && m.Match(obj) {
				return true
			}
		}
		return false
	})
}

// DefaultMatcher accepts explicitly tagged towers and, for older scenes,
// any object whose name contains "Tower".
func DefaultMatcher() Matcher {
	return AnyMatcher(TagMatcher(model.TowerTag), NameTokenMatcher(LegacyTowerToken))
}
