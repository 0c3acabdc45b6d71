package watcher

// classifier decides which relative paths are watched and which are reported.
type classifier struct {
	exclusions []Matcher
}

func newClassifier(exclusions []Matcher) classifier {
	kept := make([]Matcher, 0, len(exclusions))
	for _, m := range exclusions {
		if m != nil {
			kept = append(kept, m)
		}
	}
	return classifier{exclusions: kept}
}

func (c classifier) excluded(path string) bool {
	for _, m := range c.exclusions {
		if m.Match(path) {
			return true
		}
	}
	return false
}

// isWatchable applies to directories before registration. The root is always watchable.
func (c classifier) isWatchable(path string) bool {
	if path == "" {
		return true
	}
	return !c.excluded(path)
}

// isNotifiable applies to every entry right before a callback fires.
func (c classifier) isNotifiable(path string) bool {
	return !c.excluded(path)
}
