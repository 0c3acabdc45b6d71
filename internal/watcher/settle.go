package watcher

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// settleLimit caps how long a change may be held, as a multiple of the quiet period.
const settleLimit = 20

type pendingKind int

const (
	pendingCreate pendingKind = iota + 1
	pendingUpdate
	pendingDelete
)

type pendingChange struct {
	kind  pendingKind
	first time.Time
	last  time.Time
}

type pendingItem struct {
	path string
	kind pendingKind
}

// settleQueue holds file changes until their path has been quiet for a while,
// so a burst of writes yields one notification. Deletes also wait until no
// delete at all has arrived for the quiet period, which lets a removed
// directory be found gone before its contents are reported.
//
// Only the event loop touches it.
type settleQueue struct {
	quiet      time.Duration
	entries    map[string]*pendingChange
	lastDelete time.Time
}

func newSettleQueue(quiet time.Duration) *settleQueue {
	return &settleQueue{
		quiet:   quiet,
		entries: make(map[string]*pendingChange),
	}
}

// schedule records a change to path at now. A pending create absorbs later
// updates; any other kind replaces what was pending.
func (q *settleQueue) schedule(path string, kind pendingKind, now time.Time) {
	entry, ok := q.entries[path]
	if !ok {
		entry = &pendingChange{kind: kind, first: now}
		q.entries[path] = entry
	} else if !(entry.kind == pendingCreate && kind == pendingUpdate) {
		entry.kind = kind
	}
	entry.last = now
	if kind == pendingDelete {
		q.lastDelete = now
	}
}

func (q *settleQueue) get(path string) (pendingKind, bool) {
	entry, ok := q.entries[path]
	if !ok {
		return 0, false
	}
	return entry.kind, true
}

func (q *settleQueue) remove(path string) {
	delete(q.entries, path)
}

func (q *settleQueue) len() int {
	return len(q.entries)
}

func (q *settleQueue) deadline(entry *pendingChange) time.Time {
	due := entry.last.Add(q.quiet)
	if entry.kind == pendingDelete {
		if quietAll := q.lastDelete.Add(q.quiet); quietAll.After(due) {
			due = quietAll
		}
	}
	if limit := entry.first.Add(settleLimit * q.quiet); limit.Before(due) {
		due = limit
	}
	return due
}

// next returns the earliest deadline of anything pending.
func (q *settleQueue) next() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, entry := range q.entries {
		due := q.deadline(entry)
		if !found || due.Before(earliest) {
			earliest = due
			found = true
		}
	}
	return earliest, found
}

// popDue removes and returns, sorted by path, every change whose deadline has passed.
func (q *settleQueue) popDue(now time.Time) []pendingItem {
	var items []pendingItem
	for path, entry := range q.entries {
		if !now.Before(q.deadline(entry)) {
			items = append(items, pendingItem{path: path, kind: entry.kind})
		}
	}
	return q.take(items)
}

// popUnder removes and returns, sorted by path, every change strictly beneath dir.
func (q *settleQueue) popUnder(dir string) []pendingItem {
	prefix := dir + string(filepath.Separator)
	var items []pendingItem
	for path, entry := range q.entries {
		if strings.HasPrefix(path, prefix) {
			items = append(items, pendingItem{path: path, kind: entry.kind})
		}
	}
	return q.take(items)
}

// drain removes and returns everything pending, sorted by path.
func (q *settleQueue) drain() []pendingItem {
	items := make([]pendingItem, 0, len(q.entries))
	for path, entry := range q.entries {
		items = append(items, pendingItem{path: path, kind: entry.kind})
	}
	return q.take(items)
}

func (q *settleQueue) take(items []pendingItem) []pendingItem {
	sort.Slice(items, func(i, j int) bool { return items[i].path < items[j].path })
	for _, item := range items {
		delete(q.entries, item.path)
	}
	return items
}
