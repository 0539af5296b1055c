package app

import (
	"sync"

	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
)

// EditSessions tracks who is inside the edit surface of each post.
// Entries are keyed by connection id, so the same identity editing in two
// tabs appears twice. A session record exists only while it has editors.
type EditSessions struct {
	mu    sync.RWMutex
	byDoc map[string]map[core.ConnID]domain.Presence
}

func NewEditSessions() *EditSessions {
	return &EditSessions{byDoc: make(map[string]map[core.ConnID]domain.Presence)}
}

// Join records the connection as an editor of the post and returns the
// roster of everyone else already there. fresh is false when the
// connection was already tracked, in which case nothing is inserted.
func (e *EditSessions) Join(postID string, cid core.ConnID, p domain.Presence) (fresh bool, roster []domain.Presence) {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc, ok := e.byDoc[postID]
	if !ok {
		doc = make(map[core.ConnID]domain.Presence)
		e.byDoc[postID] = doc
	}
	_, exists := doc[cid]
	if !exists {
		doc[cid] = p
	}
	roster = make([]domain.Presence, 0, len(doc)-1)
	for id, other := range doc {
		if id == cid {
			continue
		}
		roster = append(roster, other)
	}
	return !exists, roster
}

// Leave removes the connection's roster entry and returns the snapshot it
// held. The per-post record is dropped when the last editor leaves.
func (e *EditSessions) Leave(postID string, cid core.ConnID) (domain.Presence, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc, ok := e.byDoc[postID]
	if !ok {
		return domain.Presence{}, false
	}
	p, ok := doc[cid]
	if !ok {
		return domain.Presence{}, false
	}
	delete(doc, cid)
	if len(doc) == 0 {
		delete(e.byDoc, postID)
	}
	return p, true
}

func (e *EditSessions) Has(postID string, cid core.ConnID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.byDoc[postID][cid]
	return ok
}

// Editors reports the roster size for the post.
func (e *EditSessions) Editors(postID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.byDoc[postID])
}

// Active reports the number of posts with a live edit session.
func (e *EditSessions) Active() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.byDoc)
}
