package server

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"stock-historian/src/models"
)

// -----------------------------------------------------------------------------
// SessionRegistry
// -----------------------------------------------------------------------------

// PendingTable is a fetched-but-unsaved history table held between the
// "Get Data" and "Save Data" clicks of one browser session.
type PendingTable struct {
	Symbol  string
	Records []models.MPriceRecord
}

// SessionRegistry keys pending tables by session id (browser cookie). It
// replaces a single global slot so concurrent browser sessions cannot save
// each other's fetches.
type SessionRegistry struct {
	mu      sync.RWMutex
	pending map[string]*PendingTable
}

// -----------------------------------------------------------------------------

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		pending: make(map[string]*PendingTable),
	}
}

// -----------------------------------------------------------------------------

// Put stores the last fetch for a session, replacing any previous one.
func (r *SessionRegistry) Put(sessionID, symbol string, records []models.MPriceRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[sessionID] = &PendingTable{Symbol: symbol, Records: records}
}

// -----------------------------------------------------------------------------

// Get returns the pending table for a session, or nil if none is held.
func (r *SessionRegistry) Get(sessionID string) *PendingTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending[sessionID]
}

// -----------------------------------------------------------------------------

// Clear drops the pending table after a successful save, so a second save
// click cannot double-insert the same batch.
func (r *SessionRegistry) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, sessionID)
}

// -----------------------------------------------------------------------------

// NewSessionID returns a random 128-bit hex id for the session cookie.
func NewSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "fallback-session"
	}
	return hex.EncodeToString(buf)
}
