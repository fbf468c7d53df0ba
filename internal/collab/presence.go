package collab

import (
	"encoding/json"
	"log/slog"
	"maps"
	"sync"
)

// PresenceManager tracks cursor and selection per connected client.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(clientID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[clientID] = p
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.presences)
}

// Prune drops selection entries that are no longer shapes, connections or
// groups of doc.
func (pm *PresenceManager) Prune(exists func(id string) bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for id, p := range pm.presences {
		kept := p.Selection[:0:0]
		for _, s := range p.Selection {
			if exists(s) {
				kept = append(kept, s)
			}
		}
		if len(kept) != len(p.Selection) {
			next := *p
			next.Selection = kept
			pm.presences[id] = &next
		}
	}
}

func (pm *PresenceManager) StateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
