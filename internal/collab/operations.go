package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/scene"
	"github.com/sysdraw/sysdraw/backend-go/internal/typeid"
)

// ErrLocalAction rejects actions that only make sense for one viewer.
var ErrLocalAction = errors.New("camera actions are not shared")

// DocumentState holds the authoritative document for a room.
type DocumentState struct {
	mu        sync.Mutex
	store     *scene.Store
	serverSeq int64
	savedSeq  int64

	// applied is the last action the store committed, with ids assigned.
	applied scene.Action
}

func NewDocumentState(doc *document.Document) *DocumentState {
	ds := &DocumentState{
		store: scene.NewStore(doc, scene.WithHistoryLimit(0)),
	}
	ds.store.Subscribe(func(_ *document.Document, a scene.Action) {
		ds.applied = a
	})
	return ds
}

// Document returns the current document. It must not be modified.
func (ds *DocumentState) Document() *document.Document {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.store.State()
}

// Snapshot returns the document and the sequence number it reflects.
func (ds *DocumentState) Snapshot() (*document.Document, int64) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.store.State(), ds.serverSeq
}

// SyncPayload encodes the current document for a doc.sync message.
func (ds *DocumentState) SyncPayload() (json.RawMessage, error) {
	doc, seq := ds.Snapshot()
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return json.Marshal(DocSyncPayload{Document: data, ServerSeq: seq})
}

// Apply decodes and dispatches op. It returns the operation as applied and
// the resulting sequence number, with an op id assigned when the client
// sent none. An action that leaves the document
// unchanged is not an error; applied is false and the sequence stays put.
func (ds *DocumentState) Apply(op Operation) (out Operation, seq int64, applied bool, err error) {
	a, err := scene.Decode(op.Type, op.Action)
	if err != nil {
		return op, 0, false, err
	}
	switch a.(type) {
	case scene.SetCamera, scene.SetZoom:
		return op, 0, false, ErrLocalAction
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.applied = nil
	if _, changed := ds.store.Dispatch(a); !changed {
		return op, ds.serverSeq, false, nil
	}

	if ds.applied != nil {
		typ, payload, err := scene.Encode(ds.applied)
		if err == nil {
			op.Type, op.Action = typ, payload
		}
	}
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}
	ds.serverSeq++
	return op, ds.serverSeq, true, nil
}

// Dirty reports whether there are changes since the last MarkSaved.
func (ds *DocumentState) Dirty() bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.serverSeq != ds.savedSeq
}

// MarkSaved records that the snapshot at seq was persisted.
func (ds *DocumentState) MarkSaved(seq int64) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if seq > ds.savedSeq {
		ds.savedSeq = seq
	}
}
