package scene

import (
	"log/slog"
	"slices"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/typeid"
)

// DefaultHistoryLimit bounds the number of undo snapshots kept.
const DefaultHistoryLimit = 100

// Listener is notified after every dispatch that changed the document.
type Listener func(doc *document.Document, a Action)

// Store owns the active document. All mutations go through Dispatch. A Store
// is not safe for concurrent use; callers that share one must serialize access.
type Store struct {
	doc       *document.Document
	undo      []*document.Document
	redo      []*document.Document
	limit     int
	logger    *slog.Logger
	listeners map[int]Listener
	nextSub   int

	// batch is the document before an open batch, nil outside one.
	batch      *document.Document
	batchDepth int
}

type Option func(*Store)

// WithLogger reports ignored actions at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithHistoryLimit sets the undo depth. Zero disables undo.
func WithHistoryLimit(n int) Option {
	return func(s *Store) { s.limit = max(n, 0) }
}

func NewStore(doc *document.Document, opts ...Option) *Store {
	if doc == nil {
		doc = document.NewDocument("", "")
	}
	doc = doc.Clone()
	doc.Reindex()
	s := &Store{
		doc:       doc,
		limit:     DefaultHistoryLimit,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current document. It must not be modified.
func (s *Store) State() *document.Document {
	return s.doc
}

// Load replaces the document and clears the undo history.
func (s *Store) Load(doc *document.Document) {
	s.undo, s.redo = nil, nil
	s.batch, s.batchDepth = nil, 0
	s.commit(Reduce(s.doc, SetState{Partial: Replace(doc)}), SetState{})
}

// Dispatch applies a and returns the new document. Connections and groups
// added without an id are assigned one here so Reduce stays deterministic.
// It reports whether the document changed.
func (s *Store) Dispatch(a Action) (*document.Document, bool) {
	a = assignIDs(a)
	next := Reduce(s.doc, a)
	if next == s.doc {
		if s.logger != nil {
			s.logger.Debug("scene action ignored", "type", a.Type())
		}
		return s.doc, false
	}
	if Undoable(a) && s.batchDepth == 0 {
		s.record(s.doc)
	}
	s.commit(next, a)
	return next, true
}

func (s *Store) record(prev *document.Document) {
	if s.limit == 0 {
		return
	}
	s.undo = append(s.undo, prev)
	if len(s.undo) > s.limit {
		s.undo = s.undo[len(s.undo)-s.limit:]
	}
	s.redo = nil
}

// BeginBatch starts coalescing dispatches into a single undo entry, used
// for drags and resizes. Batches nest; only the outermost EndBatch records.
func (s *Store) BeginBatch() {
	if s.batchDepth == 0 {
		s.batch = s.doc
	}
	s.batchDepth++
}

// EndBatch closes a batch. It records one undo entry when the shapes,
// connections or groups changed since the matching BeginBatch.
func (s *Store) EndBatch() {
	if s.batchDepth == 0 {
		return
	}
	s.batchDepth--
	if s.batchDepth > 0 {
		return
	}
	start := s.batch
	s.batch = nil
	if start != s.doc && !sameContent(start, s.doc) {
		s.record(start)
	}
}

// InBatch reports whether a batch is open.
func (s *Store) InBatch() bool { return s.batchDepth > 0 }

// sameContent ignores the camera, which is not part of history.
func sameContent(a, b *document.Document) bool {
	bc := *b
	bc.Camera = a.Camera
	return document.Equal(a, &bc)
}

func (s *Store) commit(next *document.Document, a Action) {
	s.doc = next
	for _, l := range s.listeners {
		l(next, a)
	}
}

func (s *Store) CanUndo() bool { return len(s.undo) > 0 }
func (s *Store) CanRedo() bool { return len(s.redo) > 0 }

// Undo restores the previous document. The current camera is kept.
func (s *Store) Undo() bool {
	if len(s.undo) == 0 {
		return false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.doc)
	s.commit(s.keepCamera(prev), Undo{})
	return true
}

// Redo reapplies the last undone change.
func (s *Store) Redo() bool {
	if len(s.redo) == 0 {
		return false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.doc)
	s.commit(s.keepCamera(next), Redo{})
	return true
}

func (s *Store) keepCamera(d *document.Document) *document.Document {
	if d.Camera == s.doc.Camera {
		return d
	}
	out := d.Clone()
	out.Camera = s.doc.Camera
	return out
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	return func() { delete(s.listeners, id) }
}

// Undo and Redo are reported to listeners when history moves.
type Undo struct{}
type Redo struct{}

func (Undo) Type() string { return "history.undo" }
func (Redo) Type() string { return "history.redo" }

func assignIDs(a Action) Action {
	switch v := a.(type) {
	case AddConnection:
		if v.Connection.ID == "" {
			v.Connection.ID = typeid.NewConnectionID()
			return v
		}
	case AddGroup:
		if v.Group.ID == "" {
			v.Group.ID = typeid.NewGroupID()
			return v
		}
	case SetState:
		v.Partial.Connections = withConnectionIDs(v.Partial.Connections)
		v.Partial.Groups = withGroupIDs(v.Partial.Groups)
		return v
	}
	return a
}

// withConnectionIDs fills in missing connection ids on a copy; the caller's
// slice is never modified.
func withConnectionIDs(conns []document.Connection) []document.Connection {
	if !slices.ContainsFunc(conns, func(c document.Connection) bool { return c.ID == "" }) {
		return conns
	}
	out := slices.Clone(conns)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = typeid.NewConnectionID()
		}
	}
	return out
}

func withGroupIDs(groups []document.Group) []document.Group {
	if !slices.ContainsFunc(groups, func(g document.Group) bool { return g.ID == "" }) {
		return groups
	}
	out := slices.Clone(groups)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = typeid.NewGroupID()
		}
	}
	return out
}
