package snapshot

import (
	"sync"
	"time"

	"meshmon/internal/model"
)

// Topology is the latest committed neighbor view.
type Topology struct {
	Timestamp time.Time
	Neighbors []model.NeighborRecord
}

// Predictions is the latest committed classifier view.
type Predictions struct {
	Timestamp   time.Time
	Predictions []model.Prediction
}

// Store holds the latest topology and predictions. It is written by the
// monitor loop only and read concurrently by the API layer; each half is
// replaced wholesale so readers never observe a partial update. The lock is
// held only across the swap or the copy-out, never across I/O.
type Store struct {
	mu          sync.RWMutex
	topology    Topology
	hasTopology bool
	preds       Predictions
	hasPreds    bool
}

func New() *Store {
	return &Store{}
}

// ReplaceNeighbors commits a new topology snapshot.
func (s *Store) ReplaceNeighbors(ts time.Time, neighbors []model.NeighborRecord) {
	copied := make([]model.NeighborRecord, len(neighbors))
	copy(copied, neighbors)

	s.mu.Lock()
	s.topology = Topology{Timestamp: ts, Neighbors: copied}
	s.hasTopology = true
	s.mu.Unlock()
}

// ReplacePredictions commits a new predictions snapshot.
func (s *Store) ReplacePredictions(ts time.Time, preds []model.Prediction) {
	copied := make([]model.Prediction, len(preds))
	copy(copied, preds)

	s.mu.Lock()
	s.preds = Predictions{Timestamp: ts, Predictions: copied}
	s.hasPreds = true
	s.mu.Unlock()
}

// Neighbors returns the latest topology; ok is false before the first
// successful poll tick.
func (s *Store) Neighbors() (Topology, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topology, s.hasTopology
}

// Predictions returns the latest predictions; ok is false before the first
// predict tick.
func (s *Store) Predictions() (Predictions, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preds, s.hasPreds
}
