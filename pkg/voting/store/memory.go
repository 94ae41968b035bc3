// Package store provides proposal storage backends for the voting engine.
package store

import (
	"sort"
	"sync"

	"quorix/pkg/voting"
)

// MemoryStore is an in-memory implementation of voting.ProposalStore. It
// hands out deep copies on every read and write so stored records are only
// ever mutated through Save.
type MemoryStore struct {
	mu        sync.RWMutex
	proposals map[uint64]*voting.Proposal
	nextID    uint64
}

// NewMemoryStore creates an empty memory store. The first allocated id is 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{proposals: make(map[uint64]*voting.Proposal)}
}

// NextID implements voting.ProposalStore.
func (s *MemoryStore) NextID() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	return s.nextID, nil
}

// Save implements voting.ProposalStore.
func (s *MemoryStore) Save(proposal *voting.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.proposals[proposal.ID] = proposal.Clone()
	return nil
}

// Get implements voting.ProposalStore. It returns nil when the id is unknown.
func (s *MemoryStore) Get(id uint64) (*voting.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if proposal, exists := s.proposals[id]; exists {
		return proposal.Clone(), nil
	}
	return nil, nil
}

// List implements voting.ProposalStore.
func (s *MemoryStore) List() ([]*voting.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	proposals := make([]*voting.Proposal, 0, len(s.proposals))
	for _, proposal := range s.proposals {
		proposals = append(proposals, proposal.Clone())
	}
	sort.Slice(proposals, func(i, j int) bool { return proposals[i].ID < proposals[j].ID })
	return proposals, nil
}
