package plan

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record wraps a persisted Plan with the bookkeeping fields the Cosmos-
// backed collaborator also carries, per the original storage layer: a
// created-at timestamp and a status string.
type Record struct {
	ID        string
	UserID    string
	Plan      *Plan
	CreatedAt time.Time
	Status    string
}

// Store is the Plan store collaborator contract: Save, GetByInstruction,
// SaveRevision, safe for concurrent callers.
type Store interface {
	Save(userID string, p *Plan) (string, error)
	GetByInstruction(instructionID string) (*Record, error)
	SaveRevision(planID, critique string, revised *Plan) (string, error)
}

// MemoryStore is the reference, in-memory implementation of Store: the
// fallback branch of the original storage layer when no Cosmos-backed
// collaborator is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Record
	byInstr map[string]string // instruction_id -> plan_id (latest)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Record),
		byInstr: make(map[string]string),
	}
}

// Save persists a new plan under a fresh id.
func (s *MemoryStore) Save(userID string, p *Plan) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.byID[id] = &Record{
		ID:        id,
		UserID:    userID,
		Plan:      p,
		CreatedAt: time.Now().UTC(),
		Status:    "active",
	}
	if p.InstructionID != "" {
		s.byInstr[p.InstructionID] = id
	}
	return id, nil
}

// GetByInstruction returns the latest plan generated for an instruction, or
// nil if none exists.
func (s *MemoryStore) GetByInstruction(instructionID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byInstr[instructionID]
	if !ok {
		return nil, nil
	}
	rec, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

// SaveRevision persists a revised plan as a new record, chaining it to its
// immediate parent. revised_from always names that immediate parent's id
// (never the chain root), and revision_reason carries only this critique;
// the full chain is reconstructed by following revised_from links.
func (s *MemoryStore) SaveRevision(planID, critique string, revised *Plan) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.byID[planID]
	if !ok {
		return "", fmt.Errorf("plan store: parent plan %q does not exist", planID)
	}

	revised.RevisedFrom = planID
	revised.RevisionReason = critique
	if revised.InstructionID == "" {
		revised.InstructionID = parent.Plan.InstructionID
	}
	if revised.InstructionName == "" {
		revised.InstructionName = parent.Plan.InstructionName
	}

	newID := uuid.NewString()
	s.byID[newID] = &Record{
		ID:        newID,
		UserID:    parent.UserID,
		Plan:      revised,
		CreatedAt: time.Now().UTC(),
		Status:    "active",
	}
	if revised.InstructionID != "" {
		s.byInstr[revised.InstructionID] = newID
	}
	return newID, nil
}

// Seed inserts a record directly under the given id. Callers that already
// hold a plan id from external storage (the CLI's persisted apps, for
// instance) use this to prime a fresh MemoryStore so that id can serve as
// the parent of a SaveRevision call.
func (s *MemoryStore) Seed(id, userID string, p *Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[id] = &Record{
		ID:        id,
		UserID:    userID,
		Plan:      p,
		CreatedAt: time.Now().UTC(),
		Status:    "active",
	}
	if p.InstructionID != "" {
		s.byInstr[p.InstructionID] = id
	}
}

var _ Store = (*MemoryStore)(nil)
