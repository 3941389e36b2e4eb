package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveAndGetByInstruction(t *testing.T) {
	s := NewMemoryStore()
	p := &Plan{PlanName: "demo", GraphType: GraphAcyclic, InstructionID: "i1"}

	id, err := s.Save("u1", p)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.GetByInstruction("i1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, id, rec.ID)
	require.Equal(t, "u1", rec.UserID)
}

func TestGetByInstructionUnknownReturnsNil(t *testing.T) {
	s := NewMemoryStore()
	rec, err := s.GetByInstruction("missing")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestSaveRevisionChainsToImmediateParent(t *testing.T) {
	s := NewMemoryStore()
	p1 := &Plan{PlanName: "v1", GraphType: GraphAcyclic, InstructionID: "i1"}
	id1, err := s.Save("u1", p1)
	require.NoError(t, err)

	p2 := &Plan{PlanName: "v2", GraphType: GraphAcyclic}
	id2, err := s.SaveRevision(id1, "make it shorter", p2)
	require.NoError(t, err)
	require.Equal(t, id1, p2.RevisedFrom)
	require.Equal(t, "make it shorter", p2.RevisionReason)
	require.Equal(t, "i1", p2.InstructionID)

	// The chain root's link is reconstructed by following revised_from,
	// not by accumulating reasons onto the grandchild.
	p3 := &Plan{PlanName: "v3", GraphType: GraphAcyclic}
	id3, err := s.SaveRevision(id2, "also fix tone", p3)
	require.NoError(t, err)
	require.Equal(t, id2, p3.RevisedFrom)
	require.Equal(t, "also fix tone", p3.RevisionReason)
	require.NotEqual(t, id1, p3.RevisedFrom)

	rec, err := s.GetByInstruction("i1")
	require.NoError(t, err)
	require.Equal(t, id3, rec.ID)
}

func TestSeedAllowsExternalIDToParentARevision(t *testing.T) {
	s := NewMemoryStore()
	existing := &Plan{PlanName: "v1", GraphType: GraphAcyclic}
	s.Seed("app-42", "u1", existing)

	revised := &Plan{PlanName: "v2", GraphType: GraphAcyclic}
	newID, err := s.SaveRevision("app-42", "tighten the trigger", revised)
	require.NoError(t, err)
	require.NotEmpty(t, newID)
	require.Equal(t, "app-42", revised.RevisedFrom)
}

func TestSaveRevisionRejectsUnknownParent(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.SaveRevision("missing", "critique", &Plan{})
	require.Error(t, err)
}
