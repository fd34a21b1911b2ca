package governance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/concord/chain"
	"github.com/luxfi/concord/clock"
	"github.com/luxfi/concord/idset"
)

func newTestSession(t *testing.T, quorum, approval float64) (*Session, *clock.Clock) {
	clk := clock.New()
	clk.Set(time.Unix(1000, 0).UTC())

	chn, err := chain.Create("topic-1", chain.SeedMetadata{CreatedBy: "system"}, clk)
	require.NoError(t, err)

	participants := idset.Of("model-a", "model-b", "model-c")
	s := New("minute-1", []string{"BIP-01"}, participants, quorum, approval, 24, chn, clk)
	return s, clk
}

func TestSession_StartTransitionsToActive(t *testing.T) {
	s, _ := newTestSession(t, 0.6, 0.5)
	require.Equal(t, Created, s.Status())

	require.NoError(t, s.Start())
	require.Equal(t, Active, s.Status())
	require.False(t, s.EndTime().IsZero())
}

func TestSession_SubmitVoteRejectsNonParticipant(t *testing.T) {
	s, _ := newTestSession(t, 0.6, 0.5)
	require.NoError(t, s.Start())

	_, err := s.SubmitVote("model-x", []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 8}})
	require.ErrorIs(t, err, ErrUnknownVoter)
}

func TestSession_SubmitVoteRejectsDuplicate(t *testing.T) {
	s, _ := newTestSession(t, 0.6, 0.5)
	require.NoError(t, s.Start())

	_, err := s.SubmitVote("model-a", []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 8}})
	require.NoError(t, err)

	_, err = s.SubmitVote("model-a", []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 3}})
	require.ErrorIs(t, err, ErrDuplicateVote)
}

func TestSession_SubmitVoteRejectsDuplicateProposalInOneSubmission(t *testing.T) {
	s, _ := newTestSession(t, 0.6, 0.5)
	require.NoError(t, s.Start())

	_, err := s.SubmitVote("model-a", []chain.ProposalVote{
		{ProposalID: "BIP-01", Weight: 8},
		{ProposalID: "BIP-01", Weight: 2},
	})
	require.ErrorIs(t, err, ErrDuplicateProposal)
}

func TestSession_SubmitVoteRejectsAfterDeadline(t *testing.T) {
	s, clk := newTestSession(t, 0.6, 0.5)
	require.NoError(t, s.Start())

	clk.Advance(25 * time.Hour)
	_, err := s.SubmitVote("model-a", []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 8}})
	require.ErrorIs(t, err, ErrDeadlineExceeded)
	require.Equal(t, Expired, s.Status())
}

func TestSession_CompletesWhenAllParticipantsVote(t *testing.T) {
	s, _ := newTestSession(t, 0.6, 0.5)
	require.NoError(t, s.Start())

	for _, voter := range []string{"model-a", "model-b", "model-c"} {
		_, err := s.SubmitVote(voter, []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 8}})
		require.NoError(t, err)
	}

	require.Equal(t, Complete, s.Status())
}

func TestSession_FinalizeIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t, 0.6, 0.5)
	require.NoError(t, s.Start())
	for _, voter := range []string{"model-a", "model-b", "model-c"} {
		_, err := s.SubmitVote(voter, []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 8}})
		require.NoError(t, err)
	}

	first, err := s.Finalize("reporter")
	require.NoError(t, err)
	require.Equal(t, Finalized, s.Status())

	second, err := s.Finalize("reporter")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSession_FinalizeBeforeCompleteFails(t *testing.T) {
	s, _ := newTestSession(t, 0.6, 0.5)
	require.NoError(t, s.Start())

	_, err := s.Finalize("reporter")
	require.ErrorIs(t, err, ErrNotReadyToFinalize)
}

func TestSession_VetoForcesRejection(t *testing.T) {
	s, _ := newTestSession(t, 0.1, 0.1)
	require.NoError(t, s.Start())

	_, err := s.SubmitVote("model-a", []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 10}})
	require.NoError(t, err)
	_, err = s.SubmitVote("model-b", []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 10, Veto: true}})
	require.NoError(t, err)
	_, err = s.SubmitVote("model-c", []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 10}})
	require.NoError(t, err)

	results, err := s.Finalize("reporter")
	require.NoError(t, err)
	require.Equal(t, "Rejected", results[0].Status)
}

func TestSession_RecordDraftAppendsDraftBlock(t *testing.T) {
	s, _ := newTestSession(t, 0.6, 0.5)

	block, err := s.RecordDraft(DraftProposal{
		ProposalID:    "BIP-01",
		Title:         "Adopt resilient fallback routing",
		FilePaths:     []string{"BIP-01.md"},
		AuthorModelID: "claude-4-sonnet",
	})
	require.NoError(t, err)
	require.Equal(t, chain.TypeDraft, block.Type)
	require.Equal(t, "claude-4-sonnet", block.ModelID)

	data, ok := block.Data.(chain.DraftData)
	require.True(t, ok)
	require.Equal(t, "Adopt resilient fallback routing", data.Title)
	require.Equal(t, []string{"BIP-01.md"}, data.FilePaths)
}

func TestSession_RecordDraftRejectedAfterStart(t *testing.T) {
	s, _ := newTestSession(t, 0.6, 0.5)
	require.NoError(t, s.Start())

	_, err := s.RecordDraft(DraftProposal{ProposalID: "BIP-01", AuthorModelID: "model-a"})
	require.Error(t, err)
}

func TestSession_MissingVoters(t *testing.T) {
	s, _ := newTestSession(t, 0.6, 0.5)
	require.NoError(t, s.Start())
	_, err := s.SubmitVote("model-a", []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 8}})
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"model-b", "model-c"}, s.MissingVoters())
}
