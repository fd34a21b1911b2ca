// Package governance implements C9 (the vote session state machine),
// C10 (the notification sink interface), and C11 (the reminder
// scheduler). Every state-changing action on a session is recorded as a
// block appended to its chain; the session never mutates chain history,
// only appends to it.
package governance

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/concord/chain"
	"github.com/luxfi/concord/clock"
	"github.com/luxfi/concord/idset"
)

// Status is a VotingSession's lifecycle state, per spec.md §3/§4.9.
type Status string

const (
	Created   Status = "created"
	Active    Status = "active"
	Complete  Status = "complete"
	Expired   Status = "expired"
	Finalized Status = "finalized"
	Cancelled Status = "cancelled"
)

var (
	ErrNotActive          = errors.New("governance: session is not active")
	ErrUnknownVoter       = errors.New("governance: modelId is not a participant")
	ErrDuplicateVote      = errors.New("governance: modelId has already voted")
	ErrDeadlineExceeded   = errors.New("governance: vote submitted after endTime")
	ErrNotReadyToFinalize = errors.New("governance: session is not Complete or Expired")
	ErrDuplicateProposal  = errors.New("governance: duplicate proposalId in one submission")
)

// Session is C9: the state machine governing one topic's vote lifecycle.
// Its chain is the durable record of every transition.
type Session struct {
	MinuteID          string
	ProposalIDs       []string
	Participants      idset.Set[string]
	QuorumThreshold   float64
	ApprovalThreshold float64
	DurationHours     float64

	clock *clock.Clock

	mu        sync.Mutex
	status    Status
	startTime time.Time
	endTime   time.Time
	chain     *chain.Chain
	votesBy   map[string][]chain.ProposalVote
	results   []chain.ProposalResult
}

// New constructs a Session in the Created state, wrapping chn (already
// created via chain.Create for this topic).
func New(minuteID string, proposalIDs []string, participants idset.Set[string], quorum, approval, durationHours float64, chn *chain.Chain, clk *clock.Clock) *Session {
	return &Session{
		MinuteID:          minuteID,
		ProposalIDs:       proposalIDs,
		Participants:      participants,
		QuorumThreshold:   quorum,
		ApprovalThreshold: approval,
		DurationHours:     durationHours,
		clock:             clk,
		status:            Created,
		chain:             chn,
		votesBy:           make(map[string][]chain.ProposalVote),
	}
}

// Status returns the session's current lifecycle state, auto-expiring it
// first if its deadline has passed while Active.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeExpireLocked()
	return s.status
}

func (s *Session) maybeExpireLocked() {
	if s.status == Active && s.clock.Now().After(s.endTime) {
		s.status = Expired
	}
}

// DraftProposal is the caller-supplied content of a draft block appended
// via RecordDraft.
type DraftProposal struct {
	ProposalID    string
	Title         string
	Summary       string
	FilePaths     []string
	FileHashes    map[string]string
	AuthorModelID string
}

// RecordDraft appends a draft block for a proposal ahead of voting, per
// spec.md §8 scenario S1. Only valid before Start: once voting is Active
// the chain records votes and finalization, not further drafting.
func (s *Session) RecordDraft(draft DraftProposal) (chain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != Created {
		return chain.Block{}, fmt.Errorf("governance: cannot record draft in state %q", s.status)
	}

	return s.chain.Append(chain.PartialBlock{
		Type:       chain.TypeDraft,
		ModelID:    draft.AuthorModelID,
		Action:     "draft-recorded",
		FilePaths:  draft.FilePaths,
		FileHashes: fileHashList(draft.FileHashes, draft.FilePaths),
		Data: chain.DraftData{
			Title:         draft.Title,
			Summary:       draft.Summary,
			FilePaths:     draft.FilePaths,
			FileHashes:    draft.FileHashes,
			AuthorModelID: draft.AuthorModelID,
		},
	})
}

// fileHashList orders fileHashes to match filePaths, for the block's flat
// FileHashes slice (Block.Data carries the keyed map for lookup).
func fileHashList(fileHashes map[string]string, filePaths []string) []string {
	if len(fileHashes) == 0 {
		return nil
	}
	out := make([]string, len(filePaths))
	for i, p := range filePaths {
		out[i] = fileHashes[p]
	}
	return out
}

// Start transitions Created -> Active, recording a start block and
// stamping startTime/endTime, per spec.md §4.9.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != Created {
		return fmt.Errorf("governance: cannot start session in state %q", s.status)
	}

	s.startTime = s.clock.Now()
	s.endTime = s.startTime.Add(time.Duration(s.DurationHours * float64(time.Hour)))
	s.status = Active

	_, err := s.chain.Append(chain.PartialBlock{
		Type:   chain.BlockType("start"),
		Action: "session-start",
		Data: map[string]interface{}{
			"minuteId":  s.MinuteID,
			"startTime": s.startTime,
			"endTime":   s.endTime,
		},
	})
	return err
}

// SubmitVote appends a vote block for modelID if eligible, per spec.md
// §4.9: modelId must be a participant, must not have voted already, and
// now must not be after endTime.
func (s *Session) SubmitVote(modelID string, votes []chain.ProposalVote) (chain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeExpireLocked()
	if s.status == Expired {
		return chain.Block{}, ErrDeadlineExceeded
	}
	if s.status != Active {
		return chain.Block{}, ErrNotActive
	}
	if !s.Participants.Contains(modelID) {
		return chain.Block{}, ErrUnknownVoter
	}
	if _, voted := s.votesBy[modelID]; voted {
		return chain.Block{}, ErrDuplicateVote
	}
	if s.clock.Now().After(s.endTime) {
		s.status = Expired
		return chain.Block{}, ErrDeadlineExceeded
	}
	if err := validateUniqueProposals(votes); err != nil {
		return chain.Block{}, err
	}

	block, err := s.chain.Append(chain.PartialBlock{
		Type:    chain.TypeVote,
		ModelID: modelID,
		Action:  "vote-submitted",
		Data: chain.VoteData{
			VoterModelID: modelID,
			Votes:        votes,
		},
	})
	if err != nil {
		return chain.Block{}, err
	}

	s.votesBy[modelID] = votes

	if len(s.votesBy) == s.Participants.Len() {
		s.status = Complete
	}
	return block, nil
}

func validateUniqueProposals(votes []chain.ProposalVote) error {
	seen := make(map[string]struct{}, len(votes))
	for _, v := range votes {
		if _, ok := seen[v.ProposalID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateProposal, v.ProposalID)
		}
		seen[v.ProposalID] = struct{}{}
	}
	return nil
}

// CanFinalize reports whether Finalize may be called and why not if not,
// per spec.md §4.9.
func (s *Session) CanFinalize() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeExpireLocked()

	if s.status == Finalized {
		return true, "already finalized"
	}
	if s.status != Complete && s.status != Expired {
		return false, fmt.Sprintf("session is %q, not Complete or Expired", s.status)
	}
	return true, ""
}

// Finalize computes tally results and appends one finalize block,
// transitioning to Finalized. Idempotent: later calls return the stored
// results without appending, per spec.md §4.9.
func (s *Session) Finalize(reporterModelID string) ([]chain.ProposalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeExpireLocked()

	if s.status == Finalized {
		return s.results, nil
	}
	if s.status != Complete && s.status != Expired {
		return nil, ErrNotReadyToFinalize
	}

	results := Tally(s.ProposalIDs, s.votesBy, s.Participants.Len(), s.QuorumThreshold, s.ApprovalThreshold)

	_, err := s.chain.Append(chain.PartialBlock{
		Type:    chain.TypeFinalize,
		ModelID: reporterModelID,
		Action:  "session-finalized",
		Data: chain.ResultData{
			Results:         results,
			ReporterModelID: reporterModelID,
		},
	})
	if err != nil {
		return nil, err
	}

	s.results = results
	s.status = Finalized
	return results, nil
}

// VoterCount returns the number of distinct voters who have submitted so
// far.
func (s *Session) VoterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.votesBy)
}

// MissingVoters returns participants who have not yet submitted a vote.
func (s *Session) MissingVoters() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missing []string
	for _, id := range s.Participants.List() {
		if _, voted := s.votesBy[id]; !voted {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}

// EndTime returns the session's voting deadline. Zero before Start.
func (s *Session) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endTime
}
