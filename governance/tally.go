package governance

import "github.com/luxfi/concord/chain"

const approveWeightFloor = 7

// Tally computes per-proposal results per spec.md §4.9: totalScore is the
// sum of weights; participationRate is |voters|/|participants|; quorum is
// satisfied iff participationRate >= quorumThreshold; approval is
// satisfied iff (votes with weight>=7) / (votes on that proposal) >=
// approvalThreshold; any veto on a proposal forces Rejected regardless of
// score.
func Tally(proposalIDs []string, votesBy map[string][]chain.ProposalVote, participantCount int, quorumThreshold, approvalThreshold float64) []chain.ProposalResult {
	type accumulator struct {
		totalScore int
		voteCount  int
		approves   int
		vetoed     bool
	}

	acc := make(map[string]*accumulator, len(proposalIDs))
	for _, id := range proposalIDs {
		acc[id] = &accumulator{}
	}

	for _, votes := range votesBy {
		for _, v := range votes {
			a, ok := acc[v.ProposalID]
			if !ok {
				continue
			}
			a.totalScore += v.Weight
			a.voteCount++
			if v.Weight >= approveWeightFloor {
				a.approves++
			}
			if v.Veto {
				a.vetoed = true
			}
		}
	}

	participationRate := 0.0
	if participantCount > 0 {
		participationRate = float64(len(votesBy)) / float64(participantCount)
	}
	quorumMet := participationRate >= quorumThreshold

	results := make([]chain.ProposalResult, 0, len(proposalIDs))
	for _, id := range proposalIDs {
		a := acc[id]

		status := "Rejected"
		if !a.vetoed && quorumMet && a.voteCount > 0 {
			approvalRate := float64(a.approves) / float64(a.voteCount)
			if approvalRate >= approvalThreshold {
				status = "Approved"
			}
		}

		results = append(results, chain.ProposalResult{
			ProposalID:       id,
			TotalScore:       a.totalScore,
			ParticipantCount: a.voteCount,
			Status:           status,
		})
	}
	return results
}
