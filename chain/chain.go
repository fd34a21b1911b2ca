package chain

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/concord/clock"
	"github.com/luxfi/concord/crypto"
	"github.com/luxfi/concord/errutil"
)

// Chain is a per-topic append-only sequence of Blocks. Appends are
// serialized by mu, covering the read-tail -> compute-hash -> append
// region, per spec.md §5.
type Chain struct {
	TopicID string

	clock *clock.Clock
	mu    sync.Mutex
	blocks []Block
}

// SeedMetadata is the caller-supplied content of the genesis block. Title
// and FilePaths are optional; when Title is empty the genesis block
// carries no DraftData, matching a bare audit-only chain seed.
type SeedMetadata struct {
	CreatedBy  string
	Reason     string
	Title      string
	Summary    string
	FilePaths  []string
	FileHashes map[string]string
}

// Create builds a chain with a single genesis block (index=1,
// previousHash=nil), per spec.md §4.8. When seed.Title is set the genesis
// block is typed draft and carries DraftData, per spec.md §8 scenario S1
// ("Create chain BIP-TEST with a draft genesis block by claude-4-sonnet
// referencing [\"BIP-TEST.md\"]"); otherwise it is an untyped seed block.
func Create(topicID string, seed SeedMetadata, clk *clock.Clock) (*Chain, error) {
	c := &Chain{TopicID: topicID, clock: clk}

	genesis := Block{
		Index:        1,
		Timestamp:    clk.Now(),
		PreviousHash: nil,
		ModelID:      seed.CreatedBy,
		Action:       seed.Reason,
		FilePaths:    seed.FilePaths,
	}
	if seed.Title != "" {
		genesis.Type = TypeDraft
		genesis.Data = DraftData{
			Title:         seed.Title,
			Summary:       seed.Summary,
			FilePaths:     seed.FilePaths,
			FileHashes:    seed.FileHashes,
			AuthorModelID: seed.CreatedBy,
		}
	}

	hash, err := genesis.computeHash()
	if err != nil {
		return nil, err
	}
	genesis.Hash = hash
	c.blocks = []Block{genesis}
	return c, nil
}

// PartialBlock is what a caller supplies to Append; Index, Timestamp,
// PreviousHash, and Hash are computed.
type PartialBlock struct {
	Type       BlockType
	ModelID    string
	Action     string
	FilePaths  []string
	FileHashes []string
	Data       interface{}
}

// Append assigns index/previousHash/timestamp/hash and appends partial to
// the chain, per spec.md §4.8. Atomic per chain.
func (c *Chain) Append(partial PartialBlock) (Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tail := c.blocks[len(c.blocks)-1]
	prevHash := tail.Hash

	block := Block{
		Index:        tail.Index + 1,
		Timestamp:    c.clock.Now(),
		PreviousHash: &prevHash,
		Type:         partial.Type,
		ModelID:      partial.ModelID,
		Action:       partial.Action,
		FilePaths:    partial.FilePaths,
		FileHashes:   partial.FileHashes,
		Data:         partial.Data,
	}
	hash, err := block.computeHash()
	if err != nil {
		return Block{}, err
	}
	block.Hash = hash

	c.blocks = append(c.blocks, block)
	return block, nil
}

// Blocks returns a copy of the chain's current blocks.
func (c *Chain) Blocks() []Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Tail returns the most recently appended block.
func (c *Chain) Tail() Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[len(c.blocks)-1]
}

// VerifyResult is the outcome of Verify, per spec.md §4.8.
type VerifyResult struct {
	Valid  bool
	Errors []error
}

// Verify checks index monotonicity, previousHash linkage, and per-block
// hash integrity, returning every violation rather than the first, per
// spec.md §4.8.
func Verify(blocks []Block) VerifyResult {
	var errs errutil.Errs

	for i, b := range blocks {
		wantIndex := uint64(i + 1)
		if b.Index != wantIndex {
			errs.Add(fmt.Errorf("block %d: index = %d, want %d", i, b.Index, wantIndex))
		}

		if i == 0 {
			if b.PreviousHash != nil {
				errs.Add(fmt.Errorf("block %d: genesis previousHash must be nil", i))
			}
		} else {
			prev := blocks[i-1]
			if b.PreviousHash == nil {
				errs.Add(fmt.Errorf("block %d: previousHash must not be nil", i))
			} else if *b.PreviousHash != prev.Hash {
				errs.Add(fmt.Errorf("block %d: previousHash %q does not match block %d hash %q", i, *b.PreviousHash, i-1, prev.Hash))
			}
		}

		if wantHash, err := b.computeHash(); err != nil {
			errs.Add(fmt.Errorf("block %d: could not recompute hash: %w", i, err))
		} else if wantHash != b.Hash {
			errs.Add(fmt.Errorf("block %d: hash %q does not match recomputed %q", i, b.Hash, wantHash))
		}
	}

	return VerifyResult{Valid: !errs.Errored(), Errors: errs.List()}
}

// batchVoteRecord is the canonical shape batchVoteHash hashes; it omits
// anything not needed for a stable, submission-order-independent
// fingerprint.
type batchVoteRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	ProposalID string    `json:"proposalId"`
	VoterModelID string  `json:"voterModelId"`
	Weight     int       `json:"weight"`
}

// BatchVoteHash sorts votes by (timestamp, proposalId), breaking remaining
// ties by voterModelId then weight, then hashes their canonical
// concatenation, giving a fingerprint independent of submission order,
// per spec.md §4.8.
func BatchVoteHash(votes []VoteData, timestamps []time.Time) (string, error) {
	if len(votes) != len(timestamps) {
		return "", fmt.Errorf("chain: votes and timestamps length mismatch: %d != %d", len(votes), len(timestamps))
	}

	var records []batchVoteRecord
	for i, v := range votes {
		for _, pv := range v.Votes {
			records = append(records, batchVoteRecord{
				Timestamp:    timestamps[i],
				ProposalID:   pv.ProposalID,
				VoterModelID: v.VoterModelID,
				Weight:       pv.Weight,
			})
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		if records[i].ProposalID != records[j].ProposalID {
			return records[i].ProposalID < records[j].ProposalID
		}
		if records[i].VoterModelID != records[j].VoterModelID {
			return records[i].VoterModelID < records[j].VoterModelID
		}
		return records[i].Weight < records[j].Weight
	})

	h, err := crypto.HashRecordHex(records)
	if err != nil {
		return "", err
	}
	return h, nil
}

type sessionHashRecord struct {
	SessionID   string    `json:"sessionId"`
	ProposalIDs []string  `json:"proposalIds"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// SessionHash hashes (sessionId, sorted proposalIds, start, end), making
// it permutation-invariant in proposalIds, per spec.md §4.8.
func SessionHash(sessionID string, proposalIDs []string, start, end time.Time) (string, error) {
	sorted := make([]string, len(proposalIDs))
	copy(sorted, proposalIDs)
	sort.Strings(sorted)

	return crypto.HashRecordHex(sessionHashRecord{
		SessionID:   sessionID,
		ProposalIDs: sorted,
		Start:       start,
		End:         end,
	})
}
