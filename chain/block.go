// Package chain implements C8: the per-topic append-only audit chain.
// Hashing and canonicalization are delegated to codec and crypto; chain
// never hashes a default-JSON encoding of a block.
package chain

import (
	"encoding/hex"
	"time"

	"github.com/luxfi/concord/crypto"
)

// BlockType tags a Block's payload, per spec.md §3.
type BlockType string

const (
	TypeDraft    BlockType = "draft"
	TypeVote     BlockType = "vote"
	TypeFinalize BlockType = "finalize"
	TypeNotify   BlockType = "notify"
)

// DraftData is a block payload (type=draft), restored from the original
// implementation per SPEC_FULL.md §2: it gives the payload union a fourth
// concrete arm alongside VoteData/ResultData/NotifyData.
type DraftData struct {
	Title         string            `json:"title"`
	Summary       string            `json:"summary"`
	FilePaths     []string          `json:"filePaths,omitempty"`
	FileHashes    map[string]string `json:"fileHashes,omitempty"`
	AuthorModelID string            `json:"authorModelId"`
}

// ProposalVote is one voter's score for one proposal, per spec.md §3.
type ProposalVote struct {
	ProposalID    string `json:"proposalId"`
	Weight        int    `json:"weight"`
	Justification string `json:"justification,omitempty"`
	Veto          bool   `json:"veto,omitempty"`
}

// VoteData is a block payload (type=vote), per spec.md §3.
type VoteData struct {
	VoterModelID string         `json:"voterModelId"`
	Votes        []ProposalVote `json:"votes"`
	VoteFile     string         `json:"voteFile,omitempty"`
	VoteFileHash string         `json:"voteFileHash,omitempty"`
}

// ProposalResult is one proposal's tallied outcome, per spec.md §3.
type ProposalResult struct {
	ProposalID       string `json:"proposalId"`
	TotalScore       int    `json:"totalScore"`
	ParticipantCount int    `json:"participantCount"`
	Status           string `json:"status"`
}

// ResultData is a block payload (type=finalize), per spec.md §3.
type ResultData struct {
	Results        []ProposalResult `json:"results"`
	ReporterModelID string          `json:"reporterModelId"`
}

// NotifyData is a block payload (type=notify), optional per SPEC_FULL.md
// §2: recording that a reminder/notification fired, independent of
// whether the sink's delivery succeeded.
type NotifyData struct {
	EventType string            `json:"eventType"`
	Recipient string            `json:"recipients,omitempty"`
	Message   string            `json:"message,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Block is one element of an audit chain, per spec.md §3.
type Block struct {
	Index         uint64      `json:"index"`
	Timestamp     time.Time   `json:"timestamp"`
	PreviousHash  *string     `json:"previousHash"`
	Type          BlockType   `json:"type"`
	ModelID       string      `json:"modelId"`
	Action        string      `json:"action"`
	FilePaths     []string    `json:"filePaths,omitempty"`
	FileHashes    []string    `json:"fileHashes,omitempty"`
	Data          interface{} `json:"data"`
	Hash          string      `json:"hash,omitempty"`
}

// hashable is the subset of Block fields that feed the hash: everything
// except Hash itself, per spec.md §4.8 ("hash = SHA-256(canonical(block
// without hash))").
type hashable struct {
	Index        uint64      `json:"index"`
	Timestamp    time.Time   `json:"timestamp"`
	PreviousHash *string     `json:"previousHash"`
	Type         BlockType   `json:"type"`
	ModelID      string      `json:"modelId"`
	Action       string      `json:"action"`
	FilePaths    []string    `json:"filePaths,omitempty"`
	FileHashes   []string    `json:"fileHashes,omitempty"`
	Data         interface{} `json:"data"`
}

func (b Block) computeHash() (string, error) {
	h, err := crypto.HashRecord(hashable{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		PreviousHash: b.PreviousHash,
		Type:         b.Type,
		ModelID:      b.ModelID,
		Action:       b.Action,
		FilePaths:    b.FilePaths,
		FileHashes:   b.FileHashes,
		Data:         b.Data,
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h[:]), nil
}
