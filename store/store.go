// Package store implements the on-disk layout of spec.md §6. It is built
// on the standard library rather than a third-party KV store: see
// DESIGN.md for why luxfi/database (replicated, pruning, 32-byte-ID-keyed)
// does not fit "one small JSON file per topic."
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/luxfi/concord/chain"
	"github.com/luxfi/concord/governance"
)

// DefaultRoot is the configurable root's default, per spec.md §6.
const DefaultRoot = "gov/minutes"

// Store reads and writes the governance on-disk layout rooted at Root.
type Store struct {
	Root string
}

// New builds a Store rooted at root. If root is empty, DefaultRoot is
// used.
func New(root string) *Store {
	if root == "" {
		root = DefaultRoot
	}
	return &Store{Root: root}
}

func (s *Store) topicDir(topicID string) string {
	return filepath.Join(s.Root, topicID)
}

// writeJSONAtomic marshals v as 2-space-indented JSON and writes it to
// path via write-temp-then-rename, so a reader never observes a partial
// file, per spec.md §5/§6.
func writeJSONAtomic(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("store: rename into %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// chainFile is the shape of <topicId>/chain.json, per spec.md §6.
type chainFile struct {
	TopicID string        `json:"topicId"`
	Created time.Time     `json:"created"`
	Chain   []chain.Block `json:"chain"`
}

// SaveChain writes <topicId>/chain.json.
func (s *Store) SaveChain(topicID string, created time.Time, blocks []chain.Block) error {
	return writeJSONAtomic(filepath.Join(s.topicDir(topicID), "chain.json"), chainFile{
		TopicID: topicID,
		Created: created,
		Chain:   blocks,
	})
}

// LoadChain reads <topicId>/chain.json.
func (s *Store) LoadChain(topicID string) (time.Time, []chain.Block, error) {
	var f chainFile
	if err := readJSON(filepath.Join(s.topicDir(topicID), "chain.json"), &f); err != nil {
		return time.Time{}, nil, err
	}
	return f.Created, f.Chain, nil
}

// AppendNotification appends one event to <topicId>/notifications.json,
// an append-only log, per spec.md §6.
func (s *Store) AppendNotification(topicID string, event governance.Event) error {
	path := filepath.Join(s.topicDir(topicID), "notifications.json")

	var log []governance.Event
	if err := readJSON(path, &log); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: read notification log for %s: %w", topicID, err)
	}
	log = append(log, event)
	return writeJSONAtomic(path, log)
}

// reminderEntry is one line of <topicId>/reminder_schedule.json, per
// spec.md §6.
type reminderEntry struct {
	ScheduledFor        time.Time `json:"scheduledFor"`
	HoursBeforeDeadline float64   `json:"hoursBeforeDeadline"`
	MinuteID            string    `json:"minuteId"`
}

// SaveReminderSchedule writes <topicId>/reminder_schedule.json.
func (s *Store) SaveReminderSchedule(topicID string, ticks []governance.Tick) error {
	entries := make([]reminderEntry, len(ticks))
	for i, t := range ticks {
		entries[i] = reminderEntry{ScheduledFor: t.ScheduledFor, HoursBeforeDeadline: t.HoursBeforeDeadline, MinuteID: t.MinuteID}
	}
	return writeJSONAtomic(filepath.Join(s.topicDir(topicID), "reminder_schedule.json"), entries)
}

// LoadReminderSchedule reads <topicId>/reminder_schedule.json.
func (s *Store) LoadReminderSchedule(topicID string) ([]governance.Tick, error) {
	var entries []reminderEntry
	if err := readJSON(filepath.Join(s.topicDir(topicID), "reminder_schedule.json"), &entries); err != nil {
		return nil, err
	}
	ticks := make([]governance.Tick, len(entries))
	for i, e := range entries {
		ticks[i] = governance.Tick{ScheduledFor: e.ScheduledFor, HoursBeforeDeadline: e.HoursBeforeDeadline, MinuteID: e.MinuteID}
	}
	return ticks, nil
}

// SignedVoteRecord is a voter's submission plus its detached signature,
// per spec.md §6 ("a signed vote record referenced from its vote block").
type SignedVoteRecord struct {
	VoterModelID string               `json:"voterModelId"`
	Votes        []chain.ProposalVote `json:"votes"`
	PublicKeyHex string               `json:"publicKeyHex"`
	SignatureHex string               `json:"signatureHex"`
	RecoveryID   byte                 `json:"recoveryId"`
}

// SaveVote writes <topicId>/votes/<modelId>.json.
func (s *Store) SaveVote(topicID string, record SignedVoteRecord) error {
	path := filepath.Join(s.topicDir(topicID), "votes", record.VoterModelID+".json")
	return writeJSONAtomic(path, record)
}

// LoadVote reads <topicId>/votes/<modelId>.json.
func (s *Store) LoadVote(topicID, modelID string) (SignedVoteRecord, error) {
	var record SignedVoteRecord
	path := filepath.Join(s.topicDir(topicID), "votes", modelID+".json")
	err := readJSON(path, &record)
	return record, err
}

// rootManifest is the consolidated blockchain.json at Root, per spec.md
// §6.
type rootManifest struct {
	Version     string    `json:"version"`
	Created     time.Time `json:"created"`
	TotalBIPs   int       `json:"totalBIPs"`
	Description string    `json:"description"`
	Chains      []string  `json:"chains"`
}

const manifestVersion = "1.0.0"

// SaveManifest writes the root blockchain.json aggregating every known
// chain's topicId.
func (s *Store) SaveManifest(created time.Time, totalBIPs int, description string, topicIDs []string) error {
	return writeJSONAtomic(filepath.Join(s.Root, "blockchain.json"), rootManifest{
		Version:     manifestVersion,
		Created:     created,
		TotalBIPs:   totalBIPs,
		Description: description,
		Chains:      topicIDs,
	})
}
