package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/concord/chain"
	"github.com/luxfi/concord/governance"
)

func TestSaveLoadChain_RoundTrips(t *testing.T) {
	s := New(t.TempDir())
	created := time.Unix(1000, 0).UTC()
	blocks := []chain.Block{
		{Index: 1, Timestamp: created, Hash: "abc"},
	}

	require.NoError(t, s.SaveChain("topic-1", created, blocks))

	gotCreated, gotBlocks, err := s.LoadChain("topic-1")
	require.NoError(t, err)
	require.True(t, created.Equal(gotCreated))
	require.Equal(t, blocks, gotBlocks)

	require.FileExists(t, filepath.Join(s.Root, "topic-1", "chain.json"))
}

func TestAppendNotification_Accumulates(t *testing.T) {
	s := New(t.TempDir())
	event1 := governance.Event{ID: "e1", Type: governance.EventVoteStart, TopicID: "topic-1"}
	event2 := governance.Event{ID: "e2", Type: governance.EventVoteReceived, TopicID: "topic-1"}

	require.NoError(t, s.AppendNotification("topic-1", event1))
	require.NoError(t, s.AppendNotification("topic-1", event2))

	var log []governance.Event
	require.NoError(t, readJSON(filepath.Join(s.Root, "topic-1", "notifications.json"), &log))
	require.Len(t, log, 2)
	require.Equal(t, "e1", log[0].ID)
	require.Equal(t, "e2", log[1].ID)
}

func TestSaveLoadReminderSchedule_RoundTrips(t *testing.T) {
	s := New(t.TempDir())
	now := time.Unix(1000, 0).UTC()
	ticks := []governance.Tick{
		{ScheduledFor: now.Add(time.Hour), HoursBeforeDeadline: 1, MinuteID: "minute-1"},
		{ScheduledFor: now.Add(6 * time.Hour), HoursBeforeDeadline: 6, MinuteID: "minute-1"},
	}

	require.NoError(t, s.SaveReminderSchedule("topic-1", ticks))

	got, err := s.LoadReminderSchedule("topic-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, ticks[0].MinuteID, got[0].MinuteID)
}

func TestSaveLoadVote_RoundTrips(t *testing.T) {
	s := New(t.TempDir())
	record := SignedVoteRecord{
		VoterModelID: "model-a",
		Votes:        []chain.ProposalVote{{ProposalID: "BIP-01", Weight: 8}},
		PublicKeyHex: "02abcd",
		SignatureHex: "deadbeef",
	}

	require.NoError(t, s.SaveVote("topic-1", record))

	got, err := s.LoadVote("topic-1", "model-a")
	require.NoError(t, err)
	require.Equal(t, record, got)
}

func TestSaveManifest_WritesRootFile(t *testing.T) {
	s := New(t.TempDir())
	created := time.Unix(1000, 0).UTC()

	require.NoError(t, s.SaveManifest(created, 2, "governance minutes", []string{"topic-1", "topic-2"}))

	var manifest rootManifest
	require.NoError(t, readJSON(filepath.Join(s.Root, "blockchain.json"), &manifest))
	require.Equal(t, manifestVersion, manifest.Version)
	require.Equal(t, 2, manifest.TotalBIPs)
	require.ElementsMatch(t, []string{"topic-1", "topic-2"}, manifest.Chains)
}
