package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/storage"
)

// RecordCounts defines the store sizes for benchmarking.
var RecordCounts = []int{100, 1000, 10000}

// MessageCounts defines the conversation lengths for copy benchmarks.
var MessageCounts = []int{10, 100, 1000}

// benchMessages builds a conversation transcript of the given length.
func benchMessages(n int) []domain.Message {
	msgs := make([]domain.Message, n)
	for i := range msgs {
		msgs[i] = domain.Message{
			"text":    fmt.Sprintf("message %d with a sentence of typical chat length in it", i),
			"is_user": i%2 == 0,
			"extra":   map[string]any{"swipes": []any{"alt one", "alt two"}},
		}
	}
	return msgs
}

// benchRecord builds a record for the given conversation slot.
func benchRecord(b *testing.B, chat int, snapshotTime int64, messages int) domain.BackupRecord {
	b.Helper()
	identity, err := domain.NewConversationIdentity(domain.KindCharacter, "bench-entity", fmt.Sprintf("chat-%d", chat))
	if err != nil {
		b.Fatalf("identity: %v", err)
	}
	msgs := benchMessages(messages)
	return domain.BackupRecord{
		ConversationIdentity: identity,
		SnapshotTime:         snapshotTime,
		EntityLabel:          "Bench Entity",
		ConversationLabel:    fmt.Sprintf("chat-%d", chat),
		LastMessageIndex:     len(msgs) - 1,
		LastMessagePreview:   "preview",
		Messages:             msgs,
		Metadata:             domain.Metadata{"scenario": "benchmark"},
	}
}

// prefillStore loads a store with count records spread over chats.
func prefillStore(b *testing.B, store storage.BackupStore, count int) []domain.BackupRecord {
	b.Helper()
	ctx := context.Background()
	records := make([]domain.BackupRecord, count)
	for i := 0; i < count; i++ {
		records[i] = benchRecord(b, i%100, int64(1700000000000+i), 10)
		if err := store.Put(ctx, records[i]); err != nil {
			b.Fatalf("prefill: %v", err)
		}
	}
	return records
}

// reportMemory attaches current heap usage to the benchmark output.
func reportMemory(b *testing.B, name string) {
	b.Helper()
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/(1<<20), name+"_heap_mb")
}
