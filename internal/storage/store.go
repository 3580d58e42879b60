package storage

import (
	"context"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/pkg/crypto/adaptive"
)

// BackupStore is the persistence boundary for backup records.
//
// Records are identified by (conversation identity, snapshot time).
// Implementations must be safe for concurrent use.
type BackupStore interface {
	// Put stores a record, replacing any record with the same identity
	// and snapshot time.
	Put(ctx context.Context, record domain.BackupRecord) error

	// Get retrieves a single record.
	// Returns domain.ErrRecordNotFound if it does not exist.
	Get(ctx context.Context, identity domain.ConversationIdentity, snapshotTime int64) (domain.BackupRecord, error)

	// GetByConversation lists every record for one conversation,
	// ordered by snapshot time ascending. Lookup failures surface as
	// errors; treating a failed listing as empty is the backup
	// workflow's policy, and callers that need the distinction must
	// not assume store-level tolerance.
	GetByConversation(ctx context.Context, identity domain.ConversationIdentity) ([]domain.BackupRecord, error)

	// GetAll lists every record in the store, grouped by conversation
	// and ordered by snapshot time within each.
	GetAll(ctx context.Context) ([]domain.BackupRecord, error)

	// Delete removes a record. Deleting a missing record is not an
	// error.
	Delete(ctx context.Context, identity domain.ConversationIdentity, snapshotTime int64) error

	// Close releases the store's resources.
	Close() error
}

// Config configures the Badger-backed store.
type Config struct {
	// Dir is the data directory.
	Dir string

	// Cipher, when set, seals record payloads before they are written.
	Cipher adaptive.Cipher

	// Badger holds engine tuning parameters.
	Badger BadgerTuning
}

// BadgerTuning contains Badger-specific tuning parameters.
type BadgerTuning struct {
	// GCInterval is the interval between value log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 32MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// SyncWrites enables fsync after each write. Backups are the
	// durability layer here, so this defaults on.
	// Default: true
	SyncWrites bool
}

// DefaultConfig returns the default store configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:    dir,
		Badger: DefaultBadgerTuning(),
	}
}

// DefaultBadgerTuning returns the default Badger tuning.
func DefaultBadgerTuning() BadgerTuning {
	return BadgerTuning{
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        32 << 20,
		ValueLogFileSize: 256 << 20,
		NumMemtables:     2,
		SyncWrites:       true,
	}
}
