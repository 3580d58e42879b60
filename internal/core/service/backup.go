package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/deepcopy"
	"github.com/chatvault/chatvault-go/internal/storage"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
	"github.com/chatvault/chatvault-go/internal/telemetry/metric"
	"github.com/chatvault/chatvault-go/pkg/cmap"
)

// DefaultMaxPerChat is the default per-conversation retention cap.
const DefaultMaxPerChat = 10

// BackupStatus is the outcome of one backup attempt.
type BackupStatus string

const (
	// StatusCreated means a new record was written.
	StatusCreated BackupStatus = "created"

	// StatusSkipped means the dedup rule found the progress marker
	// already covered by a record at least as fresh.
	StatusSkipped BackupStatus = "skipped"

	// StatusNoop means there was nothing to back up: no conversation
	// selected, or the conversation is empty.
	StatusNoop BackupStatus = "noop"
)

// BackupResult reports one backup attempt outward.
type BackupResult struct {
	Status    BackupStatus
	AttemptID string

	// Record is set when Status is StatusCreated.
	Record *domain.BackupRecord
}

// BackupConfig configures the backup service.
type BackupConfig struct {
	// MaxPerChat caps stored records per conversation.
	// Zero means DefaultMaxPerChat.
	MaxPerChat int
}

// BackupService runs the backup workflow and manages stored records.
//
// Writes for the same conversation are serialized by a
// per-ConversationIdentity lock around the read-dedup-write-evict
// region, so concurrent triggers cannot race past the dedup check.
// Attempts for different conversations proceed in parallel.
type BackupService struct {
	store   storage.BackupStore
	copier  Copier
	host    Host
	log     logger.Logger
	metrics *metric.Registry

	maxPerChat atomic.Int64

	// locks holds one mutex per conversation identity. Entries are
	// created on first use and live for the process; the identity
	// space is small (conversations the user actually opens).
	locks *cmap.Map[domain.ConversationIdentity, *sync.Mutex]

	// now is a test seam for snapshot timestamps.
	now func() time.Time
}

// NewBackupService creates the backup service.
func NewBackupService(cfg BackupConfig, store storage.BackupStore, copier Copier, host Host, log logger.Logger, metrics *metric.Registry) *BackupService {
	if log == nil {
		log = logger.Default()
	}
	s := &BackupService{
		store:   store,
		copier:  copier,
		host:    host,
		log:     log,
		metrics: metrics,
		locks:   cmap.New[domain.ConversationIdentity, *sync.Mutex](),
		now:     time.Now,
	}
	if cfg.MaxPerChat > 0 {
		s.maxPerChat.Store(int64(cfg.MaxPerChat))
	} else {
		s.maxPerChat.Store(DefaultMaxPerChat)
	}
	return s
}

// SetMaxPerChat adjusts the retention cap at runtime. Values below one
// are ignored. The new cap applies from the next backup attempt.
func (s *BackupService) SetMaxPerChat(n int) {
	if n > 0 {
		s.maxPerChat.Store(int64(n))
	}
}

// MaxPerChat returns the current retention cap.
func (s *BackupService) MaxPerChat() int {
	return int(s.maxPerChat.Load())
}

// RunBackup executes one backup attempt against the host's current
// conversation. It returns a no-op result when nothing is selected or
// the conversation is empty, a skip when the dedup rule holds, and
// exactly one error when the attempt fails.
func (s *BackupService) RunBackup(ctx context.Context) (*BackupResult, error) {
	attemptID, err := domain.NewAttemptID()
	if err != nil {
		return nil, err
	}
	ctx = logger.WithAttemptID(ctx, attemptID)
	log := logger.L(ctx)
	started := s.now()

	result, err := s.runBackup(ctx, attemptID)
	if err != nil {
		s.observe(metric.ResultFailed, started)
		log.Error("backup attempt failed", "error", err)
		return nil, err
	}

	switch result.Status {
	case StatusCreated:
		s.observe(metric.ResultCreated, started)
		log.Info("backup created",
			"identity", result.Record.ConversationIdentity,
			"snapshot_time", result.Record.SnapshotTime,
			"last_message_index", result.Record.LastMessageIndex)
	case StatusSkipped:
		s.observe(metric.ResultSkipped, started)
		log.Info("backup skipped, progress marker already covered")
	default:
		log.Debug("backup no-op, nothing to back up")
	}
	return result, nil
}

func (s *BackupService) runBackup(ctx context.Context, attemptID string) (*BackupResult, error) {
	// Resolve the current conversation; none selected is a no-op.
	conv, err := s.host.CurrentConversation(ctx)
	if err != nil {
		return nil, domain.ErrHostUnavailable.WithCause(err)
	}
	if conv == nil {
		return &BackupResult{Status: StatusNoop, AttemptID: attemptID}, nil
	}
	if conv.Empty() {
		return &BackupResult{Status: StatusNoop, AttemptID: attemptID}, nil
	}

	identity, err := conv.Identity()
	if err != nil {
		return nil, err
	}

	// The snapshot timestamp reflects intent-to-backup, captured
	// before the copy round trip.
	snapshotTime := s.now().UnixMilli()

	copied, err := s.copier.Copy(ctx, conv.Messages, conv.Metadata)
	if err != nil && domain.IsDomainError(err, domain.ErrCopyChannelUnavailable.Code) {
		if s.metrics != nil {
			s.metrics.CopyFailures.Inc()
		}
		copied, err = s.retryAfterRecreate(ctx, conv, err)
	}
	if err != nil {
		return nil, err
	}

	candidate := s.buildRecord(ctx, conv, identity, snapshotTime, copied.Messages, copied.Metadata)
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	status, err := s.commit(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if status == StatusSkipped {
		return &BackupResult{Status: StatusSkipped, AttemptID: attemptID}, nil
	}
	return &BackupResult{Status: StatusCreated, AttemptID: attemptID, Record: candidate}, nil
}

// retryAfterRecreate rebuilds a failed copy channel and retries the
// copy once. Copiers without recreation support keep the original
// failure.
func (s *BackupService) retryAfterRecreate(ctx context.Context, conv *domain.Conversation, cause error) (*deepcopy.Result, error) {
	rc, ok := s.copier.(RecreatableCopier)
	if !ok || !rc.Failed() {
		return nil, cause
	}

	logger.L(ctx).Warn("copy channel failed, recreating", "error", cause)
	rc.Recreate()
	if s.metrics != nil {
		s.metrics.CopyRecreations.Inc()
	}
	return s.copier.Copy(ctx, conv.Messages, conv.Metadata)
}

// buildRecord assembles the candidate from the copied payload and the
// resolved display labels.
func (s *BackupService) buildRecord(ctx context.Context, conv *domain.Conversation, identity domain.ConversationIdentity, snapshotTime int64, messages []domain.Message, metadata domain.Metadata) *domain.BackupRecord {
	entityLabel, err := s.host.ResolveEntityName(ctx, conv.Kind, conv.EntityID)
	if err != nil || entityLabel == "" {
		// Label resolution is cosmetic; the entity id stands in.
		logger.L(ctx).Warn("entity name resolution failed, using id", "entity_id", conv.EntityID, "error", err)
		entityLabel = conv.EntityID
	}

	last := messages[len(messages)-1]
	return &domain.BackupRecord{
		ConversationIdentity: identity,
		SnapshotTime:         snapshotTime,
		EntityLabel:          entityLabel,
		ConversationLabel:    conv.ChatID,
		LastMessageIndex:     len(messages) - 1,
		LastMessagePreview:   domain.MakePreview(last.Text()),
		Messages:             messages,
		Metadata:             metadata,
	}
}

// commit runs the read-dedup-write-evict region under the
// conversation's lock.
func (s *BackupService) commit(ctx context.Context, candidate *domain.BackupRecord) (BackupStatus, error) {
	identity := candidate.ConversationIdentity
	lock, _ := s.locks.GetOrSet(identity, &sync.Mutex{})
	lock.Lock()
	defer lock.Unlock()

	existing := s.listExisting(ctx, identity)

	// Dedup by progress marker: a record at the same marker that is
	// not older than the candidate wins; an older one is replaced.
	kept := existing[:0:0]
	for i := range existing {
		if existing[i].LastMessageIndex != candidate.LastMessageIndex {
			kept = append(kept, existing[i])
			continue
		}
		if existing[i].SnapshotTime >= candidate.SnapshotTime {
			return StatusSkipped, nil
		}
		if err := s.store.Delete(ctx, identity, existing[i].SnapshotTime); err != nil {
			// Writing anyway would leave two records at this marker.
			return "", domain.ErrStorageWrite.WithCause(err)
		}
	}

	if err := s.store.Put(ctx, *candidate); err != nil {
		return "", err
	}

	s.evict(ctx, identity, append(kept, *candidate))
	return StatusCreated, nil
}

// listExisting reads the conversation's records, treating a lookup
// failure as "nothing backed up yet" so a degraded index read cannot
// block new backups.
func (s *BackupService) listExisting(ctx context.Context, identity domain.ConversationIdentity) []domain.BackupRecord {
	records, err := s.store.GetByConversation(ctx, identity)
	if err != nil {
		logger.L(ctx).Warn("conversation lookup failed, proceeding as empty",
			"identity", identity, "error", err)
		return nil
	}
	return records
}

// evict deletes records beyond the cap, oldest first. Deletions are
// independent best-effort operations; one failure does not stop the
// others.
func (s *BackupService) evict(ctx context.Context, identity domain.ConversationIdentity, records []domain.BackupRecord) {
	limit := int(s.maxPerChat.Load())
	if len(records) <= limit {
		return
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].SnapshotTime > records[j].SnapshotTime
	})

	for _, victim := range records[limit:] {
		if err := s.store.Delete(ctx, identity, victim.SnapshotTime); err != nil {
			if s.metrics != nil {
				s.metrics.EvictionFailures.Inc()
			}
			logger.L(ctx).Warn("eviction delete failed, left for next pass",
				"identity", identity,
				"snapshot_time", victim.SnapshotTime,
				"error", domain.ErrEvictionFailed.WithCause(err))
			continue
		}
		if s.metrics != nil {
			s.metrics.EvictionsTotal.Inc()
		}
	}
}

// ManualBackup runs the workflow synchronously for a direct user
// action and then asks the host to refresh its backup listing.
func (s *BackupService) ManualBackup(ctx context.Context) (*BackupResult, error) {
	result, err := s.RunBackup(ctx)
	if err != nil {
		return nil, err
	}
	s.notifyListChanged(ctx)
	return result, nil
}

// List returns summaries of every stored record, newest first.
func (s *BackupService) List(ctx context.Context) ([]domain.RecordSummary, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.RecordSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, records[i].Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SnapshotTime > summaries[j].SnapshotTime
	})
	return summaries, nil
}

// Get returns one full record.
func (s *BackupService) Get(ctx context.Context, identity domain.ConversationIdentity, snapshotTime int64) (domain.BackupRecord, error) {
	return s.store.Get(ctx, identity, snapshotTime)
}

// Delete removes one record and refreshes the host's listing.
func (s *BackupService) Delete(ctx context.Context, identity domain.ConversationIdentity, snapshotTime int64) error {
	if err := s.store.Delete(ctx, identity, snapshotTime); err != nil {
		return err
	}
	s.notifyListChanged(ctx)
	return nil
}

// notifyListChanged is a best-effort optional host capability.
func (s *BackupService) notifyListChanged(ctx context.Context) {
	err := s.host.NotifyBackupListChanged(ctx)
	if err == nil || domain.IsDomainError(err, domain.ErrNotSupported.Code) {
		return
	}
	logger.L(ctx).Warn("backup list refresh notification failed", "error", err)
}

func (s *BackupService) observe(result string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.BackupsTotal.WithLabelValues(result).Inc()
	s.metrics.BackupDuration.Observe(s.now().Sub(started).Seconds())
}
