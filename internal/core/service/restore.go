package service

import (
	"context"
	"fmt"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/storage"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
	"github.com/chatvault/chatvault-go/internal/telemetry/metric"
)

// RestoreStep names one state of the restore machine, for failure
// reporting.
type RestoreStep string

const (
	StepSelectEntity            RestoreStep = "select_entity"
	StepCreateFreshConversation RestoreStep = "create_fresh_conversation"
	StepLoadSnapshotContent     RestoreStep = "load_snapshot_content"
	StepApplyMetadata           RestoreStep = "apply_metadata"
	StepPersistConversation     RestoreStep = "persist_conversation"
	StepNotifyUI                RestoreStep = "notify_ui"
)

// RestoreService replays a stored snapshot into a fresh host
// conversation.
//
// The steps run strictly in order. A failure in any step halts the
// machine and reports which step failed; the conversation that was
// open before the restore began is never touched. Optional host
// capabilities skip instead of failing when absent. Restore never
// panics past its boundary.
type RestoreService struct {
	store   storage.BackupStore
	host    Host
	log     logger.Logger
	metrics *metric.Registry
}

// NewRestoreService creates the restore service.
func NewRestoreService(store storage.BackupStore, host Host, log logger.Logger, metrics *metric.Registry) *RestoreService {
	if log == nil {
		log = logger.Default()
	}
	return &RestoreService{store: store, host: host, log: log, metrics: metrics}
}

// RestoreByKey reads the record and runs the state machine. A missing
// record counts as a failed restore.
func (s *RestoreService) RestoreByKey(ctx context.Context, identity domain.ConversationIdentity, snapshotTime int64) bool {
	record, err := s.store.Get(ctx, identity, snapshotTime)
	if err != nil {
		s.log.Error("restore source record unavailable",
			"identity", identity, "snapshot_time", snapshotTime, "error", err)
		s.count(metric.ResultFailed)
		return false
	}
	return s.Restore(ctx, record)
}

// Restore runs the state machine for one record. It reports success as
// a plain boolean; every internal failure is logged with the step that
// failed and converted to false.
func (s *RestoreService) Restore(ctx context.Context, record domain.BackupRecord) (ok bool) {
	attemptID, err := domain.NewAttemptID()
	if err != nil {
		s.log.Error("restore attempt id generation failed", "error", err)
		return false
	}
	ctx = logger.WithAttemptID(ctx, attemptID)
	log := logger.L(ctx).With("identity", record.ConversationIdentity, "snapshot_time", record.SnapshotTime)

	defer func() {
		if r := recover(); r != nil {
			log.Error("restore panicked", "panic", fmt.Sprint(r))
			s.count(metric.ResultFailed)
			ok = false
		}
	}()

	if step, err := s.run(ctx, record, log); err != nil {
		log.Error("restore failed",
			"step", string(step),
			"error", domain.ErrRestoreFailed.WithDetails(string(step)).WithCause(err))
		s.count(metric.ResultFailed)
		return false
	}

	log.Info("restore completed")
	s.count(metric.ResultOK)
	return true
}

// run executes the steps and returns the first failing one.
func (s *RestoreService) run(ctx context.Context, record domain.BackupRecord, log logger.Logger) (RestoreStep, error) {
	identity := record.ConversationIdentity
	kind := identity.Kind()
	entityID := identity.EntityID()
	if !kind.Valid() || entityID == "" {
		return StepSelectEntity, domain.ErrInvalidIdentity.WithDetails(string(identity))
	}

	if err := s.host.SelectEntity(ctx, kind, entityID); err != nil {
		return StepSelectEntity, err
	}

	if err := s.host.NewConversation(ctx); err != nil {
		return StepCreateFreshConversation, err
	}

	if err := s.host.ReplaceMessages(ctx, record.Messages); err != nil {
		return StepLoadSnapshotContent, err
	}

	if len(record.Metadata) > 0 {
		if err := s.host.ApplyMetadata(ctx, record.Metadata); err != nil {
			if !domain.IsDomainError(err, domain.ErrNotSupported.Code) {
				return StepApplyMetadata, err
			}
			log.Debug("metadata apply not supported by host, skipping")
		}
	}

	if err := s.host.SaveConversation(ctx); err != nil {
		if !domain.IsDomainError(err, domain.ErrNotSupported.Code) {
			return StepPersistConversation, err
		}
		log.Debug("conversation save not supported by host, skipping")
	}

	if err := s.host.NotifyConversationLoaded(ctx); err != nil {
		if !domain.IsDomainError(err, domain.ErrNotSupported.Code) {
			return StepNotifyUI, err
		}
		log.Warn("host cannot signal conversation loads, views may need a manual refresh")
	}

	return "", nil
}

func (s *RestoreService) count(result string) {
	if s.metrics != nil {
		s.metrics.RestoresTotal.WithLabelValues(result).Inc()
	}
}
