package service

import (
	"context"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
)

// BackupRunner is the slice of BackupService the dispatcher drives.
type BackupRunner interface {
	RunBackup(ctx context.Context) (*BackupResult, error)
}

// Dispatcher routes host events into the backup workflow.
//
// Classification is pure policy lookup; routing never propagates a
// workflow failure back to the event source.
type Dispatcher struct {
	policy    domain.TriggerPolicy
	backup    BackupRunner
	debouncer *Debouncer
	log       logger.Logger
}

// NewDispatcher creates the dispatcher. A nil policy uses the default
// trigger mapping.
func NewDispatcher(policy domain.TriggerPolicy, backup BackupRunner, debouncer *Debouncer, log logger.Logger) *Dispatcher {
	if policy == nil {
		policy = domain.DefaultTriggerPolicy()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Dispatcher{policy: policy, backup: backup, debouncer: debouncer, log: log}
}

// Dispatch classifies one event and routes it. Immediate triggers run
// the workflow asynchronously; debounced triggers arm the pending
// slot; everything else is dropped. The returned class is the
// classification applied.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.EventType) domain.TriggerClass {
	class := d.policy.Classify(event)
	switch class {
	case domain.TriggerImmediate:
		go func() {
			if _, err := d.backup.RunBackup(context.WithoutCancel(ctx)); err != nil {
				d.log.Error("immediate backup failed", "event", string(event), "error", err)
			}
		}()
	case domain.TriggerDebounced:
		d.debouncer.Trigger()
	default:
		d.log.Debug("event ignored", "event", string(event))
	}
	return class
}
