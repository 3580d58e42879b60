package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chatvault/chatvault-go/internal/core/domain"
	"github.com/chatvault/chatvault-go/internal/telemetry/logger"
)

// keyPrefix namespaces backup records inside the database.
const keyPrefix = "bkp/"

// BadgerStore implements BackupStore on an embedded Badger v3 database.
//
// The database handle is managed lazily: operations reopen it when
// Badger has closed it underneath us, so a transient close does not
// take the store down for good.
type BadgerStore struct {
	cfg Config
	log logger.Logger

	mu sync.Mutex
	db *badger.DB

	// Prometheus metrics, nil until RegisterMetrics.
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsTotalSize    prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	stopCh chan struct{}
	doneCh chan struct{}
	closed bool
}

// NewBadgerStore opens the database and starts the GC loop.
func NewBadgerStore(cfg Config, log logger.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("storage: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}

	s := &BadgerStore{
		cfg:    cfg,
		log:    log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	s.db = db

	go s.gcLoop()

	log.Info("backup store opened",
		"dir", cfg.Dir,
		"encrypted", cfg.Cipher != nil,
		"gc_interval", cfg.Badger.GCInterval)

	return s, nil
}

// open builds Badger options from the tuning config and opens the db.
func (s *BadgerStore) open() (*badger.DB, error) {
	tuning := s.cfg.Badger

	opts := badger.DefaultOptions(s.cfg.Dir)
	opts.Logger = &badgerLogger{log: s.log.With("component", "badger")}
	if tuning.CacheSize > 0 {
		opts.BlockCacheSize = tuning.CacheSize
	}
	if tuning.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = tuning.ValueLogFileSize
	}
	if tuning.NumMemtables > 0 {
		opts.NumMemtables = tuning.NumMemtables
	}
	opts.SyncWrites = tuning.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.ErrStorageWrite.WithCause(fmt.Errorf("open badger: %w", err))
	}
	return db, nil
}

// handle returns a live database, reopening it if Badger closed it.
func (s *BadgerStore) handle() (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrStorageWrite.WithDetails("store closed")
	}
	if s.db != nil && !s.db.IsClosed() {
		return s.db, nil
	}

	s.log.Warn("backup database handle lost, reopening", "dir", s.cfg.Dir)
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	s.db = db
	return db, nil
}

// Put stores a record under its identity and snapshot time.
func (s *BadgerStore) Put(ctx context.Context, record domain.BackupRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	db, err := s.handle()
	if err != nil {
		return err
	}

	key := recordKey(record.ConversationIdentity, record.SnapshotTime)
	value, err := s.encode(record, key)
	if err != nil {
		return err
	}

	if err := db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	}); err != nil {
		return domain.ErrStorageWrite.WithCause(err)
	}
	return nil
}

// Get retrieves one record by identity and snapshot time.
func (s *BadgerStore) Get(ctx context.Context, identity domain.ConversationIdentity, snapshotTime int64) (domain.BackupRecord, error) {
	db, err := s.handle()
	if err != nil {
		return domain.BackupRecord{}, err
	}

	key := recordKey(identity, snapshotTime)
	var record domain.BackupRecord

	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrRecordNotFound.WithDetails(string(identity))
			}
			return domain.ErrStorageRead.WithCause(err)
		}
		return item.Value(func(value []byte) error {
			record, err = s.decode(value, key)
			return err
		})
	})
	if err != nil {
		return domain.BackupRecord{}, err
	}
	return record, nil
}

// GetByConversation lists a conversation's records in snapshot-time
// order. The big-endian time suffix makes Badger's key order the
// chronological order, so no sort pass is needed.
func (s *BadgerStore) GetByConversation(ctx context.Context, identity domain.ConversationIdentity) ([]domain.BackupRecord, error) {
	records, err := s.scan(conversationPrefix(identity))
	if err != nil {
		return nil, err
	}

	// An identity whose chat id extends this one shares the key
	// prefix; keep exact matches only.
	matched := records[:0]
	for _, record := range records {
		if record.ConversationIdentity == identity {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

// GetAll lists every record in the store.
func (s *BadgerStore) GetAll(ctx context.Context) ([]domain.BackupRecord, error) {
	return s.scan([]byte(keyPrefix))
}

// scan collects all records under a key prefix.
func (s *BadgerStore) scan(prefix []byte) ([]domain.BackupRecord, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var records []domain.BackupRecord
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if err := item.Value(func(value []byte) error {
				record, err := s.decode(value, key)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a record. Missing records are not an error.
func (s *BadgerStore) Delete(ctx context.Context, identity domain.ConversationIdentity, snapshotTime int64) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	if err := db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(identity, snapshotTime))
	}); err != nil {
		return domain.ErrStorageWrite.WithCause(err)
	}
	return nil
}

// Close shuts down the GC loop and the database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	db := s.db
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	if db != nil && !db.IsClosed() {
		if err := db.Close(); err != nil {
			return domain.ErrStorageWrite.WithCause(fmt.Errorf("close badger: %w", err))
		}
	}
	s.log.Info("backup store closed")
	return nil
}

// encode marshals and optionally seals a record. The storage key is
// the AEAD's additional data, so a sealed value cannot be replayed
// under another conversation or snapshot time.
func (s *BadgerStore) encode(record domain.BackupRecord, key []byte) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, domain.ErrStorageWrite.WithCause(err)
	}
	if s.cfg.Cipher == nil {
		return data, nil
	}
	sealed, err := s.cfg.Cipher.Encrypt(data, key)
	if err != nil {
		return nil, domain.ErrStorageWrite.WithCause(err)
	}
	return sealed, nil
}

// decode opens and unmarshals a stored value.
func (s *BadgerStore) decode(value, key []byte) (domain.BackupRecord, error) {
	data := value
	if s.cfg.Cipher != nil {
		opened, err := s.cfg.Cipher.Decrypt(value, key)
		if err != nil {
			return domain.BackupRecord{}, domain.ErrStorageRead.WithCause(err)
		}
		data = opened
	}
	var record domain.BackupRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.BackupRecord{}, domain.ErrStorageRead.WithCause(err)
	}
	return record, nil
}

// RegisterMetrics registers store metrics and starts the updater.
// Call at most once, before serving traffic.
func (s *BadgerStore) RegisterMetrics(registry *prometheus.Registry) *BadgerStore {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatvault",
		Subsystem: "store",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatvault",
		Subsystem: "store",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	s.metricsTotalSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatvault",
		Subsystem: "store",
		Name:      "total_size_bytes",
		Help:      "Total on-disk size in bytes (LSM + value log)",
	})
	s.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chatvault",
		Subsystem: "store",
		Name:      "gc_runs_total",
		Help:      "Completed value log GC passes",
	})

	registry.MustRegister(
		s.metricsLSMSize,
		s.metricsValueLogSize,
		s.metricsTotalSize,
		s.metricsGCRuns,
	)

	go s.metricsUpdateLoop()
	return s
}

// metricsUpdateLoop refreshes size gauges from Badger.
func (s *BadgerStore) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			db := s.db
			s.mu.Unlock()
			if db == nil || db.IsClosed() {
				continue
			}
			lsm, vlog := db.Size()
			s.metricsLSMSize.Set(float64(lsm))
			s.metricsValueLogSize.Set(float64(vlog))
			s.metricsTotalSize.Set(float64(lsm + vlog))
		case <-s.stopCh:
			return
		}
	}
}

// gcLoop runs periodic value log garbage collection.
func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	interval, err := time.ParseDuration(s.cfg.Badger.GCInterval)
	if err != nil || interval <= 0 {
		interval = 10 * time.Minute
	}
	threshold := s.cfg.Badger.GCThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			db := s.db
			s.mu.Unlock()
			if db == nil || db.IsClosed() {
				continue
			}
			for {
				if err := db.RunValueLogGC(threshold); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						s.log.Error("value log gc failed", "error", err)
					}
					break
				}
				if s.metricsGCRuns != nil {
					s.metricsGCRuns.Inc()
				}
			}
		case <-s.stopCh:
			return
		}
	}
}

// recordKey builds the primary key: prefix, identity, then the
// snapshot time as big-endian so lexical order is chronological.
func recordKey(identity domain.ConversationIdentity, snapshotTime int64) []byte {
	key := make([]byte, 0, len(keyPrefix)+len(identity)+1+8)
	key = append(key, keyPrefix...)
	key = append(key, identity...)
	key = append(key, '/')
	key = binary.BigEndian.AppendUint64(key, uint64(snapshotTime))
	return key
}

// conversationPrefix is the shared prefix of one conversation's keys.
func conversationPrefix(identity domain.ConversationIdentity) []byte {
	prefix := make([]byte, 0, len(keyPrefix)+len(identity)+1)
	prefix = append(prefix, keyPrefix...)
	prefix = append(prefix, identity...)
	prefix = append(prefix, '/')
	return prefix
}

// badgerLogger adapts our logger to Badger's Logger interface.
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
