// Package badgerstore implements the repositories on an embedded BadgerDB.
//
// Records are stored as JSON under slash-separated keys scoped by user id:
//
//	entry/{user}/{id}                   daily entry
//	entrydate/{user}/{date}             entry id for a date
//	summary/{user}/{entry}              daily summary
//	advice/{user}/{entry}               advice record
//	insight/{user}/{week_start}         weekly insight record
//	tracking/{user}/{id}                advice tracking item
//	trackingentry/{user}/{entry}/{id}   index of tracking items per entry
package badgerstore

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

// Config holds BadgerDB settings
type Config struct {
	// Path is ignored when InMemory is set
	Path       string
	InMemory   bool
	SyncWrites bool

	// GCInterval of 0 disables value log garbage collection
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// DefaultConfig returns durable settings for a database at path
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns settings for a throwaway database
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// DB is an open BadgerDB with an optional background GC loop
type DB struct {
	db   *badger.DB
	log  logger.Logger
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Open opens the database described by cfg
func Open(cfg Config, log logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required unless in-memory")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{log: log})

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	d := &DB{db: bdb, log: log}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		d.stop = make(chan struct{})
		d.done = make(chan struct{})
		go d.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return d, nil
}

// Close stops the GC loop and closes the database
func (d *DB) Close() error {
	var err error
	d.once.Do(func() {
		if d.stop != nil {
			close(d.stop)
			<-d.done
		}
		err = d.db.Close()
	})
	return err
}

func (d *DB) runGC(interval time.Duration, ratio float64) {
	defer close(d.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			// ErrNoRewrite only means there was nothing to collect
			if err := d.db.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				d.log.Warn("badger value log GC failed", logger.Err(err))
			}
		}
	}
}

// NewStore wires every repository onto db. Closing the store closes db.
func NewStore(db *DB) *repository.Store {
	return &repository.Store{
		Entries:   &entryRepository{db: db.db},
		Summaries: &summaryRepository{db: db.db},
		Advice:    &adviceRepository{db: db.db},
		Insights:  &insightRepository{db: db.db},
		Tracking:  &trackingRepository{db: db.db},
		Closer:    db,
	}
}

// badgerLogger routes badger's printf-style logging into the structured logger.
// Info output is demoted to debug, badger is chatty at startup.
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...), logger.String("component", "badger"))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...), logger.String("component", "badger"))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), logger.String("component", "badger"))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), logger.String("component", "badger"))
}
