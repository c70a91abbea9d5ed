// Package storage keeps a sqlite journal of the frames crossing game links.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/ZentaChain/mirlink/pkg/protocol"
)

var ErrClosed = errors.New("journal closed")

// Recent limits
const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 1000
)

// Frame is one journaled message
type Frame struct {
	ID         int64                 `json:"id"`
	RecordedAt time.Time             `json:"recorded_at"`
	Direction  string                `json:"direction"`
	Code       uint8                 `json:"code"`
	Name       string                `json:"name"`
	Class      protocol.FramingClass `json:"class"`
	Unknown    bool                  `json:"unknown"`
	BodyLen    int                   `json:"body_len"`
	Body       []byte                `json:"body,omitempty"`
}

// KindStats aggregates frames of one code in one direction
type KindStats struct {
	Direction string `json:"direction"`
	Code      uint8  `json:"code"`
	Name      string `json:"name"`
	Count     int64  `json:"count"`
	Bytes     int64  `json:"bytes"`
}

// Stats summarizes the journal
type Stats struct {
	Total  int64       `json:"total"`
	Oldest *time.Time  `json:"oldest,omitempty"`
	ByKind []KindStats `json:"by_kind"`
}

// HourBucket counts frames recorded within one hour
type HourBucket struct {
	Hour     time.Time `json:"hour"`
	Messages int64     `json:"messages"`
	Bytes    int64     `json:"bytes"`
}

// Options configures a Journal
type Options struct {
	// Retention removes frames older than this on every PruneInterval. Zero keeps everything.
	Retention     time.Duration
	PruneInterval time.Duration
	// SkipBodies stores lengths only.
	SkipBodies bool
	Logger     zerolog.Logger
}

// Journal stores frames in sqlite. It is safe for concurrent use.
type Journal struct {
	db   *sql.DB
	opts Options
	log  zerolog.Logger
	now  func() time.Time

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open opens or creates the journal at path.
func Open(path string, opts Options) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	j := &Journal{
		db:   db,
		opts: opts,
		log:  opts.Logger,
		now:  time.Now,
		stop: make(chan struct{}),
	}

	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	if opts.Retention > 0 {
		interval := opts.PruneInterval
		if interval <= 0 {
			interval = time.Hour
		}
		j.wg.Add(1)
		go j.pruneLoop(interval)
	}

	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS frames (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		direction TEXT NOT NULL,
		code INTEGER NOT NULL,
		name TEXT NOT NULL,
		class INTEGER NOT NULL,
		unknown INTEGER NOT NULL DEFAULT 0,
		body_len INTEGER NOT NULL,
		body BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_frames_recorded ON frames(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_frames_hour ON frames(hour);
	`

	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record stores m. It satisfies network.Recorder.
func (j *Journal) Record(direction string, m *protocol.Message) error {
	at := j.now()
	var body []byte
	if !j.opts.SkipBodies {
		body = m.Body
	}

	query := `
		INSERT INTO frames (recorded_at, hour, direction, code, name, class, unknown, body_len, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.Exec(query,
		at.UnixNano(), bucketHour(at.Unix()), direction,
		int(m.Kind), m.Attr.Name, int(m.Attr.Class), boolToInt(m.Unknown),
		len(m.Body), body,
	)
	if err != nil {
		return fmt.Errorf("failed to record frame: %w", err)
	}
	return nil
}

// Recent returns up to limit frames, newest first.
func (j *Journal) Recent(limit int) ([]Frame, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	query := `
		SELECT id, recorded_at, direction, code, name, class, unknown, body_len, body
		FROM frames
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := j.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	frames := make([]Frame, 0, limit)
	for rows.Next() {
		var (
			f       Frame
			at      int64
			code    int
			class   int
			unknown int
		)
		if err := rows.Scan(&f.ID, &at, &f.Direction, &code, &f.Name, &class, &unknown, &f.BodyLen, &f.Body); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		f.RecordedAt = time.Unix(0, at).UTC()
		f.Code = uint8(code)
		f.Class = protocol.FramingClass(class)
		f.Unknown = unknown != 0
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// Stats returns totals grouped by direction and code.
func (j *Journal) Stats() (*Stats, error) {
	stats := &Stats{ByKind: []KindStats{}}

	var oldest sql.NullInt64
	err := j.db.QueryRow(`SELECT COUNT(*), MIN(recorded_at) FROM frames`).Scan(&stats.Total, &oldest)
	if err != nil {
		return nil, fmt.Errorf("failed to count frames: %w", err)
	}
	if oldest.Valid {
		t := time.Unix(0, oldest.Int64).UTC()
		stats.Oldest = &t
	}

	query := `
		SELECT direction, code, name, COUNT(*), SUM(body_len)
		FROM frames
		GROUP BY direction, code, name
		ORDER BY direction, code
	`
	rows, err := j.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate frames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ks   KindStats
			code int
		)
		if err := rows.Scan(&ks.Direction, &code, &ks.Name, &ks.Count, &ks.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		ks.Code = uint8(code)
		stats.ByKind = append(stats.ByKind, ks)
	}
	return stats, rows.Err()
}

// Hourly returns per-hour counts for frames recorded at or after since.
func (j *Journal) Hourly(since time.Time) ([]HourBucket, error) {
	query := `
		SELECT hour, COUNT(*), SUM(body_len)
		FROM frames
		WHERE hour >= ?
		GROUP BY hour
		ORDER BY hour ASC
	`
	rows, err := j.db.Query(query, bucketHour(since.Unix()))
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly counts: %w", err)
	}
	defer rows.Close()

	buckets := []HourBucket{}
	for rows.Next() {
		var (
			b    HourBucket
			hour int64
		)
		if err := rows.Scan(&hour, &b.Messages, &b.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan hourly counts: %w", err)
		}
		b.Hour = time.Unix(hour, 0).UTC()
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// Prune deletes frames older than age and returns how many were removed.
func (j *Journal) Prune(age time.Duration) (int64, error) {
	cutoff := j.now().Add(-age).UnixNano()
	result, err := j.db.Exec(`DELETE FROM frames WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune frames: %w", err)
	}
	return result.RowsAffected()
}

func (j *Journal) pruneLoop(interval time.Duration) {
	defer j.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			return
		case <-ticker.C:
			count, err := j.Prune(j.opts.Retention)
			if err != nil {
				j.log.Warn().Err(err).Msg("journal prune failed")
				continue
			}
			if count > 0 {
				j.log.Info().Int64("frames", count).Msg("journal pruned")
			}
		}
	}
}

// Close stops the pruner and closes the database.
func (j *Journal) Close() error {
	err := ErrClosed
	j.closeOnce.Do(func() {
		close(j.stop)
		j.wg.Wait()
		err = j.db.Close()
	})
	return err
}

// bucketHour truncates a unix timestamp to the start of its hour.
func bucketHour(ts int64) int64 {
	return ts - ts%3600
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
