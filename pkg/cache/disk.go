package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	ttl_seconds INTEGER NOT NULL,
	hit_count INTEGER NOT NULL DEFAULT 0
);
`

// DiskStore is the durable cache tier, backed by SQLite.
type DiskStore struct {
	db *sql.DB
}

// OpenDisk opens (and migrates) the disk tier at dbPath.
func OpenDisk(dbPath string) (*DiskStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(createEntriesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &DiskStore{db: db}, nil
}

// Get loads an entry. It does not check expiry; the caller owns the clock.
func (d *DiskStore) Get(key string) (*entry, bool, error) {
	var value []byte
	var createdUnix, ttlSeconds int64

	err := d.db.QueryRow(
		`SELECT value, created_at, ttl_seconds FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &createdUnix, &ttlSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("disk cache get: %w", err)
	}

	if _, err := d.db.Exec(
		`UPDATE cache_entries SET hit_count = hit_count + 1 WHERE key = ?`, key,
	); err != nil {
		return nil, false, fmt.Errorf("disk cache hit count: %w", err)
	}

	return &entry{
		value:     value,
		createdAt: time.Unix(createdUnix, 0),
		ttl:       time.Duration(ttlSeconds) * time.Second,
	}, true, nil
}

// Set stores or overwrites an entry.
func (d *DiskStore) Set(key string, value []byte, createdAt time.Time, ttl time.Duration) error {
	_, err := d.db.Exec(
		`INSERT OR REPLACE INTO cache_entries (key, value, created_at, ttl_seconds, hit_count)
		 VALUES (?, ?, ?, ?, 0)`,
		key, value, createdAt.Unix(), int64(ttl.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("disk cache set: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (d *DiskStore) Delete(key string) error {
	if _, err := d.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("disk cache delete: %w", err)
	}
	return nil
}

// PruneExpired removes entries whose TTL elapsed before now. Entries with a
// non-positive TTL never expire.
func (d *DiskStore) PruneExpired(now time.Time) (int64, error) {
	res, err := d.db.Exec(
		`DELETE FROM cache_entries WHERE ttl_seconds > 0 AND created_at + ttl_seconds < ?`,
		now.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("disk cache prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Len reports the number of stored entries.
func (d *DiskStore) Len() (int64, error) {
	var count int64
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("disk cache len: %w", err)
	}
	return count, nil
}

// Clear removes all entries.
func (d *DiskStore) Clear() error {
	if _, err := d.db.Exec(`DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("disk cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (d *DiskStore) Close() error {
	return d.db.Close()
}
