// Package lodstore persists LOD columns in SQLite with zstd-compressed
// payloads.
package lodstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/OCharnyshevich/lodgen/internal/lod"
	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

// Store is a SQLite-backed LOD column store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	log *slog.Logger
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens or creates the store at path, creating parent directories as
// needed.
func Open(path string, log *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("open lod store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open lod store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init lod store pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init lod store schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	log.Info("opened lod store", "path", path)
	return &Store{db: db, log: log, enc: enc, dec: dec}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lod_columns (
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			stage INTEGER NOT NULL,
			payload BLOB NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (x, z)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Put stores the columns of a chunk, replacing any previous entry.
func (s *Store) Put(ctx context.Context, cols *lod.Columns) error {
	raw, err := cols.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode columns %s: %w", cols.Pos, err)
	}
	payload := s.enc.EncodeAll(raw, nil)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lod_columns (x, z, stage, payload, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(x, z) DO UPDATE SET stage = excluded.stage, payload = excluded.payload, updated_at = excluded.updated_at`,
		cols.Pos.X, cols.Pos.Z, int(cols.Stage), payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store columns %s: %w", cols.Pos, err)
	}
	return nil
}

// Get returns the stored columns of a chunk, or nil when none are stored.
func (s *Store) Get(ctx context.Context, pos worldgen.ChunkPos) (*lod.Columns, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM lod_columns WHERE x = ? AND z = ?`, pos.X, pos.Z).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load columns %s: %w", pos, err)
	}

	raw, err := s.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress columns %s: %w", pos, err)
	}
	cols := &lod.Columns{}
	if err := cols.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("decode columns %s: %w", pos, err)
	}
	return cols, nil
}

// Has reports whether columns are stored for pos at stage atLeast or later.
func (s *Store) Has(ctx context.Context, pos worldgen.ChunkPos, atLeast worldgen.Stage) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lod_columns WHERE x = ? AND z = ? AND stage >= ?`, pos.X, pos.Z, int(atLeast)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check columns %s: %w", pos, err)
	}
	return n > 0, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lod_columns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count columns: %w", err)
	}
	return n, nil
}

// Close releases the database and codecs.
func (s *Store) Close() error {
	s.dec.Close()
	encErr := s.enc.Close()
	return errors.Join(s.db.Close(), encErr)
}
