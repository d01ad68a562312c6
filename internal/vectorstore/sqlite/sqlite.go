// Package sqlite persists embedding indexes as a single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"rfpassist/internal/domain"
	"rfpassist/internal/vectorstore"
)

// FileName is the database file inside an index directory.
const FileName = "index.db"

const (
	keyEmbedder = "embedder"
	keyState    = "embedder_state"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	position  INTEGER PRIMARY KEY,
	content   TEXT NOT NULL,
	embedding BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value BLOB
);`

// Write stores snap in dir/index.db, replacing any previous content.
func Write(ctx context.Context, dir string, snap vectorstore.Snapshot) error {
	if len(snap.Chunks) != len(snap.Vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(snap.Chunks), len(snap.Vectors))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing old index: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?), (?, ?)`,
		keyEmbedder, []byte(snap.Embedder), keyState, snap.State); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (position, content, embedding) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for i, c := range snap.Chunks {
		if _, err := stmt.ExecContext(ctx, c.Index, c.Text, float32SliceToBytes(snap.Vectors[i])); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Read loads the snapshot stored in dir/index.db. A missing file yields an
// error wrapping os.ErrNotExist.
func Read(ctx context.Context, dir string) (vectorstore.Snapshot, error) {
	var snap vectorstore.Snapshot
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		return snap, err
	}
	db, err := sql.Open("sqlite", path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return snap, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	settings := map[string][]byte{}
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return snap, fmt.Errorf("querying settings: %w", err)
	}
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scanning setting: %w", err)
		}
		settings[k] = v
	}
	if err := rows.Close(); err != nil {
		return snap, err
	}
	snap.Embedder = string(settings[keyEmbedder])
	snap.State = settings[keyState]

	rows, err = db.QueryContext(ctx, `SELECT position, content, embedding FROM chunks ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.Index, &c.Text, &blob); err != nil {
			return snap, fmt.Errorf("scanning chunk: %w", err)
		}
		snap.Chunks = append(snap.Chunks, c)
		snap.Vectors = append(snap.Vectors, bytesToFloat32Slice(blob))
	}
	return snap, rows.Err()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
