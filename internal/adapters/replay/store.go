// Package replay wraps an LLM adapter with a sqlite-backed record/replay
// cache, keyed by a hash of the request, so a run can be replayed
// byte-for-byte against previously observed LLM responses — the basis for
// deterministic test fixtures and for re-running a pipeline without
// re-spending an LLM budget. Only the LLM adapter has a wrapper here.
package replay

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"synapse/internal/adapters"
	"synapse/internal/logging"
)

// Mode selects whether the store records live calls or replays only.
type Mode int

const (
	// ModeRecord calls through to the wrapped adapter and persists the
	// response before returning it.
	ModeRecord Mode = iota
	// ModeReplay never calls through; a cache miss is an error.
	ModeReplay
)

// Store is the sqlite-backed cache shared by every wrapped adapter in a
// run.
type Store struct {
	db   *sql.DB
	mode Mode
	mu   sync.Mutex
}

// Open creates or opens the replay database at path, initializing its
// schema if needed.
func Open(path string, mode Mode) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("replay: creating directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("replay: opening database: %w", err)
	}
	s := &Store{db: db, mode: mode}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("replay: initializing schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS adapter_calls (
		cache_key TEXT PRIMARY KEY,
		adapter TEXT NOT NULL,
		operation TEXT NOT NULL,
		request_json TEXT NOT NULL,
		response_json TEXT NOT NULL,
		provenance_json TEXT NOT NULL,
		recorded_at DATETIME NOT NULL
	);`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// cacheKey hashes the adapter name, operation, and marshaled request into
// a single lookup key.
func cacheKey(adapter, operation string, request any) (string, error) {
	reqJSON, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("replay: marshaling request: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(adapter))
	h.Write([]byte{0x1f})
	h.Write([]byte(operation))
	h.Write([]byte{0x1f})
	h.Write(reqJSON)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// lookup returns the cached response and provenance for a request, or
// (zero Provenance, false, nil) on a cache miss.
func (s *Store) lookup(ctx context.Context, adapter, operation string, request any, response any) (adapters.Provenance, bool, error) {
	key, err := cacheKey(adapter, operation, request)
	if err != nil {
		return adapters.Provenance{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var respJSON, provJSON string
	err = s.db.QueryRowContext(ctx, `SELECT response_json, provenance_json FROM adapter_calls WHERE cache_key = ?`, key).Scan(&respJSON, &provJSON)
	if err == sql.ErrNoRows {
		return adapters.Provenance{}, false, nil
	}
	if err != nil {
		return adapters.Provenance{}, false, fmt.Errorf("replay: lookup: %w", err)
	}
	if err := json.Unmarshal([]byte(respJSON), response); err != nil {
		return adapters.Provenance{}, false, fmt.Errorf("replay: decoding cached response: %w", err)
	}
	var prov adapters.Provenance
	if err := json.Unmarshal([]byte(provJSON), &prov); err != nil {
		return adapters.Provenance{}, false, fmt.Errorf("replay: decoding cached provenance: %w", err)
	}
	logging.AdaptersDebug("replay: cache hit for %s.%s (key=%s)", adapter, operation, key[:12])
	return prov, true, nil
}

// record persists a live response and provenance under the request's key.
func (s *Store) record(ctx context.Context, adapter, operation string, request, response any, prov adapters.Provenance) error {
	key, err := cacheKey(adapter, operation, request)
	if err != nil {
		return err
	}
	reqJSON, err := json.Marshal(request)
	if err != nil {
		return err
	}
	respJSON, err := json.Marshal(response)
	if err != nil {
		return err
	}
	provJSON, err := json.Marshal(prov)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO adapter_calls (cache_key, adapter, operation, request_json, response_json, provenance_json, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET response_json = excluded.response_json, provenance_json = excluded.provenance_json`,
		key, adapter, operation, string(reqJSON), string(respJSON), string(provJSON), time.Now().UTC())
	return err
}
