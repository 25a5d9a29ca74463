package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"foley/internal/config"
)

// Candidate is one ranked search result from the asset library.
type Candidate struct {
	AssetID     string
	Description string
	Query       string
	AudioPath   string
	Score       float64
}

// NewAsset describes an asset to be inserted into the library.
type NewAsset struct {
	AssetID     string
	Description string
	Query       string
	AudioPath   string
	Embedding   []float32
}

// Stats aggregates library contents for diagnostic output.
type Stats struct {
	Total        int
	WithVector   int
	OldestCreate time.Time
	NewestCreate time.Time
}

// Store manages asset library persistence backed by SQLite. An advisory
// file lock around the database prevents two foley processes from mutating
// the same library concurrently.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the library database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.LibraryDir, "library.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire library lock: %w", err)
	}
	if !locked {
		return nil, errors.New("library is locked by another foley process")
	}

	dbPath := filepath.Join(cfg.Paths.LibraryDir, "library.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath, lock: lock}, nil
}

// Close closes the underlying database connection and releases the lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	return err
}

// Insert adds a new asset to the library.
func (s *Store) Insert(ctx context.Context, asset NewAsset) (int64, error) {
	if strings.TrimSpace(asset.AssetID) == "" {
		return 0, errors.New("asset id is required")
	}
	if strings.TrimSpace(asset.AudioPath) == "" {
		return 0, errors.New("audio path is required")
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO assets (asset_id, description, query, audio_path, embedding, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		asset.AssetID,
		asset.Description,
		asset.Query,
		asset.AudioPath,
		encodeVector(asset.Embedding),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert asset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Search returns the library assets most similar to the given embedding,
// sorted by descending cosine similarity. Assets without a stored embedding
// are skipped.
func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]Candidate, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT asset_id, description, query, audio_path, embedding FROM assets WHERE embedding IS NOT NULL`,
	)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var (
			c    Candidate
			blob []byte
		)
		if err := rows.Scan(&c.AssetID, &c.Description, &c.Query, &c.AudioPath, &blob); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		stored, err := decodeVector(blob)
		if err != nil || len(stored) != len(vector) {
			continue
		}
		c.Score = cosineSimilarity(vector, stored)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if limit < len(candidates) {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// SearchText performs a keyword match over stored descriptions and queries.
// Every match carries the caller-provided fixed synthetic score; ordering is
// newest first so recent assets win ties.
func (s *Store) SearchText(ctx context.Context, keywords string, syntheticScore float64, limit int) ([]Candidate, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" || limit <= 0 {
		return nil, nil
	}

	terms := strings.Fields(strings.ToLower(keywords))
	clauses := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)*2+1)
	for _, term := range terms {
		clauses = append(clauses, "(lower(description) LIKE ? OR lower(query) LIKE ?)")
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern)
	}
	args = append(args, limit)

	query := `SELECT asset_id, description, query, audio_path FROM assets WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.AssetID, &c.Description, &c.Query, &c.AudioPath); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		c.Score = syntheticScore
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// List returns all assets, newest first.
func (s *Store) List(ctx context.Context) ([]Candidate, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT asset_id, description, query, audio_path FROM assets ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.AssetID, &c.Description, &c.Query, &c.AudioPath); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, c)
	}
	return assets, rows.Err()
}

// Stats returns aggregate counts for diagnostic output.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1), COUNT(embedding), MIN(created_at), MAX(created_at) FROM assets`,
	)
	var oldest, newest sql.NullString
	if err := row.Scan(&stats.Total, &stats.WithVector, &oldest, &newest); err != nil {
		return Stats{}, fmt.Errorf("library stats: %w", err)
	}
	if oldest.Valid {
		if t, err := time.Parse(time.RFC3339Nano, oldest.String); err == nil {
			stats.OldestCreate = t
		}
	}
	if newest.Valid {
		if t, err := time.Parse(time.RFC3339Nano, newest.String); err == nil {
			stats.NewestCreate = t
		}
	}
	return stats, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Health captures diagnostic information about the library database.
type Health struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	TotalAssets      int
	Error            string
}

// CheckHealth returns diagnostic information about the library database.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("library database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat library database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("library database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("library database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping library database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'assets'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
			return health, nil
		}
		health.Error = err.Error()
		return health, fmt.Errorf("query table info: %w", err)
	}
	health.TableExists = true

	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM assets").Scan(&health.TotalAssets); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count assets: %w", err)
	}
	return health, nil
}
