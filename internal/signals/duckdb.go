// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package signals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bondscore/internal/metrics"
)

// Config holds DuckDB provider configuration.
type Config struct {
	// Path is the database file. Empty opens a private in-memory database.
	Path string

	// Threads is the DuckDB worker thread count.
	// Default: runtime.NumCPU()
	Threads int

	// MaxMemory caps DuckDB memory, e.g. "1GB".
	// Default: "1GB"
	MaxMemory string

	// QueryTimeout bounds every query.
	// Default: 5s
	QueryTimeout time.Duration

	// ReadOnly opens the file in read-only access mode.
	// Ignored for in-memory databases.
	ReadOnly bool
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() Config {
	return Config{
		Threads:      runtime.NumCPU(),
		MaxMemory:    "1GB",
		QueryTimeout: 5 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("threads must not be negative, got %d", c.Threads)
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query timeout must not be negative, got %v", c.QueryTimeout)
	}
	if c.ReadOnly && c.Path == "" {
		return errors.New("read-only mode requires a database path")
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Threads == 0 {
		c.Threads = d.Threads
	}
	if c.MaxMemory == "" {
		c.MaxMemory = d.MaxMemory
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = d.QueryTimeout
	}
}

// connString builds the DuckDB DSN. Extension autoloading is disabled so a
// restricted network never stalls startup.
func (c *Config) connString() string {
	path := c.Path
	access := "read_write"
	if path == "" {
		path = ":memory:"
	} else if c.ReadOnly {
		access = "read_only"
	}
	return fmt.Sprintf("%s?access_mode=%s&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, access, c.Threads, c.MaxMemory)
}

// DuckDBProvider implements Provider on DuckDB.
type DuckDBProvider struct {
	db      *sql.DB
	timeout time.Duration
	ownsDB  bool
	logger  zerolog.Logger
}

var _ Provider = (*DuckDBProvider)(nil)

// Open opens the database described by cfg and ensures the schema exists
// unless the database is read-only.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(cfg Config, logger zerolog.Logger) (*DuckDBProvider, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid signals config: %w", err)
	}

	if dir := filepath.Dir(cfg.Path); cfg.Path != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create signals directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("duckdb", cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("open signals database: %w", err)
	}

	p := NewDuckDBProvider(db, cfg.QueryTimeout, logger)
	p.ownsDB = true

	if !cfg.ReadOnly {
		if err := p.EnsureSchema(context.Background()); err != nil {
			closeQuietly(db)
			return nil, err
		}
	}

	p.logger.Info().
		Str("path", cfg.Path).
		Bool("read_only", cfg.ReadOnly).
		Int("threads", cfg.Threads).
		Msg("Signals database opened")
	return p, nil
}

// NewDuckDBProvider wraps an open DuckDB handle. The caller keeps ownership of db.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewDuckDBProvider(db *sql.DB, timeout time.Duration, logger zerolog.Logger) *DuckDBProvider {
	if timeout <= 0 {
		timeout = DefaultConfig().QueryTimeout
	}
	return &DuckDBProvider{
		db:      db,
		timeout: timeout,
		logger:  logger.With().Str("component", "signals").Logger(),
	}
}

// DB returns the underlying handle.
func (p *DuckDBProvider) DB() *sql.DB {
	return p.db
}

// Close closes the database if the provider opened it.
func (p *DuckDBProvider) Close() error {
	if !p.ownsDB {
		return nil
	}
	return p.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id VARCHAR PRIMARY KEY,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS user_interests (
		user_id VARCHAR NOT NULL,
		interest VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		user_id VARCHAR NOT NULL,
		other_id VARCHAR NOT NULL,
		occurred_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS connections (
		user_id VARCHAR NOT NULL,
		other_id VARCHAR NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_interests_user ON user_interests(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_other ON interactions(other_id)`,
}

// EnsureSchema creates the signal tables if they do not exist.
func (p *DuckDBProvider) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create signals schema: %w", err)
		}
	}
	return nil
}

// Interests returns the declared interests of each requested user.
func (p *DuckDBProvider) Interests(ctx context.Context, userIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}
	query := `SELECT DISTINCT user_id, interest FROM user_interests
		WHERE user_id IN (` + placeholders(len(userIDs)) + `)
		ORDER BY user_id, interest`

	err := p.query(ctx, "interests", query, args, func(rows *sql.Rows) error {
		var userID, interest string
		if err := rows.Scan(&userID, &interest); err != nil {
			return err
		}
		out[userID] = append(out[userID], interest)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const interactionStatsQuery = `
SELECT other, CAST(SUM(sent) AS BIGINT), CAST(SUM(received) AS BIGINT), MAX(occurred_at)
FROM (
	SELECT other_id AS other, 1 AS sent, 0 AS received, occurred_at
	FROM interactions WHERE user_id = ?
	UNION ALL
	SELECT user_id AS other, 0 AS sent, 1 AS received, occurred_at
	FROM interactions WHERE other_id = ?
) directed
WHERE other <> ?
GROUP BY other`

// InteractionStats returns per-counterpart interaction statistics.
func (p *DuckDBProvider) InteractionStats(ctx context.Context, userID string) (map[string]InteractionStat, error) {
	out := make(map[string]InteractionStat)
	err := p.query(ctx, "interaction_stats", interactionStatsQuery, []any{userID, userID, userID}, func(rows *sql.Rows) error {
		var (
			other          string
			sent, received int64
			last           sql.NullTime
		)
		if err := rows.Scan(&other, &sent, &received, &last); err != nil {
			return err
		}
		stat := InteractionStat{Sent: int(sent), Received: int(received)}
		if last.Valid {
			stat.Last = last.Time.UTC()
		}
		out[other] = stat
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// edgesCTE turns the connections table into an undirected edge list.
const edgesCTE = `
WITH edges AS (
	SELECT user_id AS a, other_id AS b FROM connections
	UNION
	SELECT other_id AS a, user_id AS b FROM connections
)`

const mutualConnectionsQuery = edgesCTE + `
SELECT e2.b, CAST(COUNT(DISTINCT e1.b) AS BIGINT)
FROM edges e1
JOIN edges e2 ON e1.b = e2.a
WHERE e1.a = ? AND e2.b <> ?
GROUP BY e2.b`

// MutualConnections returns the number of shared connections per user.
func (p *DuckDBProvider) MutualConnections(ctx context.Context, userID string) (map[string]int, error) {
	out := make(map[string]int)
	err := p.query(ctx, "mutual_connections", mutualConnectionsQuery, []any{userID, userID}, func(rows *sql.Rows) error {
		var (
			other string
			n     int64
		)
		if err := rows.Scan(&other, &n); err != nil {
			return err
		}
		out[other] = int(n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const candidatePoolQuery = edgesCTE + `,
pool AS (
	SELECT other_id AS candidate FROM interactions WHERE user_id = ?
	UNION
	SELECT user_id AS candidate FROM interactions WHERE other_id = ?
	UNION
	SELECT e2.b AS candidate FROM edges e1 JOIN edges e2 ON e1.b = e2.a WHERE e1.a = ?
	UNION
	SELECT o.user_id AS candidate
	FROM user_interests m JOIN user_interests o ON m.interest = o.interest
	WHERE m.user_id = ?
)
SELECT p.candidate
FROM pool p
LEFT JOIN users u ON u.user_id = p.candidate
WHERE p.candidate <> ? AND COALESCE(u.active, TRUE)
ORDER BY p.candidate
LIMIT ?`

// CandidatePool returns up to limit users that share history, connections
// or interests with userID. Users flagged inactive are skipped.
func (p *DuckDBProvider) CandidatePool(ctx context.Context, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	args := []any{userID, userID, userID, userID, userID, limit}
	return p.scanStrings(ctx, "candidate_pool", candidatePoolQuery, args)
}

// EligibleUsers returns the active users in id order.
func (p *DuckDBProvider) EligibleUsers(ctx context.Context) ([]string, error) {
	return p.scanStrings(ctx, "eligible_users", `SELECT user_id FROM users WHERE active ORDER BY user_id`, nil)
}

func (p *DuckDBProvider) scanStrings(ctx context.Context, op, query string, args []any) ([]string, error) {
	out := []string{}
	err := p.query(ctx, op, query, args, func(rows *sql.Rows) error {
		var s string
		if err := rows.Scan(&s); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// query runs a read query under the provider timeout and feeds every row to scan.
func (p *DuckDBProvider) query(ctx context.Context, op, query string, args []any, scan func(*sql.Rows) error) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQuery(op, time.Since(start), err)
		if err != nil {
			p.logger.Debug().Err(err).Str("operation", op).Msg("Signals query failed")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("%s scan: %w", op, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
