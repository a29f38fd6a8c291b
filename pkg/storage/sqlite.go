package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLite driver names as registered with database/sql.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverCGo     = "sqlite3" // github.com/mattn/go-sqlite3
)

// SQLiteConfig contains configuration for the SQLite backend.
type SQLiteConfig struct {
	// Driver is DriverModernc (default) or DriverCGo.
	Driver string

	// Path is the database file path.
	Path string

	// Default: 10
	MaxOpenConns int

	// Default: 5
	MaxIdleConns int

	// WALMode enables write-ahead logging.
	WALMode bool

	// BusyTimeout is how long a connection waits on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverModernc,
		Path:         "data/quill.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens the database, applies pragmas and creates the schema.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverModernc
	}
	if config.Driver != DriverModernc && config.Driver != DriverCGo {
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("unknown driver %q", config.Driver))
	}

	logger := slog.Default().With("component", "storage.sqlite")

	if dir := filepath.Dir(config.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError("sqlite", "mkdir", err)
		}
	}

	db, err := sql.Open(config.Driver, dsn(config))
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// dsn builds a connection string that applies the pragmas on every pooled
// connection. The two drivers spell pragma parameters differently.
func dsn(config *SQLiteConfig) string {
	params := url.Values{}
	busy := config.BusyTimeout.Milliseconds()

	switch config.Driver {
	case DriverCGo:
		if busy > 0 {
			params.Set("_busy_timeout", fmt.Sprint(busy))
		}
		if config.WALMode {
			params.Set("_journal_mode", "WAL")
		}
	default:
		if busy > 0 {
			params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
		}
		if config.WALMode {
			params.Add("_pragma", "journal_mode(WAL)")
		}
	}

	if len(params) == 0 {
		return "file:" + config.Path
	}
	return "file:" + config.Path + "?" + params.Encode()
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Save inserts a record.
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	prepare(record)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.RequestID,
		record.CreatedAt.UnixNano(),
		record.Provider,
		record.Model,
		record.UserID,
		record.Prompt,
		record.PrimaryText,
		record.BodyText,
		record.Confident,
		record.RecoveryPath,
		record.Status,
		record.ErrorType,
		record.Error,
		record.Preview,
		record.PromptTokens,
		record.CompletionTokens,
		record.TotalTokens,
		int64(record.Latency),
	)
	if err != nil {
		return NewStorageError("sqlite", "save", err)
	}

	s.logger.Debug("record saved", "id", record.ID, "status", record.Status)
	return nil
}

// Get returns one record by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM generations WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewStorageError("sqlite", "get", err)
	}
	return record, nil
}

// List returns matching records, newest first.
func (s *SQLiteStore) List(ctx context.Context, query *Query) ([]*Record, error) {
	where, args := buildWhereClause(query)

	stmt := `SELECT ` + columns + ` FROM generations` + where + ` ORDER BY created_at DESC, id DESC`
	if query != nil && (query.Limit > 0 || query.Offset > 0) {
		limit := query.Limit
		if limit <= 0 {
			limit = -1
		}
		stmt += ` LIMIT ? OFFSET ?`
		args = append(args, limit, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	results := []*Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "list", err)
	}
	return results, nil
}

// Count returns the number of matching records.
func (s *SQLiteStore) Count(ctx context.Context, query *Query) (int64, error) {
	where, args := buildWhereClause(query)

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generations`+where, args...).Scan(&n); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return n, nil
}

// DeleteOlderThan removes records created before cutoff.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generations WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_older_than", err)
	}
	return res.RowsAffected()
}

// DeleteOldest keeps the newest keep records and removes the rest.
func (s *SQLiteStore) DeleteOldest(ctx context.Context, keep int64) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM generations WHERE id NOT IN (
			SELECT id FROM generations ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_oldest", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	return nil
}

func buildWhereClause(query *Query) (string, []any) {
	if query == nil {
		return "", nil
	}

	var conds []string
	var args []any

	if query.Provider != "" {
		conds = append(conds, "provider = ?")
		args = append(args, query.Provider)
	}
	if query.Model != "" {
		conds = append(conds, "model = ?")
		args = append(args, query.Model)
	}
	if query.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, query.Status)
	}
	if query.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, query.UserID)
	}
	if !query.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, query.Since.UnixNano())
	}
	if !query.Until.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, query.Until.UnixNano())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r         Record
		createdAt int64
		latency   int64
		requestID sql.NullString
		userID    sql.NullString
		primary   sql.NullString
		body      sql.NullString
		path      sql.NullString
		errType   sql.NullString
		errText   sql.NullString
		preview   sql.NullString
		prompt    sql.NullInt64
		compl     sql.NullInt64
		total     sql.NullInt64
	)

	err := row.Scan(
		&r.ID, &requestID, &createdAt, &r.Provider, &r.Model, &userID, &r.Prompt,
		&primary, &body, &r.Confident, &path,
		&r.Status, &errType, &errText, &preview,
		&prompt, &compl, &total, &latency,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt = time.Unix(0, createdAt).UTC()
	r.Latency = time.Duration(latency)
	r.RequestID = requestID.String
	r.UserID = userID.String
	r.PrimaryText = primary.String
	r.BodyText = body.String
	r.RecoveryPath = path.String
	r.ErrorType = errType.String
	r.Error = errText.String
	r.Preview = preview.String
	r.PromptTokens = int(prompt.Int64)
	r.CompletionTokens = int(compl.Int64)
	r.TotalTokens = int(total.Int64)

	return &r, nil
}
