package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/heartlinehq/heartline/internal/domain"
	"github.com/heartlinehq/heartline/internal/shared"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writes so webhook bursts rarely hit SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		phone_number TEXT PRIMARY KEY,
		first_interaction INTEGER NOT NULL,
		last_interaction INTEGER NOT NULL,
		total_messages INTEGER NOT NULL DEFAULT 0,
		risk_level INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		metadata_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_users_last_interaction ON users(last_interaction) WHERE is_active = 1;

	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phone_number TEXT NOT NULL,
		body TEXT NOT NULL,
		direction TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		risk_categories TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_phone ON conversations(phone_number, created_at);

	CREATE TABLE IF NOT EXISTS crisis_events (
		id TEXT PRIMARY KEY,
		phone_number TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		risk_categories TEXT,
		message_preview TEXT NOT NULL DEFAULT '',
		escalated INTEGER NOT NULL DEFAULT 0,
		resolved INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_crisis_events_created ON crisis_events(created_at);

	CREATE TABLE IF NOT EXISTS checkins (
		id TEXT PRIMARY KEY,
		phone_number TEXT NOT NULL,
		sent_at INTEGER NOT NULL,
		responded INTEGER NOT NULL DEFAULT 0,
		response_text TEXT,
		response_time INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_checkins_pending ON checkins(phone_number) WHERE responded = 0;
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// execRetry runs a write statement, retrying transient SQLite conflicts
// with exponential backoff. The write mutex is held per attempt, not across
// the backoff sleeps.
func (s *SQLiteStore) execRetry(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		s.writeMu.Lock()
		res, err := s.db.ExecContext(ctx, query, args...)
		s.writeMu.Unlock()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // exponential backoff: 100ms, 200ms, 400ms
			slog.Debug("sqlite write conflict, retrying",
				"op", op,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}
		break
	}
	return nil, fmt.Errorf("%s: %w", op, lastErr)
}

// GetUser retrieves a user profile by phone number.
func (s *SQLiteStore) GetUser(ctx context.Context, phoneNumber string) (*domain.UserProfile, error) {
	query := `
		SELECT phone_number, first_interaction, last_interaction,
		       total_messages, risk_level, is_active, metadata_json
		FROM users WHERE phone_number = ?`

	row := s.db.QueryRowContext(ctx, query, phoneNumber)

	var user domain.UserProfile
	var first, last int64
	var riskRank, isActive int
	var metadataJSON sql.NullString

	err := row.Scan(
		&user.PhoneNumber, &first, &last,
		&user.TotalMessages, &riskRank, &isActive, &metadataJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.FirstInteraction = time.Unix(first, 0)
	user.LastInteraction = time.Unix(last, 0)
	user.RiskLevel = domain.RiskLevelFromRank(riskRank)
	user.IsActive = isActive != 0
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &user.Metadata); err != nil {
			return nil, fmt.Errorf("decode user metadata: %w", err)
		}
	}

	return &user, nil
}

// TouchUser creates the user row on first contact and advances
// last_interaction and total_messages afterwards. On conflict only those
// two columns move; the opt-in flag and risk level stay as they are.
func (s *SQLiteStore) TouchUser(ctx context.Context, phoneNumber string, at time.Time) error {
	query := `
	INSERT INTO users (phone_number, first_interaction, last_interaction, total_messages, risk_level, is_active)
	VALUES (?, ?, ?, 1, 0, 1)
	ON CONFLICT(phone_number) DO UPDATE SET
		last_interaction = excluded.last_interaction,
		total_messages = users.total_messages + 1`

	_, err := s.execRetry(ctx, "touch user", query, phoneNumber, at.Unix(), at.Unix())
	return err
}

// RaiseUserRisk raises the stored risk level to the given level. The column
// is a high-water mark: MAX only ever moves it up.
func (s *SQLiteStore) RaiseUserRisk(ctx context.Context, phoneNumber string, level domain.RiskLevel) error {
	now := time.Now().Unix()
	query := `
	INSERT INTO users (phone_number, first_interaction, last_interaction, total_messages, risk_level, is_active)
	VALUES (?, ?, ?, 0, ?, 1)
	ON CONFLICT(phone_number) DO UPDATE SET
		risk_level = MAX(users.risk_level, excluded.risk_level)`

	_, err := s.execRetry(ctx, "raise user risk", query, phoneNumber, now, now, level.Rank())
	return err
}

// SetUserActive flips the opt-in flag.
func (s *SQLiteStore) SetUserActive(ctx context.Context, phoneNumber string, active bool) error {
	query := `UPDATE users SET is_active = ? WHERE phone_number = ?`

	flag := 0
	if active {
		flag = 1
	}
	result, err := s.execRetry(ctx, "set user active", query, flag, phoneNumber)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("SetUserActive affected 0 rows", "phone_number", phoneNumber)
	}
	return nil
}

// InsertConversation appends one message to the conversation log.
func (s *SQLiteStore) InsertConversation(ctx context.Context, rec *domain.ConversationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	categories, err := encodeCategories(rec.RiskCategories)
	if err != nil {
		return fmt.Errorf("encode risk categories: %w", err)
	}

	query := `
	INSERT INTO conversations (phone_number, body, direction, risk_level, risk_categories, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err = s.execRetry(ctx, "insert conversation", query,
		rec.PhoneNumber, rec.Body, string(rec.Direction),
		string(rec.RiskLevel), categories, rec.CreatedAt.Unix(),
	)
	return err
}

// RecentConversations returns the user's most recent messages, newest first.
func (s *SQLiteStore) RecentConversations(ctx context.Context, phoneNumber string, limit int) ([]domain.ConversationRecord, error) {
	query := `
		SELECT phone_number, body, direction, risk_level, risk_categories, created_at
		FROM conversations
		WHERE phone_number = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, phoneNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer closeRows(rows, "conversations")

	var recs []domain.ConversationRecord
	for rows.Next() {
		var rec domain.ConversationRecord
		var direction, level string
		var categories sql.NullString
		var createdAt int64

		if err := rows.Scan(
			&rec.PhoneNumber, &rec.Body, &direction, &level, &categories, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}

		rec.Direction = domain.Direction(direction)
		rec.RiskLevel = domain.RiskLevel(level)
		rec.CreatedAt = time.Unix(createdAt, 0)
		if categories.Valid && categories.String != "" {
			if err := json.Unmarshal([]byte(categories.String), &rec.RiskCategories); err != nil {
				return nil, fmt.Errorf("decode risk categories: %w", err)
			}
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return recs, nil
}

// newULID generates a new ULID.
func newULID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// InsertCrisisEvent records a crisis detection for audit.
func (s *SQLiteStore) InsertCrisisEvent(ctx context.Context, ev *domain.CrisisEvent) error {
	if ev.ID == "" {
		ev.ID = newULID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	categories, err := encodeCategories(ev.RiskCategories)
	if err != nil {
		return fmt.Errorf("encode risk categories: %w", err)
	}

	query := `
	INSERT INTO crisis_events (id, phone_number, risk_level, risk_categories, message_preview, escalated, resolved, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.execRetry(ctx, "insert crisis event", query,
		ev.ID, ev.PhoneNumber, string(ev.RiskLevel), categories,
		ev.MessagePreview, boolToInt(ev.Escalated), boolToInt(ev.Resolved),
		ev.CreatedAt.Unix(),
	)
	return err
}

// ListCrisisEvents returns the most recent crisis events, newest first.
func (s *SQLiteStore) ListCrisisEvents(ctx context.Context, limit int) ([]domain.CrisisEvent, error) {
	query := `
		SELECT id, phone_number, risk_level, risk_categories,
		       message_preview, escalated, resolved, created_at
		FROM crisis_events ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query crisis events: %w", err)
	}
	defer closeRows(rows, "crisis events")

	var events []domain.CrisisEvent
	for rows.Next() {
		var ev domain.CrisisEvent
		var level string
		var categories sql.NullString
		var escalated, resolved int
		var createdAt int64

		if err := rows.Scan(
			&ev.ID, &ev.PhoneNumber, &level, &categories,
			&ev.MessagePreview, &escalated, &resolved, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan crisis event row: %w", err)
		}

		ev.RiskLevel = domain.RiskLevel(level)
		ev.Escalated = escalated != 0
		ev.Resolved = resolved != 0
		ev.CreatedAt = time.Unix(createdAt, 0)
		if categories.Valid && categories.String != "" {
			if err := json.Unmarshal([]byte(categories.String), &ev.RiskCategories); err != nil {
				return nil, fmt.Errorf("decode risk categories: %w", err)
			}
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crisis events: %w", err)
	}
	return events, nil
}

// InsertCheckIn records an outbound check-in.
func (s *SQLiteStore) InsertCheckIn(ctx context.Context, ci *domain.CheckIn) error {
	if ci.ID == "" {
		ci.ID = newULID()
	}
	if ci.SentAt.IsZero() {
		ci.SentAt = time.Now()
	}

	query := `
	INSERT INTO checkins (id, phone_number, sent_at, responded)
	VALUES (?, ?, ?, ?)`

	_, err := s.execRetry(ctx, "insert checkin", query,
		ci.ID, ci.PhoneNumber, ci.SentAt.Unix(), boolToInt(ci.Responded),
	)
	return err
}

// MarkCheckInResponded marks the newest unanswered check-in for the user.
func (s *SQLiteStore) MarkCheckInResponded(ctx context.Context, phoneNumber, responseText string, at time.Time) (bool, error) {
	query := `
	UPDATE checkins SET responded = 1, response_text = ?, response_time = ?
	WHERE id = (
		SELECT id FROM checkins
		WHERE phone_number = ? AND responded = 0
		ORDER BY sent_at DESC LIMIT 1
	)`

	result, err := s.execRetry(ctx, "mark checkin responded", query,
		responseText, at.Unix(), phoneNumber,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListCheckIns returns the most recent check-ins, newest first.
func (s *SQLiteStore) ListCheckIns(ctx context.Context, limit int) ([]domain.CheckIn, error) {
	query := `
		SELECT id, phone_number, sent_at, responded, response_text, response_time
		FROM checkins ORDER BY sent_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query checkins: %w", err)
	}
	defer closeRows(rows, "checkins")

	var checkins []domain.CheckIn
	for rows.Next() {
		ci, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		checkins = append(checkins, ci)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkins: %w", err)
	}
	return checkins, nil
}

// ListCheckInCandidates returns active users at or above the given risk rank
// whose last interaction predates the cutoff and who have no unanswered
// check-in outstanding.
func (s *SQLiteStore) ListCheckInCandidates(ctx context.Context, minRank int, before time.Time) ([]domain.UserProfile, error) {
	query := `
		SELECT phone_number, first_interaction, last_interaction,
		       total_messages, risk_level, is_active, metadata_json
		FROM users
		WHERE is_active = 1
		  AND risk_level >= ?
		  AND last_interaction < ?
		  AND NOT EXISTS (
			SELECT 1 FROM checkins c
			WHERE c.phone_number = users.phone_number AND c.responded = 0
		  )`

	rows, err := s.db.QueryContext(ctx, query, minRank, before.Unix())
	if err != nil {
		return nil, fmt.Errorf("query checkin candidates: %w", err)
	}
	defer closeRows(rows, "checkin candidates")

	var users []domain.UserProfile
	for rows.Next() {
		var user domain.UserProfile
		var first, last int64
		var riskRank, isActive int
		var metadataJSON sql.NullString

		if err := rows.Scan(
			&user.PhoneNumber, &first, &last,
			&user.TotalMessages, &riskRank, &isActive, &metadataJSON,
		); err != nil {
			return nil, fmt.Errorf("scan checkin candidate row: %w", err)
		}

		user.FirstInteraction = time.Unix(first, 0)
		user.LastInteraction = time.Unix(last, 0)
		user.RiskLevel = domain.RiskLevelFromRank(riskRank)
		user.IsActive = isActive != 0
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &user.Metadata); err != nil {
				return nil, fmt.Errorf("decode user metadata: %w", err)
			}
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkin candidates: %w", err)
	}
	return users, nil
}

func scanCheckIn(rows *sql.Rows) (domain.CheckIn, error) {
	var ci domain.CheckIn
	var sentAt int64
	var responded int
	var responseText sql.NullString
	var responseTime sql.NullInt64

	if err := rows.Scan(
		&ci.ID, &ci.PhoneNumber, &sentAt, &responded, &responseText, &responseTime,
	); err != nil {
		return domain.CheckIn{}, fmt.Errorf("scan checkin row: %w", err)
	}

	ci.SentAt = time.Unix(sentAt, 0)
	ci.Responded = responded != 0
	ci.ResponseText = responseText.String
	if responseTime.Valid {
		ts := time.Unix(responseTime.Int64, 0)
		ci.ResponseTime = &ts
	}
	return ci, nil
}

// encodeCategories renders a category list as JSON, or NULL when empty.
func encodeCategories(categories []string) (any, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(categories)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "what", what, "error", err)
	}
}
