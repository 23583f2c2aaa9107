package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/devfahim/levelbot/internal/models"
)

//go:embed schema_sqlite.sql
var sqliteSchema embed.FS

// SQLiteStorage is the default backend: a single-file database next to the
// bot, mirroring the original deployment shape.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database under dataDir and applies the
// schema. Pass ":memory:" for an in-memory database (used by tests).
func OpenSQLite(dataDir string) (*SQLiteStorage, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "bot.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	schema, err := sqliteSchema.ReadFile("schema_sqlite.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

const userColumns = `telegram_id, username, first_name, last_name, created_at,
	last_interaction, command_count, wallet, bank, loan, last_daily_work,
	xp, current_xp, required_xp, level, rank, achievements, inventory,
	is_premium, premium_expires, ban, ban_reason, language, referrer,
	referral_code, referrals, settings, cooldowns, last_active_group`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(sc rowScanner) (*models.UserProfile, error) {
	var (
		u                                  models.UserProfile
		createdAt, lastInteraction         int64
		lastDailyWork, premiumExpires      sql.NullInt64
		achievements, inventory, referrals string
		settings, cooldowns                string
		isPremium, ban                     int
	)
	err := sc.Scan(
		&u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &createdAt,
		&lastInteraction, &u.CommandCount, &u.Wallet, &u.Bank, &u.Loan,
		&lastDailyWork, &u.XP, &u.CurrentXP, &u.RequiredXP, &u.Level,
		&u.Rank, &achievements, &inventory, &isPremium, &premiumExpires,
		&ban, &u.BanReason, &u.Language, &u.Referrer, &u.ReferralCode,
		&referrals, &settings, &cooldowns, &u.LastActiveGroup,
	)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(createdAt)
	u.LastInteraction = fromMillis(lastInteraction)
	u.LastDailyWork = timePtr(lastDailyWork)
	u.PremiumExpires = timePtr(premiumExpires)
	u.Achievements = decodeStrings(achievements)
	u.Inventory = decodeStrings(inventory)
	u.Referrals = decodeStrings(referrals)
	u.Settings = decodeBlob(settings)
	u.Cooldowns = decodeBlob(cooldowns)
	u.IsPremium = isPremium != 0
	u.Ban = ban != 0
	return &u, nil
}

func userArgs(u *models.UserProfile) []any {
	return []any{
		u.TelegramID, u.Username, u.FirstName, u.LastName, millis(u.CreatedAt),
		millis(u.LastInteraction), u.CommandCount, u.Wallet, u.Bank, u.Loan,
		nullMillis(u.LastDailyWork), u.XP, u.CurrentXP, u.RequiredXP, u.Level,
		u.Rank, encodeStrings(u.Achievements), encodeStrings(u.Inventory),
		boolToInt(u.IsPremium), nullMillis(u.PremiumExpires), boolToInt(u.Ban),
		u.BanReason, u.Language, u.Referrer, u.ReferralCode,
		encodeStrings(u.Referrals), encodeBlob(u.Settings),
		encodeBlob(u.Cooldowns), u.LastActiveGroup,
	}
}

func (s *SQLiteStorage) GetUser(ctx context.Context, telegramID string) (*models.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", telegramID, err)
	}
	return u, nil
}

func (s *SQLiteStorage) SaveUser(ctx context.Context, user *models.UserProfile) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			last_interaction = excluded.last_interaction,
			command_count = excluded.command_count,
			wallet = excluded.wallet,
			bank = excluded.bank,
			loan = excluded.loan,
			last_daily_work = excluded.last_daily_work,
			xp = excluded.xp,
			current_xp = excluded.current_xp,
			required_xp = excluded.required_xp,
			level = excluded.level,
			rank = excluded.rank,
			achievements = excluded.achievements,
			inventory = excluded.inventory,
			is_premium = excluded.is_premium,
			premium_expires = excluded.premium_expires,
			ban = excluded.ban,
			ban_reason = excluded.ban_reason,
			language = excluded.language,
			referrer = excluded.referrer,
			referral_code = excluded.referral_code,
			referrals = excluded.referrals,
			settings = excluded.settings,
			cooldowns = excluded.cooldowns,
			last_active_group = excluded.last_active_group`
	if _, err := s.db.ExecContext(ctx, query, userArgs(user)...); err != nil {
		return fmt.Errorf("saving user %s: %w", user.TelegramID, err)
	}
	return nil
}

func (s *SQLiteStorage) UserRank(ctx context.Context, telegramID string) (int, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE telegram_id = ?`, telegramID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("checking user %s: %w", telegramID, err)
	}
	if exists == 0 {
		return 0, ErrNotFound
	}

	var rank int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) + 1 FROM users
		WHERE xp > (SELECT xp FROM users WHERE telegram_id = ?)`, telegramID).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("ranking user %s: %w", telegramID, err)
	}
	return rank, nil
}

func (s *SQLiteStorage) TopUsersByXP(ctx context.Context, limit int) ([]*models.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY xp DESC, telegram_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top users: %w", err)
	}
	defer rows.Close()

	var users []*models.UserProfile
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStorage) GetGroup(ctx context.Context, groupID string) (*models.GroupProfile, error) {
	var (
		g         models.GroupProfile
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT group_id, prefix, created_at FROM groups WHERE group_id = ?`, groupID).
		Scan(&g.GroupID, &g.Prefix, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying group %s: %w", groupID, err)
	}
	g.CreatedAt = fromMillis(createdAt)
	return &g, nil
}

func (s *SQLiteStorage) SaveGroup(ctx context.Context, group *models.GroupProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO groups (group_id, prefix, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(group_id) DO UPDATE SET prefix = excluded.prefix`,
		group.GroupID, group.Prefix, millis(group.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving group %s: %w", group.GroupID, err)
	}
	return nil
}
