package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/devfahim/levelbot/internal/models"
)

//go:embed schema_postgres.sql
var postgresSchema embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresStorage backs the profile store with PostgreSQL for deployments
// that outgrow the single-file default.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to the database: %w", err)
	}

	schema, err := postgresSchema.ReadFile("schema_postgres.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) GetUser(ctx context.Context, telegramID string) (*models.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", telegramID, err)
	}
	return u, nil
}

func (s *PostgresStorage) SaveUser(ctx context.Context, user *models.UserProfile) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			last_interaction = EXCLUDED.last_interaction,
			command_count = EXCLUDED.command_count,
			wallet = EXCLUDED.wallet,
			bank = EXCLUDED.bank,
			loan = EXCLUDED.loan,
			last_daily_work = EXCLUDED.last_daily_work,
			xp = EXCLUDED.xp,
			current_xp = EXCLUDED.current_xp,
			required_xp = EXCLUDED.required_xp,
			level = EXCLUDED.level,
			rank = EXCLUDED.rank,
			achievements = EXCLUDED.achievements,
			inventory = EXCLUDED.inventory,
			is_premium = EXCLUDED.is_premium,
			premium_expires = EXCLUDED.premium_expires,
			ban = EXCLUDED.ban,
			ban_reason = EXCLUDED.ban_reason,
			language = EXCLUDED.language,
			referrer = EXCLUDED.referrer,
			referral_code = EXCLUDED.referral_code,
			referrals = EXCLUDED.referrals,
			settings = EXCLUDED.settings,
			cooldowns = EXCLUDED.cooldowns,
			last_active_group = EXCLUDED.last_active_group`
	if _, err := s.db.ExecContext(ctx, query, userArgs(user)...); err != nil {
		return fmt.Errorf("saving user %s: %w", user.TelegramID, err)
	}
	return nil
}

func (s *PostgresStorage) UserRank(ctx context.Context, telegramID string) (int, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE telegram_id = $1`, telegramID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("checking user %s: %w", telegramID, err)
	}
	if exists == 0 {
		return 0, ErrNotFound
	}

	var rank int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) + 1 FROM users
		WHERE xp > (SELECT xp FROM users WHERE telegram_id = $1)`, telegramID).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("ranking user %s: %w", telegramID, err)
	}
	return rank, nil
}

func (s *PostgresStorage) TopUsersByXP(ctx context.Context, limit int) ([]*models.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY xp DESC, telegram_id LIMIT $1`, limit)
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

func (s *PostgresStorage) GetGroup(ctx context.Context, groupID string) (*models.GroupProfile, error) {
	var (
		g         models.GroupProfile
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT group_id, prefix, created_at FROM groups WHERE group_id = $1`, groupID).
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

func (s *PostgresStorage) SaveGroup(ctx context.Context, group *models.GroupProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO groups (group_id, prefix, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id) DO UPDATE SET prefix = EXCLUDED.prefix`,
		group.GroupID, group.Prefix, millis(group.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving group %s: %w", group.GroupID, err)
	}
	return nil
}
