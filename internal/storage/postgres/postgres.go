package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"garden-app/internal/database"
	"garden-app/internal/storage"
)

// ErrSchemaMissing — таблица local_storage не создана, нужно запустить migrate.
var ErrSchemaMissing = errors.New("storage: local_storage table is missing, run migrations")

// pgEntry — ORM-модель таблицы local_storage.
type pgEntry struct {
	Key       string    `gorm:"column:key;type:varchar(128);primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null"`
}

func (pgEntry) TableName() string {
	return "local_storage"
}

// Store реализует storage.Store поверх GORM и PostgreSQL.
type Store struct {
	db *database.DB
}

var _ storage.Store = (*Store)(nil)

// New создаёт хранилище поверх открытого подключения.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Set выполняет upsert: новое значение всегда перезаписывает старое.
func (s *Store) Set(ctx context.Context, key, value string) error {
	entry := pgEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	return classify(err)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var entry pgEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", storage.ErrNotFound
		}
		return "", classify(err)
	}
	return entry.Value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return classify(s.db.WithContext(ctx).Where("key = ?", key).Delete(&pgEntry{}).Error)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// classify распознаёт отсутствие таблицы (42P01 undefined_table).
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "42P01" {
			return fmt.Errorf("%w: %s", ErrSchemaMissing, pgErr.Message)
		}
		return err
	}

	// Fallback, если ошибка пришла не как *pgconn.PgError
	if strings.Contains(err.Error(), "42P01") {
		return fmt.Errorf("%w: %v", ErrSchemaMissing, err)
	}
	return err
}
