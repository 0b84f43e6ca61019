package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // драйвер database/sql "postgres"

	"garden-app/internal/config"
	"garden-app/internal/database/migrations"
)

var (
	// ErrNoChange возвращается, когда нет миграций для применения.
	ErrNoChange = errors.New("no change")

	// ErrDirtyState — миграция была прервана и требует ручного вмешательства.
	ErrDirtyState = errors.New("database is in dirty state")
)

// Migrator управляет схемой таблицы local_storage через golang-migrate.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigratorFromConfig открывает отдельное подключение (lib/pq) только для миграций.
func NewMigratorFromConfig(cfg *config.DatabaseConfig) (*Migrator, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия подключения: %w", err)
	}
	m, err := newMigrator(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func newMigrator(db *sql.DB) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания драйвера PostgreSQL: %w", err)
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания экземпляра migrate: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Close закрывает источник и подключение мигратора.
func (m *Migrator) Close() error {
	if m.m == nil {
		return nil
	}
	sourceErr, dbErr := m.m.Close()
	if sourceErr != nil {
		return fmt.Errorf("ошибка закрытия источника миграций: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("ошибка закрытия подключения к БД: %w", dbErr)
	}
	return nil
}

// Up применяет все доступные миграции.
func (m *Migrator) Up() error {
	return wrap(m.m.Up(), "ошибка применения миграций")
}

// Down откатывает все миграции: хранилище остаётся без таблицы.
func (m *Migrator) Down() error {
	return wrap(m.m.Down(), "ошибка отката миграций")
}

// Version возвращает текущую версию схемы и флаг dirty.
// Если миграции не применялись, версия 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("ошибка получения версии: %w", err)
	}
	if dirty {
		return version, true, ErrDirtyState
	}
	return version, false, nil
}

// Force устанавливает версию без применения миграций (восстановление после dirty).
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("ошибка принудительной установки версии %d: %w", version, err)
	}
	return nil
}

func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return ErrNoChange
	}
	return fmt.Errorf("%s: %w", msg, err)
}
