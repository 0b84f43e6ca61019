package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"garden-app/internal/config"
	"garden-app/internal/database"
	"garden-app/pkg/logger"
)

func main() {
	var (
		up      = flag.Bool("up", false, "Применить все миграции таблицы local_storage (по умолчанию)")
		down    = flag.Bool("down", false, "Откатить все миграции (таблица будет удалена)")
		version = flag.Bool("version", false, "Показать текущую версию схемы")
		force   = flag.Int("force", -1, "Принудительно установить версию (после прерванной миграции)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Миграции для драйвера хранилища postgres.\n\n")
		fmt.Fprintf(os.Stderr, "Использование: %s [опции]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nПримеры:\n")
		fmt.Fprintf(os.Stderr, "  %s              # Применить все миграции\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -down        # Откатить все миграции\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -force 1     # Снять dirty и считать версию 1 применённой\n", os.Args[0])
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.AppEnv, cfg.Log.Level)

	if err := run(cfg, log, *up, *down, *version, *force); err != nil {
		log.Error("migration failed", map[string]any{"err": err})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger, up, down, version bool, force int) error {
	actions := 0
	for _, set := range []bool{up, down, version, force >= 0} {
		if set {
			actions++
		}
	}
	if actions > 1 {
		return errors.New("можно указать только одно действие за раз")
	}

	migrator, err := database.NewMigratorFromConfig(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			log.Error("close migrator", map[string]any{"err": err})
		}
	}()

	switch {
	case version:
		return printVersion(migrator, log)
	case force >= 0:
		if err := migrator.Force(force); err != nil {
			return err
		}
		log.Info("migration version forced", map[string]any{"version": force})
		return nil
	case down:
		return apply(log, "down", migrator.Down)
	default:
		return apply(log, "up", migrator.Up)
	}
}

func apply(log logger.Logger, direction string, step func() error) error {
	log.Info("applying migrations", map[string]any{"direction": direction})
	if err := step(); err != nil {
		if errors.Is(err, database.ErrNoChange) {
			log.Info("schema already up to date", map[string]any{"direction": direction})
			return nil
		}
		return err
	}
	log.Info("migrations applied", map[string]any{"direction": direction})
	return nil
}

func printVersion(migrator *database.Migrator, log logger.Logger) error {
	v, dirty, err := migrator.Version()
	if errors.Is(err, database.ErrDirtyState) {
		log.Error("schema is dirty, run with -force", map[string]any{"version": v, "dirty": dirty})
		return err
	}
	if err != nil {
		return err
	}
	if v == 0 {
		log.Info("no migrations applied", nil)
		return nil
	}
	log.Info("schema version", map[string]any{"version": v})
	return nil
}
