package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"garden-app/internal/config"
	"garden-app/internal/storage/backend"
	"garden-app/pkg/logger"
)

// fileExists проверяет существование файла
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

func main() {
	log.Println("Проверка локального хранилища токена...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Вне Docker имена сервисов compose не резолвятся
	isInDocker := os.Getenv("container") != "" || fileExists("/.dockerenv")
	if !isInDocker {
		if cfg.Database.Host == "postgres" {
			log.Println("DB_HOST=postgres вне Docker, использую localhost")
			cfg.Database.Host = "localhost"
		}
		if cfg.Storage.RedisAddr == "redis:6379" {
			log.Println("REDIS_ADDR=redis:6379 вне Docker, использую localhost:6379")
			cfg.Storage.RedisAddr = "localhost:6379"
		}
	}

	log.Printf("Драйвер: %s", cfg.Storage.Driver)
	switch cfg.Storage.Driver {
	case config.StorageFile:
		log.Printf("  Файл: %s", cfg.Storage.FilePath)
	case config.StorageRedis:
		log.Printf("  Redis: %s db=%d prefix=%q", cfg.Storage.RedisAddr, cfg.Storage.RedisDB, cfg.Storage.RedisPrefix)
	case config.StoragePostgres:
		log.Printf("  PostgreSQL: %s@%s:%s/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := backend.Open(ctx, cfg, logger.Nop())
	if err != nil {
		log.Fatalf("❌ Хранилище недоступно: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Ошибка закрытия хранилища: %v", err)
		}
	}()
	log.Println("✅ Ping прошёл успешно")

	// Пробный ключ не пересекается с access_token и user
	key := "check:" + uuid.NewString()
	if err := store.Set(ctx, key, "ok"); err != nil {
		log.Fatalf("❌ Ошибка записи: %v", err)
	}
	value, err := store.Get(ctx, key)
	if err != nil || value != "ok" {
		log.Fatalf("❌ Ошибка чтения: value=%q err=%v", value, err)
	}
	if err := store.Delete(ctx, key); err != nil {
		log.Fatalf("❌ Ошибка удаления: %v", err)
	}

	fmt.Println("\n🎉 Все проверки пройдены! Хранилище готово к работе.")
}
