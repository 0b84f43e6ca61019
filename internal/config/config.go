package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Драйверы постоянного локального хранилища.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config хранит всю конфигурацию приложения
type Config struct {
	API      APIConfig
	Form     FormConfig
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Log      LogConfig
	AppEnv   string // Окружение приложения: development, production, etc.
}

// APIConfig описывает удалённый API аутентификации.
type APIConfig struct {
	BaseURL string
}

// FormConfig описывает поведение формы регистрации.
type FormConfig struct {
	Variant       string        // username | phone
	RedirectURL   string        // Куда уходим после успешной регистрации
	RedirectDelay time.Duration // Через сколько уходим
}

// ServerConfig хранит конфигурацию локального сервера формы
type ServerConfig struct {
	Host string
	Port string
}

// StorageConfig описывает постоянное локальное хранилище токена.
type StorageConfig struct {
	Driver      string // memory | file | redis | postgres
	FilePath    string
	RedisAddr   string
	RedisDB     int
	RedisPrefix string
}

// DatabaseConfig хранит конфигурацию базы данных (драйвер хранилища postgres)
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int           // Максимальное количество открытых соединений
	MaxIdleConns    int           // Максимальное количество неактивных соединений
	ConnMaxLifetime time.Duration // Максимальное время жизни соединения
	ConnMaxIdleTime time.Duration // Максимальное время простоя соединения
	AutoMigrate     bool          // Применять миграции при открытии хранилища
}

// CORSConfig хранит настройки CORS для JSON-эндпоинтов сервера формы.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// LogConfig настраивает логгер.
type LogConfig struct {
	Level string
}

// DSN возвращает строку подключения к базе данных
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL возвращает строку подключения в формате postgres:// (для golang-migrate).
func (d *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     d.DBName,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// Address возвращает адрес сервера (host:port)
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл (если существует)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.API.BaseURL = strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/")

	cfg.Form.Variant = getEnv("FORM_VARIANT", "username")
	cfg.Form.RedirectURL = getEnv("REDIRECT_URL", "profile.html")
	cfg.Form.RedirectDelay = getEnvAsDuration("REDIRECT_DELAY", 2*time.Second)

	cfg.Server.Host = getEnv("SERVER_HOST", "localhost")
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")

	cfg.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", StorageFile))
	cfg.Storage.FilePath = getEnv("STORAGE_FILE", defaultStorageFile())
	cfg.Storage.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Storage.RedisDB = getEnvAsInt("REDIS_DB", 0)
	cfg.Storage.RedisPrefix = getEnv("REDIS_PREFIX", "garden:local_storage:")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.DBName = getEnv("DB_NAME", "garden_client")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", 5)
	cfg.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", 2)
	cfg.Database.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.Database.ConnMaxIdleTime = getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute)
	cfg.Database.AutoMigrate = getEnvAsBool("DB_AUTO_MIGRATE", false)

	cfg.CORS.AllowedOrigins = getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil)
	cfg.CORS.AllowedMethods = getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"})
	cfg.CORS.AllowedHeaders = getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept"})
	cfg.CORS.ExposedHeaders = getEnvAsSlice("CORS_EXPOSED_HEADERS", []string{"X-Request-ID"})
	cfg.CORS.AllowCredentials = getEnvAsBool("CORS_ALLOW_CREDENTIALS", false)
	cfg.CORS.MaxAge = getEnvAsDuration("CORS_MAX_AGE", 12*time.Hour)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")

	// Загружаем окружение приложения
	cfg.AppEnv = getEnv("APP_ENV", "development")

	// Валидируем конфигурацию
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL не может быть пустым")
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL должен быть абсолютным URL: %q", c.API.BaseURL)
	}
	if c.Form.Variant != "username" && c.Form.Variant != "phone" {
		return fmt.Errorf("FORM_VARIANT должен быть username или phone: %q", c.Form.Variant)
	}
	if c.Form.RedirectURL == "" {
		return fmt.Errorf("REDIRECT_URL не может быть пустым")
	}
	if c.Form.RedirectDelay < 0 {
		return fmt.Errorf("REDIRECT_DELAY не может быть отрицательным")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT не может быть пустым")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageFile:
		if c.Storage.FilePath == "" {
			return fmt.Errorf("STORAGE_FILE не может быть пустым")
		}
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR не может быть пустым")
		}
	case StoragePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST не может быть пустым")
		}
		if c.Database.User == "" {
			return fmt.Errorf("DB_USER не может быть пустым")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("DB_NAME не может быть пустым")
		}
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER: %q", c.Storage.Driver)
	}
	return nil
}

// defaultStorageFile возвращает путь файла хранилища в пользовательском конфиге.
func defaultStorageFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "local_storage.json"
	}
	return dir + string(os.PathSeparator) + "garden-app" + string(os.PathSeparator) + "local_storage.json"
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvAsDuration получает переменную окружения как time.Duration или возвращает значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getEnvAsSlice читает список через запятую
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
