package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "garden-app/docs"
	"garden-app/internal/apiclient"
	"garden-app/internal/config"
	domain "garden-app/internal/domain/registration"
	"garden-app/internal/handler/health"
	"garden-app/internal/handler/middleware"
	"garden-app/internal/handler/pages"
	"garden-app/internal/storage"
	reguc "garden-app/internal/usecase/registration"
	"garden-app/internal/usecase/session"
	"garden-app/pkg/logger"
)

// Server представляет HTTP сервер страниц формы
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	store      storage.Store
	cfg        *config.Config
	log        logger.Logger

	sessions     session.Service
	pagesHandler *pages.Handler
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config, store storage.Store, log logger.Logger) (*Server, error) {
	// Устанавливаем режим Gin в зависимости от окружения
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.SetHTMLTemplate(pages.Templates())

	s := &Server{
		router: router,
		store:  store,
		cfg:    cfg,
		log:    log,
	}

	// Один клиент API и одно хранилище на все варианты формы
	client := apiclient.New(cfg.API.BaseURL, nil, log)
	s.sessions = session.NewService(client, store, log)

	var submitters []*reguc.Submitter
	for _, name := range domain.VariantNames() {
		variant, err := domain.LookupVariant(name)
		if err != nil {
			return nil, err
		}
		// Переход выполняет браузер по meta refresh, поэтому Navigator не нужен
		submitters = append(submitters, reguc.NewSubmitter(client, store, log, reguc.Options{
			Variant:       variant,
			RedirectURL:   cfg.Form.RedirectURL,
			RedirectDelay: cfg.Form.RedirectDelay,
		}))
	}
	s.pagesHandler = pages.NewHandler(submitters, s.sessions, pages.Config{
		DefaultVariant: cfg.Form.Variant,
		RedirectURL:    cfg.Form.RedirectURL,
		RedirectDelay:  cfg.Form.RedirectDelay,
	}, log)

	// Настраиваем middleware и роуты
	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupMiddleware настраивает middleware для роутера
func (s *Server) setupMiddleware() {
	// Recovery middleware - должен быть первым для перехвата паник
	s.router.Use(middleware.Recovery(s.log))
	s.router.Use(middleware.Logger(s.log))
	s.router.Use(middleware.CORS(&s.cfg.CORS))
}

// setupRoutes настраивает маршруты приложения
func (s *Server) setupRoutes() {
	s.setupHealthRoutes()
	s.setupFormRoutes()
	s.setupSessionRoutes()

	// GET /swagger/*any — документация JSON-ответов страниц.
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// setupHealthRoutes настраивает health-check эндпоинты.
func (s *Server) setupHealthRoutes() {
	healthHandler := health.NewHandler(s.store, s.cfg.Storage.Driver, s.cfg.AppEnv)
	// GET /health — жив ли процесс.
	s.router.GET("/health", healthHandler.Health)
	// GET /health/storage — доступно ли локальное хранилище токена.
	s.router.GET("/health/storage", healthHandler.HealthStorage)
}

// setupFormRoutes настраивает страницу регистрации.
func (s *Server) setupFormRoutes() {
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/register")
	})
	// GET /register?variant= — пустая форма.
	s.router.GET("/register", s.pagesHandler.RegisterForm)
	// POST /register — отправка формы.
	s.router.POST("/register", s.pagesHandler.Register)
}

// setupSessionRoutes настраивает вход, профиль и выход.
func (s *Server) setupSessionRoutes() {
	s.router.GET(pages.LoginPath, s.pagesHandler.LoginForm)
	s.router.POST(pages.LoginPath, s.pagesHandler.Login)
	s.router.POST("/logout", s.pagesHandler.Logout)

	profile := s.router.Group("/")
	profile.Use(middleware.Session(s.sessions, pages.LoginPath, s.log))
	{
		// GET /profile — профиль по сохранённому токену.
		profile.GET("/profile", s.pagesHandler.Profile)
		// GET /profile.html — тот же профиль по адресу перехода после регистрации.
		profile.GET("/profile.html", s.pagesHandler.Profile)
	}
}

// Start запускает HTTP сервер с graceful shutdown
func (s *Server) Start() error {
	address := s.cfg.Server.Address()

	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Запрос к API не ограничен по времени, поэтому WriteTimeout не задан
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Канал для получения сигналов ОС
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Канал для ошибок запуска сервера
	serverErr := make(chan error, 1)

	go func() {
		s.log.Info("http server started", map[string]any{"address": address, "api": s.cfg.API.BaseURL})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка запуска HTTP сервера: %w", err)
		}
	}()

	// Ожидаем либо сигнал для graceful shutdown, либо ошибку запуска
	select {
	case err := <-serverErr:
		s.log.Error("http server failed", map[string]any{"err": err})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
		return err
	case sig := <-quit:
		s.log.Info("shutdown signal received", map[string]any{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при остановке сервера: %w", err)
	}

	s.log.Info("http server stopped", nil)
	return nil
}

// GetRouter возвращает роутер (для тестирования)
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
