package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"garden-app/internal/storage"
)

// pingTimeout ограничивает проверку хранилища.
const pingTimeout = 5 * time.Second

// Handler обрабатывает health check запросы
type Handler struct {
	store  storage.Store
	driver string
	appEnv string
}

// NewHandler создает новый экземпляр health handler
func NewHandler(store storage.Store, driver, appEnv string) *Handler {
	return &Handler{
		store:  store,
		driver: driver,
		appEnv: appEnv,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health проверяет, что сервер формы работает.
//
//	@Summary	Состояние сервера
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Message: "Сервер работает",
	})
}

// HealthStorage проверяет доступность локального хранилища токена.
//
//	@Summary	Состояние локального хранилища
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health/storage [get]
func (h *Handler) HealthStorage(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:  "error",
			Message: "Хранилище не инициализировано",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		message := "Хранилище недоступно"
		if h.appEnv != "production" {
			// В development показываем детали ошибки
			message = "Хранилище " + h.driver + " недоступно: " + err.Error()
		}
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:  "error",
			Message: message,
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Message: "Хранилище " + h.driver + " доступно",
	})
}
