package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"clinic_queue/internal/models"
	"clinic_queue/internal/response"
	"clinic_queue/internal/storage"

	"github.com/gin-gonic/gin"
)

var ctx = context.Background()

const roomsCacheKey = "rooms_all"

type CreateRoomRequest struct {
	Number     string `json:"number" binding:"required"`
	Name       string `json:"name" binding:"required"`
	ProviderID *uint  `json:"provider_id"`
}

// CreateRoomHandler создает кабинет
// @Summary		Создание кабинета
// @Tags			rooms
// @Accept			json
// @Produce		json
// @Param			request	body		CreateRoomRequest	true	"Данные кабинета"
// @Security		BearerAuth
// @Success		201	{object}	models.Room	"Кабинет создан"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR) или номер занят (ROOM_NUMBER_EXISTS)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/rooms [post]
func CreateRoomHandler(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var existing models.Room
	if err := storage.DB.Where("number = ?", req.Number).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "ROOM_NUMBER_EXISTS",
			Message: "Кабинет с таким номером уже существует",
		})
		return
	}

	room := models.Room{
		Number:     req.Number,
		Name:       req.Name,
		Status:     models.RoomAvailable,
		ProviderID: req.ProviderID,
	}
	if err := storage.DB.Create(&room).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании кабинета",
			Details: err.Error(),
		})
		return
	}

	storage.RedisClient.Del(ctx, roomsCacheKey)
	c.JSON(http.StatusCreated, room)
}

// GetRoomsHandler возвращает список кабинетов
// @Summary		Список кабинетов
// @Description	Все кабинеты со статусами; результат кэшируется в Redis на 30 секунд
// @Tags			rooms
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		models.Room	"Список кабинетов"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/rooms [get]
func GetRoomsHandler(c *gin.Context) {
	// Проверка кэша
	cached, err := storage.RedisClient.Get(ctx, roomsCacheKey).Result()
	if err == nil && cached != "" {
		var rooms []models.Room
		if err := json.Unmarshal([]byte(cached), &rooms); err == nil {
			c.JSON(http.StatusOK, rooms)
			return
		}
	}

	var rooms []models.Room
	if err := storage.DB.Preload("Provider").Order("number ASC").Find(&rooms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки кабинетов",
			Details: err.Error(),
		})
		return
	}

	if payload, err := json.Marshal(rooms); err == nil {
		storage.RedisClient.Set(ctx, roomsCacheKey, payload, 30*time.Second)
	}
	c.JSON(http.StatusOK, rooms)
}

type UpdateRoomStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateRoomStatusHandler меняет статус кабинета
// @Summary		Изменение статуса кабинета
// @Description	Ручной перевод кабинета в AVAILABLE/OCCUPIED/MAINTENANCE
// @Tags			rooms
// @Accept			json
// @Produce		json
// @Param			id		path		string					true	"ID кабинета"
// @Param			request	body		UpdateRoomStatusRequest	true	"Новый статус"
// @Security		BearerAuth
// @Success		200	{object}	models.Room	"Обновленный кабинет"
// @Failure		400	{object}	response.ErrorResponse	"Неизвестный статус (INVALID_ROOM_STATUS)"
// @Failure		404	{object}	response.ErrorResponse	"Кабинет не найден (ROOM_NOT_FOUND)"
// @Router			/api/rooms/{id}/status [patch]
func UpdateRoomStatusHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ROOM_ID",
			Message: "Неверный идентификатор кабинета",
		})
		return
	}

	var req UpdateRoomStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	status := models.RoomStatus(req.Status)
	if status != models.RoomAvailable && status != models.RoomOccupied && status != models.RoomMaintenance {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ROOM_STATUS",
			Message: "Неизвестный статус: допустимы AVAILABLE, OCCUPIED, MAINTENANCE",
		})
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "ROOM_NOT_FOUND",
			Message: "Кабинет не найден",
		})
		return
	}

	if err := storage.DB.Model(&room).Update("status", status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка обновления статуса кабинета",
			Details: err.Error(),
		})
		return
	}
	room.Status = status

	storage.RedisClient.Del(ctx, roomsCacheKey)
	c.JSON(http.StatusOK, room)
}
