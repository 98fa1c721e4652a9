package handlers

import (
	"net/http"
	"strconv"
	"time"

	"clinic_queue/internal/models"
	"clinic_queue/internal/response"
	"clinic_queue/internal/storage"

	"github.com/gin-gonic/gin"
)

type CreateAppointmentRequest struct {
	PatientID     uint   `json:"patient_id" binding:"required"`
	ProviderID    uint   `json:"provider_id" binding:"required"`
	ScheduledTime string `json:"scheduled_time" binding:"required"` // RFC3339
	Reason        string `json:"reason" binding:"required"`
	Notes         string `json:"notes"`
}

// CreateAppointmentHandler создает запись на прием
// @Summary		Создание записи на прием
// @Tags			appointments
// @Accept			json
// @Produce		json
// @Param			request	body		CreateAppointmentRequest	true	"Данные записи"
// @Security		BearerAuth
// @Success		201	{object}	models.Appointment	"Запись создана"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Пациент или врач не найдены (PATIENT_NOT_FOUND, PROVIDER_NOT_FOUND)"
// @Router			/api/appointments [post]
func CreateAppointmentHandler(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	scheduledTime, err := time.Parse(time.RFC3339, req.ScheduledTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный формат времени, ожидается RFC3339",
		})
		return
	}

	var patient models.Patient
	if err := storage.DB.First(&patient, req.PatientID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "PATIENT_NOT_FOUND",
			Message: "Пациент не найден",
		})
		return
	}

	var provider models.Provider
	if err := storage.DB.First(&provider, req.ProviderID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "PROVIDER_NOT_FOUND",
			Message: "Врач не найден",
		})
		return
	}

	appointment := models.Appointment{
		PatientID:     req.PatientID,
		ProviderID:    req.ProviderID,
		ScheduledTime: scheduledTime,
		Status:        models.AppointmentScheduled,
		Reason:        req.Reason,
		Notes:         req.Notes,
	}
	if err := storage.DB.Create(&appointment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании записи на прием",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// GetAppointmentsHandler возвращает записи на прием
// @Summary		Список записей на прием
// @Description	Записи на прием; параметр date (ГГГГ-ММ-ДД) ограничивает выборку одним днем
// @Tags			appointments
// @Produce		json
// @Param			date	query	string	false	"Дата (ГГГГ-ММ-ДД)"
// @Security		BearerAuth
// @Success		200	{array}		models.Appointment	"Список записей"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/appointments [get]
func GetAppointmentsHandler(c *gin.Context) {
	query := storage.DB.Preload("Patient").Preload("Provider").Order("scheduled_time ASC")
	if date := c.Query("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Неверный формат даты, ожидается ГГГГ-ММ-ДД",
			})
			return
		}
		query = query.Where("scheduled_time >= ? AND scheduled_time < ?", day, day.Add(24*time.Hour))
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки записей на прием",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, appointments)
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateAppointmentStatusHandler меняет статус записи на прием
// @Summary		Изменение статуса записи на прием
// @Tags			appointments
// @Accept			json
// @Produce		json
// @Param			id		path		string							true	"ID записи"
// @Param			request	body		UpdateAppointmentStatusRequest	true	"Новый статус"
// @Security		BearerAuth
// @Success		200	{object}	models.Appointment	"Обновленная запись"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (APPOINTMENT_NOT_FOUND)"
// @Router			/api/appointments/{id}/status [patch]
func UpdateAppointmentStatusHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_APPOINTMENT_ID",
			Message: "Неверный идентификатор записи на прием",
		})
		return
	}

	var req UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var appointment models.Appointment
	if err := storage.DB.First(&appointment, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "APPOINTMENT_NOT_FOUND",
			Message: "Запись на прием не найдена",
		})
		return
	}

	if err := storage.DB.Model(&appointment).
		Update("status", models.AppointmentStatus(req.Status)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка обновления статуса записи",
			Details: err.Error(),
		})
		return
	}
	appointment.Status = models.AppointmentStatus(req.Status)

	c.JSON(http.StatusOK, appointment)
}
