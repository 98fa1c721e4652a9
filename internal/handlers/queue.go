package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"clinic_queue/internal/models"
	"clinic_queue/internal/queue"
	"clinic_queue/internal/response"

	"github.com/gin-gonic/gin"
)

// queueError транслирует ошибки движка очереди в HTTP-ответ с машинным кодом.
func queueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queue.ErrPatientNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "PATIENT_NOT_FOUND",
			Message: "Пациент не найден",
		})
	case errors.Is(err, queue.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "ENTRY_NOT_FOUND",
			Message: "Запись в очереди не найдена",
		})
	case errors.Is(err, queue.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "ROOM_NOT_FOUND",
			Message: "Кабинет не найден",
		})
	case errors.Is(err, queue.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "APPOINTMENT_NOT_FOUND",
			Message: "Запись на прием не найдена",
		})
	case errors.Is(err, queue.ErrAlreadyInQueue):
		c.JSON(http.StatusConflict, response.ErrorResponse{
			Code:    "ALREADY_IN_QUEUE",
			Message: "Пациент уже находится в очереди",
		})
	case errors.Is(err, queue.ErrRoomBusy):
		c.JSON(http.StatusConflict, response.ErrorResponse{
			Code:    "ROOM_BUSY",
			Message: "Кабинет уже занят другим пациентом",
		})
	case errors.Is(err, queue.ErrInvalidState):
		c.JSON(http.StatusConflict, response.ErrorResponse{
			Code:    "INVALID_STATE",
			Message: "Операция недопустима в текущем статусе записи",
		})
	default:
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "QUEUE_ERROR",
			Message: "Ошибка операции с очередью",
			Details: err.Error(),
		})
	}
}

func entryIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ENTRY_ID",
			Message: "Неверный идентификатор записи",
		})
		return 0, false
	}
	return uint(id), true
}

type CheckInRequest struct {
	PatientID     uint   `json:"patient_id" binding:"required"`
	AppointmentID *uint  `json:"appointment_id"`
	Priority      string `json:"priority" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
	Notes         string `json:"notes"`
}

// CheckInHandler регистрирует пациента в очереди
// @Summary		Регистрация пациента в очереди
// @Description	Создает запись в очереди, назначает номер талона, позицию и оценку ожидания
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			request	body		CheckInRequest	true	"Данные check-in"
// @Security		BearerAuth
// @Success		201	{object}	queue.CheckInResult	"Пациент зарегистрирован"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, INVALID_PRIORITY)"
// @Failure		404	{object}	response.ErrorResponse	"Пациент или запись на прием не найдены (PATIENT_NOT_FOUND, APPOINTMENT_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Пациент уже в очереди (ALREADY_IN_QUEUE)"
// @Router			/api/queue/check-in [post]
func CheckInHandler(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	priority := models.QueuePriority(req.Priority)
	if !priority.Valid() {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_PRIORITY",
			Message: "Неизвестный приоритет: допустимы EMERGENCY, URGENT, APPOINTMENT, NORMAL",
		})
		return
	}

	result, err := queue.CheckIn(c.Request.Context(), queue.CheckInInput{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Priority:      priority,
		Reason:        req.Reason,
		Notes:         req.Notes,
	})
	if err != nil {
		queueError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetQueueHandler возвращает текущую очередь
// @Summary		Текущая очередь
// @Description	Активные записи в порядке обслуживания с позициями и оценкой ожидания
// @Tags			queue
// @Produce		json
// @Success		200	{array}		queue.EntryView	"Текущая очередь"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (QUEUE_ERROR)"
// @Router			/api/queue [get]
func GetQueueHandler(c *gin.Context) {
	views, err := queue.GetCurrentQueue(c.Request.Context())
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetQueueStatsHandler возвращает статистику очереди
// @Summary		Статистика очереди
// @Description	Текущий размер очереди, разбивка сегодняшних записей по статусам и среднее ожидание
// @Tags			queue
// @Produce		json
// @Success		200	{object}	queue.Stats	"Статистика"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (QUEUE_ERROR)"
// @Router			/api/queue/stats [get]
func GetQueueStatsHandler(c *gin.Context) {
	stats, err := queue.GetQueueStats(c.Request.Context())
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetQueueEntryHandler возвращает запись очереди по идентификатору
// @Summary		Запись очереди
// @Tags			queue
// @Produce		json
// @Param			id	path		string	true	"ID записи"
// @Success		200	{object}	queue.EntryView	"Запись с позицией и оценкой ожидания"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Router			/api/queue/{id} [get]
func GetQueueEntryHandler(c *gin.Context) {
	id, ok := entryIDParam(c)
	if !ok {
		return
	}
	view, err := queue.GetEntry(c.Request.Context(), id)
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetPatientPositionHandler возвращает позицию пациента в очереди
// @Summary		Позиция пациента
// @Description	Позиция, оценка ожидания и общий размер очереди для ожидающего пациента
// @Tags			queue
// @Produce		json
// @Param			patientId	path		string	true	"ID пациента"
// @Success		200	{object}	queue.PositionResult	"Позиция пациента"
// @Failure		404	{object}	response.ErrorResponse	"Пациент не в очереди (ENTRY_NOT_FOUND)"
// @Router			/api/queue/patient/{patientId}/position [get]
func GetPatientPositionHandler(c *gin.Context) {
	patientID, err := strconv.ParseUint(c.Param("patientId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_PATIENT_ID",
			Message: "Неверный идентификатор пациента",
		})
		return
	}

	result, err := queue.GetPatientPosition(c.Request.Context(), uint(patientID))
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type CallNextRequest struct {
	RoomID uint `json:"room_id" binding:"required"`
}

// CallNextHandler вызывает пациента в кабинет
// @Summary		Вызов пациента
// @Description	Переводит запись WAITING -> CALLED и закрепляет кабинет
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		string			true	"ID записи"
// @Param			request	body		CallNextRequest	true	"Кабинет"
// @Security		BearerAuth
// @Success		200	{object}	models.QueueEntry	"Обновленная запись"
// @Failure		404	{object}	response.ErrorResponse	"Запись или кабинет не найдены (ENTRY_NOT_FOUND, ROOM_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Кабинет занят или неверный статус (ROOM_BUSY, INVALID_STATE)"
// @Router			/api/queue/{id}/call-next [patch]
func CallNextHandler(c *gin.Context) {
	id, ok := entryIDParam(c)
	if !ok {
		return
	}
	var req CallNextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	entry, err := queue.CallNext(c.Request.Context(), id, req.RoomID)
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// StartServiceHandler начинает прием пациента
// @Summary		Начало приема
// @Description	Переводит запись CALLED -> IN_SERVICE, кабинет становится занятым
// @Tags			queue
// @Produce		json
// @Param			id	path		string	true	"ID записи"
// @Security		BearerAuth
// @Success		200	{object}	models.QueueEntry	"Обновленная запись"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Неверный статус (INVALID_STATE)"
// @Router			/api/queue/{id}/start-service [patch]
func StartServiceHandler(c *gin.Context) {
	id, ok := entryIDParam(c)
	if !ok {
		return
	}
	entry, err := queue.StartService(c.Request.Context(), id)
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// CompleteServiceHandler завершает прием пациента
// @Summary		Завершение приема
// @Description	Переводит запись IN_SERVICE -> COMPLETED, освобождает кабинет и пересчитывает очередь
// @Tags			queue
// @Produce		json
// @Param			id	path		string	true	"ID записи"
// @Security		BearerAuth
// @Success		200	{object}	models.QueueEntry	"Обновленная запись"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Неверный статус (INVALID_STATE)"
// @Router			/api/queue/{id}/complete [patch]
func CompleteServiceHandler(c *gin.Context) {
	id, ok := entryIDParam(c)
	if !ok {
		return
	}
	entry, err := queue.CompleteService(c.Request.Context(), id)
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type UpdateQueueStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateQueueStatusHandler напрямую устанавливает статус записи
// @Summary		Прямое изменение статуса
// @Description	Административная операция в обход охраняемых переходов: индекс и позиции не обновляются, согласованность на вызывающем
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		string						true	"ID записи"
// @Param			request	body		UpdateQueueStatusRequest	true	"Новый статус"
// @Security		BearerAuth
// @Success		200	{object}	models.QueueEntry	"Обновленная запись"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Router			/api/queue/{id}/status [patch]
func UpdateQueueStatusHandler(c *gin.Context) {
	id, ok := entryIDParam(c)
	if !ok {
		return
	}
	var req UpdateQueueStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	entry, err := queue.UpdateStatus(c.Request.Context(), id, models.QueueStatus(req.Status))
	if err != nil {
		queueError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// RemoveFromQueueHandler снимает пациента с очереди
// @Summary		Снятие с очереди
// @Description	Отменяет запись (WAITING/CALLED -> CANCELLED) и пересчитывает позиции; разрешено вне порядка очереди
// @Tags			queue
// @Param			id	path	string	true	"ID записи"
// @Security		BearerAuth
// @Success		204	"Запись снята с очереди"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Неверный статус (INVALID_STATE)"
// @Router			/api/queue/{id} [delete]
func RemoveFromQueueHandler(c *gin.Context) {
	id, ok := entryIDParam(c)
	if !ok {
		return
	}
	if err := queue.RemoveFromQueue(c.Request.Context(), id); err != nil {
		queueError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
