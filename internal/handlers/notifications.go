package handlers

import (
	"net/http"
	"strconv"

	"clinic_queue/internal/models"
	"clinic_queue/internal/response"
	"clinic_queue/internal/storage"

	"github.com/gin-gonic/gin"
)

// GetPatientNotificationsHandler возвращает журнал уведомлений пациента
// @Summary		Уведомления пациента
// @Description	Отправленные пациенту уведомления, новые сверху; unread=true — только непрочитанные
// @Tags			notifications
// @Produce		json
// @Param			patientId	path	string	true	"ID пациента"
// @Param			unread		query	string	false	"Только непрочитанные (true/false)"
// @Security		BearerAuth
// @Success		200	{array}		models.Notification	"Список уведомлений"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/notifications/patient/{patientId} [get]
func GetPatientNotificationsHandler(c *gin.Context) {
	patientID, err := strconv.ParseUint(c.Param("patientId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_PATIENT_ID",
			Message: "Неверный идентификатор пациента",
		})
		return
	}

	query := storage.DB.Where("patient_id = ?", uint(patientID)).Order("sent_at DESC")
	if c.Query("unread") == "true" {
		query = query.Where("read = false")
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки уведомлений",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationReadHandler отмечает уведомление прочитанным
// @Summary		Отметка уведомления прочитанным
// @Tags			notifications
// @Produce		json
// @Param			id	path	string	true	"ID уведомления"
// @Security		BearerAuth
// @Success		200	{object}	models.Notification	"Обновленное уведомление"
// @Failure		404	{object}	response.ErrorResponse	"Уведомление не найдено (NOTIFICATION_NOT_FOUND)"
// @Router			/api/notifications/{id}/read [patch]
func MarkNotificationReadHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_NOTIFICATION_ID",
			Message: "Неверный идентификатор уведомления",
		})
		return
	}

	var notification models.Notification
	if err := storage.DB.First(&notification, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "NOTIFICATION_NOT_FOUND",
			Message: "Уведомление не найдено",
		})
		return
	}

	if err := storage.DB.Model(&notification).Update("read", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка обновления уведомления",
			Details: err.Error(),
		})
		return
	}
	notification.Read = true

	c.JSON(http.StatusOK, notification)
}
