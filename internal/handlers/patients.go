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

type CreatePatientRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	DateOfBirth string `json:"date_of_birth"` // формат 2006-01-02
}

// CreatePatientHandler регистрирует нового пациента
// @Summary		Создание пациента
// @Tags			patients
// @Accept			json
// @Produce		json
// @Param			request	body		CreatePatientRequest	true	"Данные пациента"
// @Security		BearerAuth
// @Success		201	{object}	models.Patient	"Пациент создан"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/patients [post]
func CreatePatientHandler(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	patient := models.Patient{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Неверный формат даты рождения, ожидается ГГГГ-ММ-ДД",
			})
			return
		}
		patient.DateOfBirth = &dob
	}

	if err := storage.DB.Create(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании пациента",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, patient)
}

// GetPatientsHandler возвращает список пациентов
// @Summary		Список пациентов
// @Description	Все пациенты, при наличии параметра phone — фильтр по номеру телефона
// @Tags			patients
// @Produce		json
// @Param			phone	query	string	false	"Фильтр по телефону"
// @Security		BearerAuth
// @Success		200	{array}		models.Patient	"Список пациентов"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/patients [get]
func GetPatientsHandler(c *gin.Context) {
	query := storage.DB.Order("last_name ASC, first_name ASC")
	if phone := c.Query("phone"); phone != "" {
		query = query.Where("phone = ?", phone)
	}

	var patients []models.Patient
	if err := query.Find(&patients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки пациентов",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, patients)
}

// GetPatientHandler возвращает пациента по идентификатору
// @Summary		Пациент по ID
// @Tags			patients
// @Produce		json
// @Param			id	path	string	true	"ID пациента"
// @Security		BearerAuth
// @Success		200	{object}	models.Patient	"Пациент"
// @Failure		404	{object}	response.ErrorResponse	"Пациент не найден (PATIENT_NOT_FOUND)"
// @Router			/api/patients/{id} [get]
func GetPatientHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_PATIENT_ID",
			Message: "Неверный идентификатор пациента",
		})
		return
	}

	var patient models.Patient
	if err := storage.DB.First(&patient, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "PATIENT_NOT_FOUND",
			Message: "Пациент не найден",
		})
		return
	}
	c.JSON(http.StatusOK, patient)
}
