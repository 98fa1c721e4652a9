package tasks

import (
	"context"
	"errors"
	"log"
	"time"

	"clinic_queue/internal/models"
	"clinic_queue/internal/queue"
	"clinic_queue/internal/storage"

	"github.com/robfig/cron/v3"
)

// AutoQueueDueAppointments ищет записи на прием, до начала которых осталось меньше
// 30 минут, и автоматически ставит их пациентов в очередь с приоритетом APPOINTMENT.
func AutoQueueDueAppointments() {
	ctx := context.Background()
	now := time.Now()
	windowEnd := now.Add(30 * time.Minute)

	var appointments []models.Appointment
	if err := storage.DB.
		Preload("Patient").
		Where("status = ? AND scheduled_time BETWEEN ? AND ?",
			models.AppointmentScheduled, now, windowEnd).
		Find(&appointments).Error; err != nil {
		log.Println("Ошибка поиска записей для автопостановки в очередь:", err)
		return
	}

	if len(appointments) == 0 {
		return
	}

	log.Printf("Найдено записей для автопостановки в очередь: %d", len(appointments))

	for _, appointment := range appointments {
		appointmentID := appointment.ID
		_, err := queue.CheckIn(ctx, queue.CheckInInput{
			PatientID:     appointment.PatientID,
			AppointmentID: &appointmentID,
			Priority:      models.PriorityAppointment,
			Reason:        appointment.Reason,
			Notes:         appointment.Notes,
		})
		switch {
		case errors.Is(err, queue.ErrAlreadyInQueue):
			// Пациент уже стоит в очереди — пропускаем, запись останется SCHEDULED.
			log.Printf("Пациент %d уже в очереди, запись %d пропущена",
				appointment.PatientID, appointment.ID)
		case err != nil:
			log.Printf("Ошибка автопостановки записи %d в очередь: %v", appointment.ID, err)
		default:
			log.Printf("Запись %d автоматически поставлена в очередь", appointment.ID)
		}
	}
}

// MarkNoShowAppointments помечает вчерашние и более старые неявки.
func MarkNoShowAppointments() {
	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	result := storage.DB.Model(&models.Appointment{}).
		Where("status IN ? AND scheduled_time < ?",
			[]models.AppointmentStatus{models.AppointmentScheduled, models.AppointmentConfirmed},
			startOfToday).
		Update("status", models.AppointmentNoShow)
	if result.Error != nil {
		log.Println("Ошибка пометки неявок:", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Помечено неявок: %d", result.RowsAffected)
	}
}

// InitScheduler инициализирует планировщик cron-задач.
func InitScheduler() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	// Автопостановка записей на прием в очередь каждые 5 минут.
	_, err := c.AddFunc("0 */5 * * * *", AutoQueueDueAppointments)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи AutoQueueDueAppointments:", err)
	}

	// Пометка неявок каждый день в 03:00.
	_, err = c.AddFunc("0 0 3 * * *", MarkNoShowAppointments)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи MarkNoShowAppointments:", err)
	}

	c.Start()
	log.Println("Cron-планировщик запущен.")
	return c
}
