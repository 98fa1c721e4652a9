package queue

import (
	"context"
	"math"
	"os"
	"strconv"
	"time"

	"clinic_queue/internal/models"
	"clinic_queue/internal/storage"
)

const (
	defaultServiceMinutes = 20
	minServiceMinutes     = 5
	maxServiceMinutes     = 60
	minEstimateMinutes    = 5
)

// Estimate — эвристическая оценка ожидания в минутах. Чистая функция от позиции,
// числа параллельно работающих кабинетов и среднего времени приема.
// Это приближение, а не модель теории очередей: занятые кабинеты считаются
// оценкой доступного параллелизма.
func Estimate(position, availableRooms, avgServiceMinutes int) int {
	if position <= 0 {
		return 0 // пациент не в активной очереди
	}
	if availableRooms < 1 {
		availableRooms = 1
	}

	patientsAheadPerRoom := int(math.Ceil(float64(position) / float64(availableRooms)))
	estimated := patientsAheadPerRoom * avgServiceMinutes
	buffer := int(math.Ceil(float64(estimated) * 0.10)) // 10% на переходы между пациентами

	total := estimated + buffer
	if total < minEstimateMinutes {
		total = minEstimateMinutes
	}
	return total
}

// AverageServiceTime — среднее время приема в минутах по завершенным за сегодня
// записям с проставленными started_at и completed_at. Без выборки — значение
// из AVERAGE_CONSULTATION_TIME (по умолчанию 20). Результат зажат в [5, 60].
func AverageServiceTime(ctx context.Context) int {
	var samples []models.QueueEntry
	if err := storage.DB.WithContext(ctx).
		Select("started_at", "completed_at").
		Where("status = ? AND completed_at >= ? AND started_at IS NOT NULL AND completed_at IS NOT NULL",
			models.StatusCompleted, startOfToday()).
		Find(&samples).Error; err != nil || len(samples) == 0 {
		return clampServiceMinutes(envInt("AVERAGE_CONSULTATION_TIME", defaultServiceMinutes))
	}

	var totalMinutes float64
	for _, s := range samples {
		totalMinutes += s.CompletedAt.Sub(*s.StartedAt).Minutes()
	}
	avg := int(math.Round(totalMinutes / float64(len(samples))))
	return clampServiceMinutes(avg)
}

func clampServiceMinutes(minutes int) int {
	if minutes < minServiceMinutes {
		return minServiceMinutes
	}
	if minutes > maxServiceMinutes {
		return maxServiceMinutes
	}
	return minutes
}

// OccupiedRooms — число занятых кабинетов, минимум 1.
func OccupiedRooms(ctx context.Context) int {
	var count int64
	storage.DB.WithContext(ctx).Model(&models.Room{}).
		Where("status = ?", models.RoomOccupied).
		Count(&count)
	if count < 1 {
		return 1
	}
	return int(count)
}

// AverageWaitTime — среднее ожидание (от check-in до начала приема) в минутах
// по завершенным за сегодня записям. Используется в статистике очереди.
func AverageWaitTime(ctx context.Context) int {
	var samples []models.QueueEntry
	if err := storage.DB.WithContext(ctx).
		Select("checked_in_at", "started_at").
		Where("status = ? AND completed_at >= ? AND started_at IS NOT NULL",
			models.StatusCompleted, startOfToday()).
		Find(&samples).Error; err != nil || len(samples) == 0 {
		return 0
	}

	var totalMinutes float64
	for _, s := range samples {
		totalMinutes += s.StartedAt.Sub(s.CheckedInAt).Minutes()
	}
	return int(math.Round(totalMinutes / float64(len(samples))))
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
