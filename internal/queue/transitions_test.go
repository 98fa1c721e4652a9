package queue

import (
	"testing"

	"clinic_queue/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanEnter(t *testing.T) {
	cases := []struct {
		name    string
		target  models.QueueStatus
		from    models.QueueStatus
		allowed bool
	}{
		{"вызов из ожидания", models.StatusCalled, models.StatusWaiting, true},
		{"вызов из приёма", models.StatusCalled, models.StatusInService, false},
		{"повторный вызов", models.StatusCalled, models.StatusCalled, false},
		{"начало приёма после вызова", models.StatusInService, models.StatusCalled, true},
		{"начало приёма из ожидания", models.StatusInService, models.StatusWaiting, false},
		{"завершение приёма", models.StatusCompleted, models.StatusInService, true},
		{"завершение без приёма", models.StatusCompleted, models.StatusCalled, false},
		{"отмена из ожидания", models.StatusCancelled, models.StatusWaiting, true},
		{"отмена после вызова", models.StatusCancelled, models.StatusCalled, true},
		{"отмена во время приёма", models.StatusCancelled, models.StatusInService, false},
		{"отмена завершённой записи", models.StatusCancelled, models.StatusCompleted, false},
		{"возврат в ожидание", models.StatusWaiting, models.StatusCalled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, canEnter(tc.target, tc.from))
		})
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	terminal := []models.QueueStatus{models.StatusCompleted, models.StatusCancelled}
	targets := []models.QueueStatus{
		models.StatusWaiting,
		models.StatusCalled,
		models.StatusInService,
		models.StatusCompleted,
		models.StatusCancelled,
	}
	for _, from := range terminal {
		for _, target := range targets {
			assert.False(t, canEnter(target, from),
				"из %s не должно быть перехода в %s", from, target)
		}
	}
}
