package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateNotInQueue(t *testing.T) {
	// Вне активной очереди оценка не применима.
	assert.Equal(t, 0, Estimate(0, 1, 20))
	assert.Equal(t, 0, Estimate(-3, 2, 20))
}

func TestEstimateSingleRoom(t *testing.T) {
	// Позиция 3, один занятый кабинет, среднее 20 минут:
	// 3 пациента впереди на кабинет, 60 минут + 6 минут буфера.
	assert.Equal(t, 66, Estimate(3, 1, 20))
}

func TestEstimateParallelRooms(t *testing.T) {
	// Три кабинета делят очередь: ceil(5/3)=2 приема, 40 минут + 4 буфера.
	assert.Equal(t, 44, Estimate(5, 3, 20))
}

func TestEstimateFloor(t *testing.T) {
	// Оценка никогда не опускается ниже 5 минут.
	assert.Equal(t, 5, Estimate(1, 1, 0))
	assert.Equal(t, 5, Estimate(1, 10, 0))
}

func TestEstimateZeroRoomsTreatedAsOne(t *testing.T) {
	assert.Equal(t, Estimate(2, 1, 20), Estimate(2, 0, 20))
}

func TestClampServiceMinutes(t *testing.T) {
	assert.Equal(t, 5, clampServiceMinutes(0))
	assert.Equal(t, 5, clampServiceMinutes(3))
	assert.Equal(t, 20, clampServiceMinutes(20))
	assert.Equal(t, 60, clampServiceMinutes(60))
	assert.Equal(t, 60, clampServiceMinutes(240))
}
