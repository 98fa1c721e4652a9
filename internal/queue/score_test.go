package queue

import (
	"testing"
	"time"

	"clinic_queue/internal/models"

	"github.com/stretchr/testify/assert"
)

// Конец 2099 года — верхняя граница epoch-времени, с которым работает индекс.
var farFuture = time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC)

func TestPriorityBandExceedsTimestamps(t *testing.T) {
	// Полоса приоритета должна быть шире любого правдоподобного времени прихода,
	// иначе поздний EMERGENCY проиграет раннему URGENT.
	assert.Greater(t, int64(PriorityBand), farFuture.UnixMilli())
}

func TestScoreTiersNeverOverlap(t *testing.T) {
	tiers := []models.QueuePriority{
		models.PriorityEmergency,
		models.PriorityUrgent,
		models.PriorityAppointment,
		models.PriorityNormal,
	}
	earliest := time.Unix(0, 0)
	for i := 0; i < len(tiers)-1; i++ {
		// Самый поздний приход в срочном приоритете все равно раньше
		// самого раннего в менее срочном.
		assert.Less(t, queueScore(tiers[i], farFuture), queueScore(tiers[i+1], earliest),
			"полосы %s и %s пересекаются", tiers[i], tiers[i+1])
	}
}

func TestScoreOrdersByArrivalWithinTier(t *testing.T) {
	first := time.Now()
	second := first.Add(time.Millisecond)
	assert.Less(t,
		queueScore(models.PriorityNormal, first),
		queueScore(models.PriorityNormal, second))
}

func TestScoreExactInFloat64(t *testing.T) {
	// score хранится как float64 в sorted set: миллисекунды не должны теряться.
	at := farFuture
	score := queueScore(models.PriorityNormal, at)
	expected := models.PriorityNormal.Rank()*PriorityBand + at.UnixMilli()
	assert.Equal(t, expected, int64(score))
	assert.NotEqual(t, score, queueScore(models.PriorityNormal, at.Add(time.Millisecond)))
}
