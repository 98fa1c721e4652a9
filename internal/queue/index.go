package queue

import (
	"context"
	"strconv"
	"time"

	"clinic_queue/internal/models"
	"clinic_queue/internal/storage"

	"github.com/go-redis/redis/v8"
)

// QueueKey — ключ sorted set в Redis с упорядоченным индексом активных записей.
// Индекс разделяется всеми экземплярами сервиса; каждая операция — одна атомарная
// команда Redis, внутрипроцессные блокировки не нужны.
const QueueKey = "clinic:queue"

// PriorityBand — ширина полосы одного приоритета в score.
// Полоса должна быть больше любого epoch-времени в миллисекундах (~1.7e12 в 2026,
// < 5e12 до конца века), иначе время прихода "перетечет" в соседний приоритет.
// При 4*1e15 + millis значение остается точно представимым в float64 score.
const PriorityBand = 1_000_000_000_000_000

// queueScore считает score записи: полоса приоритета + время прихода в миллисекундах.
// Внутри приоритета порядок определяется временем прихода.
func queueScore(priority models.QueuePriority, checkedInAt time.Time) float64 {
	return float64(priority.Rank()*PriorityBand + checkedInAt.UnixMilli())
}

func indexMember(entryID uint) string {
	return strconv.FormatUint(uint64(entryID), 10)
}

// AddToIndex добавляет запись в индекс. Повторное добавление перезаписывает score
// (семантика ZADD) — дубль check-in отклоняется раньше, на уровне движка.
func AddToIndex(ctx context.Context, entryID uint, priority models.QueuePriority, checkedInAt time.Time) error {
	return storage.RedisClient.ZAdd(ctx, QueueKey, &redis.Z{
		Score:  queueScore(priority, checkedInAt),
		Member: indexMember(entryID),
	}).Err()
}

// RemoveFromIndex убирает запись из индекса. Отсутствующая запись — не ошибка.
func RemoveFromIndex(ctx context.Context, entryID uint) error {
	return storage.RedisClient.ZRem(ctx, QueueKey, indexMember(entryID)).Err()
}

// IndexRank возвращает 1-based позицию записи в индексе, 0 — если записи нет.
func IndexRank(ctx context.Context, entryID uint) (int, error) {
	rank, err := storage.RedisClient.ZRank(ctx, QueueKey, indexMember(entryID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(rank) + 1, nil
}

// IndexEntries возвращает идентификаторы всех записей в порядке обслуживания.
// ZRANGE отдает срез целиком, так что это свежий снимок на момент вызова.
func IndexEntries(ctx context.Context) ([]uint, error) {
	members, err := storage.RedisClient.ZRange(ctx, QueueKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// IndexSize возвращает количество записей в индексе.
func IndexSize(ctx context.Context) (int64, error) {
	return storage.RedisClient.ZCard(ctx, QueueKey).Result()
}
