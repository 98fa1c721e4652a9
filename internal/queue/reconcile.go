package queue

import (
	"context"
	"log"

	"clinic_queue/internal/events"
	"clinic_queue/internal/models"
	"clinic_queue/internal/storage"
)

// ReconcileAll пересчитывает позиции всех активных записей по текущему порядку индекса
// и записывает их в базу. Вызывается после каждого добавления/удаления из индекса.
//
// Пересчет всего активного набора вместо инкрементального сдвига — осознанный выбор:
// очередь клиники маленькая (десятки записей), а полный проход идемпотентен и
// коммутативен — два одновременных пересчета сходятся к одному результату.
func ReconcileAll(ctx context.Context) error {
	ids, err := IndexEntries(ctx)
	if err != nil {
		return err
	}

	for i, id := range ids {
		// Ошибка записи одной позиции не прерывает пересчет: устаревшее значение
		// исправится при следующем вызове.
		if err := storage.DB.WithContext(ctx).Model(&models.QueueEntry{}).
			Where("id = ?", id).
			Update("position", i+1).Error; err != nil {
			log.Printf("Ошибка обновления позиции записи %d: %v", id, err)
		}
	}

	events.BusInstance.Emit(events.Event{
		Kind:    events.PositionsChanged,
		Payload: map[string]interface{}{"queue_size": len(ids)},
	})

	return nil
}
