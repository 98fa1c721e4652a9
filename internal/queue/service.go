package queue

import (
	"context"
	"errors"
	"time"

	"clinic_queue/internal/events"
	"clinic_queue/internal/models"
	"clinic_queue/internal/storage"

	"gorm.io/gorm"
)

// transitionTargets описывает, из каких статусов разрешен переход в целевой.
// Операции с записью в неподходящем статусе отклоняются с ErrInvalidState,
// а не проходят молча.
var transitionTargets = map[models.QueueStatus][]models.QueueStatus{
	models.StatusCalled:    {models.StatusWaiting},
	models.StatusInService: {models.StatusCalled},
	models.StatusCompleted: {models.StatusInService},
	models.StatusCancelled: {models.StatusWaiting, models.StatusCalled},
}

func canEnter(target, from models.QueueStatus) bool {
	for _, s := range transitionTargets[target] {
		if s == from {
			return true
		}
	}
	return false
}

// priorityOrder — SQL-порядок (приоритет, время прихода), тот же тотальный
// порядок, что и в индексе Redis.
const priorityOrder = "CASE priority WHEN 'EMERGENCY' THEN 1 WHEN 'URGENT' THEN 2 WHEN 'APPOINTMENT' THEN 3 ELSE 4 END, checked_in_at ASC"

type CheckInInput struct {
	PatientID     uint
	AppointmentID *uint
	Priority      models.QueuePriority
	Reason        string
	Notes         string
}

type CheckInResult struct {
	Entry         models.QueueEntry `json:"entry"`
	Position      int               `json:"position"`
	EstimatedWait int               `json:"estimated_wait"`
}

// CheckIn регистрирует пациента в очереди: создает запись WAITING, добавляет ее
// в индекс, пересчитывает позиции и считает ETA.
func CheckIn(ctx context.Context, in CheckInInput) (*CheckInResult, error) {
	db := storage.DB.WithContext(ctx)

	var patient models.Patient
	if err := db.First(&patient, in.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	// У пациента может быть только одна активная запись.
	var existing models.QueueEntry
	if err := db.Where("patient_id = ? AND status IN ?", in.PatientID, models.ActiveStatuses).
		First(&existing).Error; err == nil {
		return nil, ErrAlreadyInQueue
	}

	if in.AppointmentID != nil {
		var appointment models.Appointment
		if err := db.First(&appointment, *in.AppointmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAppointmentNotFound
			}
			return nil, err
		}
		if err := db.Model(&appointment).
			Update("status", models.AppointmentCheckedIn).Error; err != nil {
			return nil, err
		}
	}

	queueNumber, err := nextQueueNumber(ctx)
	if err != nil {
		return nil, err
	}

	// Время прихода фиксируется здесь и используется и в записи, и в score индекса,
	// чтобы порядок в базе и в индексе совпадал даже при гонке двух check-in.
	now := time.Now()
	entry := models.QueueEntry{
		PatientID:     in.PatientID,
		AppointmentID: in.AppointmentID,
		Priority:      in.Priority,
		Status:        models.StatusWaiting,
		QueueNumber:   queueNumber,
		Reason:        in.Reason,
		Notes:         in.Notes,
		CheckedInAt:   now,
	}
	if err := db.Create(&entry).Error; err != nil {
		return nil, err
	}

	if err := AddToIndex(ctx, entry.ID, in.Priority, now); err != nil {
		// Отклоненный check-in не должен оставить частичную запись.
		db.Unscoped().Delete(&entry)
		return nil, err
	}

	if err := ReconcileAll(ctx); err != nil {
		return nil, err
	}

	position, err := IndexRank(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	entry.Position = position
	entry.Patient = patient

	eta := Estimate(position, OccupiedRooms(ctx), AverageServiceTime(ctx))

	events.BusInstance.Emit(events.Event{
		Kind:      events.EntryCheckedIn,
		EntryID:   entry.ID,
		PatientID: entry.PatientID,
		Payload: map[string]interface{}{
			"queue_number":   entry.QueueNumber,
			"position":       position,
			"estimated_wait": eta,
		},
	})

	return &CheckInResult{Entry: entry, Position: position, EstimatedWait: eta}, nil
}

// CallNext вызывает пациента в кабинет: WAITING -> CALLED. Запись остается
// в индексе и продолжает учитываться в позициях остальных.
func CallNext(ctx context.Context, entryID, roomID uint) (*models.QueueEntry, error) {
	db := storage.DB.WithContext(ctx)

	var entry models.QueueEntry
	if err := db.Preload("Patient").First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if !canEnter(models.StatusCalled, entry.Status) {
		return nil, ErrInvalidState
	}

	var room models.Room
	if err := db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	// Кабинет нельзя закрепить за двумя активными пациентами: complete
	// переводит его в AVAILABLE и освободил бы чужой прием.
	var busy int64
	if err := db.Model(&models.QueueEntry{}).
		Where("room_id = ? AND status IN ?", roomID, []models.QueueStatus{models.StatusCalled, models.StatusInService}).
		Count(&busy).Error; err != nil {
		return nil, err
	}
	if busy > 0 {
		return nil, ErrRoomBusy
	}

	now := time.Now()
	if err := db.Model(&entry).Updates(map[string]interface{}{
		"status":    models.StatusCalled,
		"room_id":   roomID,
		"called_at": now,
	}).Error; err != nil {
		return nil, err
	}
	entry.Status = models.StatusCalled
	entry.RoomID = &roomID
	entry.Room = &room
	entry.CalledAt = &now

	events.BusInstance.Emit(events.Event{
		Kind:      events.EntryCalled,
		EntryID:   entry.ID,
		PatientID: entry.PatientID,
		Payload: map[string]interface{}{
			"room_id":   room.ID,
			"room_name": room.Name,
		},
	})

	return &entry, nil
}

// StartService начинает прием: CALLED -> IN_SERVICE, кабинет становится OCCUPIED.
func StartService(ctx context.Context, entryID uint) (*models.QueueEntry, error) {
	db := storage.DB.WithContext(ctx)

	var entry models.QueueEntry
	if err := db.Preload("Patient").Preload("Room").First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if !canEnter(models.StatusInService, entry.Status) {
		return nil, ErrInvalidState
	}

	now := time.Now()
	if err := db.Model(&entry).Updates(map[string]interface{}{
		"status":     models.StatusInService,
		"started_at": now,
	}).Error; err != nil {
		return nil, err
	}
	entry.Status = models.StatusInService
	entry.StartedAt = &now

	if entry.RoomID != nil {
		if err := db.Model(&models.Room{}).Where("id = ?", *entry.RoomID).
			Update("status", models.RoomOccupied).Error; err != nil {
			return nil, err
		}
	}

	events.BusInstance.Emit(events.Event{
		Kind:      events.EntryStarted,
		EntryID:   entry.ID,
		PatientID: entry.PatientID,
	})

	return &entry, nil
}

// CompleteService завершает прием: IN_SERVICE -> COMPLETED, запись покидает индекс,
// кабинет освобождается, связанная запись на прием закрывается.
func CompleteService(ctx context.Context, entryID uint) (*models.QueueEntry, error) {
	db := storage.DB.WithContext(ctx)

	var entry models.QueueEntry
	if err := db.Preload("Patient").Preload("Room").First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if !canEnter(models.StatusCompleted, entry.Status) {
		return nil, ErrInvalidState
	}

	now := time.Now()
	if err := db.Model(&entry).Updates(map[string]interface{}{
		"status":       models.StatusCompleted,
		"completed_at": now,
		"position":     0,
	}).Error; err != nil {
		return nil, err
	}
	entry.Status = models.StatusCompleted
	entry.CompletedAt = &now
	entry.Position = 0

	if err := RemoveFromIndex(ctx, entry.ID); err != nil {
		return nil, err
	}

	if entry.RoomID != nil {
		if err := db.Model(&models.Room{}).Where("id = ?", *entry.RoomID).
			Update("status", models.RoomAvailable).Error; err != nil {
			return nil, err
		}
	}

	if entry.AppointmentID != nil {
		if err := db.Model(&models.Appointment{}).Where("id = ?", *entry.AppointmentID).
			Update("status", models.AppointmentCompleted).Error; err != nil {
			return nil, err
		}
	}

	if err := ReconcileAll(ctx); err != nil {
		return nil, err
	}

	events.BusInstance.Emit(events.Event{
		Kind:      events.EntryCompleted,
		EntryID:   entry.ID,
		PatientID: entry.PatientID,
	})

	return &entry, nil
}

// RemoveFromQueue снимает пациента с очереди: WAITING/CALLED -> CANCELLED.
// Разрешено в любом месте очереди — это штатный обход строгого порядка персоналом.
func RemoveFromQueue(ctx context.Context, entryID uint) error {
	db := storage.DB.WithContext(ctx)

	var entry models.QueueEntry
	if err := db.First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	if !canEnter(models.StatusCancelled, entry.Status) {
		return ErrInvalidState
	}

	if err := db.Model(&entry).Updates(map[string]interface{}{
		"status":   models.StatusCancelled,
		"position": 0,
	}).Error; err != nil {
		return err
	}

	if err := RemoveFromIndex(ctx, entry.ID); err != nil {
		return err
	}
	if err := ReconcileAll(ctx); err != nil {
		return err
	}

	events.BusInstance.Emit(events.Event{
		Kind:      events.EntryCancelled,
		EntryID:   entry.ID,
		PatientID: entry.PatientID,
	})

	return nil
}

// UpdateStatus — административная прямая установка статуса в обход охраняемых
// переходов. Индекс и позиции НЕ трогаются: согласованность лежит на вызывающем.
func UpdateStatus(ctx context.Context, entryID uint, status models.QueueStatus) (*models.QueueEntry, error) {
	db := storage.DB.WithContext(ctx)

	var entry models.QueueEntry
	if err := db.Preload("Patient").First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	if err := db.Model(&entry).Update("status", status).Error; err != nil {
		return nil, err
	}
	entry.Status = status
	return &entry, nil
}

// EntryView — активная запись, обогащенная оценкой ожидания.
type EntryView struct {
	models.QueueEntry
	EstimatedWait int `json:"estimated_wait"`
}

// GetCurrentQueue возвращает активные записи в порядке обслуживания с позициями и ETA.
// Позиции читаются из реконсилированного поля, агрегаты для ETA считаются один раз.
func GetCurrentQueue(ctx context.Context) ([]EntryView, error) {
	var entries []models.QueueEntry
	if err := storage.DB.WithContext(ctx).
		Preload("Patient").Preload("Room").Preload("Appointment").
		Where("status IN ?", models.ActiveStatuses).
		Order(priorityOrder).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	rooms := OccupiedRooms(ctx)
	avg := AverageServiceTime(ctx)

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, EntryView{
			QueueEntry:    e,
			EstimatedWait: Estimate(e.Position, rooms, avg),
		})
	}
	return views, nil
}

// GetEntry возвращает запись по идентификатору с позицией и ETA.
func GetEntry(ctx context.Context, entryID uint) (*EntryView, error) {
	var entry models.QueueEntry
	if err := storage.DB.WithContext(ctx).
		Preload("Patient").Preload("Room").Preload("Appointment").
		First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	eta := Estimate(entry.Position, OccupiedRooms(ctx), AverageServiceTime(ctx))
	return &EntryView{QueueEntry: entry, EstimatedWait: eta}, nil
}

type PositionResult struct {
	Entry         models.QueueEntry `json:"entry"`
	Position      int               `json:"position"`
	EstimatedWait int               `json:"estimated_wait"`
	TotalInQueue  int64             `json:"total_in_queue"`
}

// GetPatientPosition возвращает позицию и ETA ожидающего пациента.
// Пациент в статусе IN_SERVICE уже не спрашивает свое место в очереди.
func GetPatientPosition(ctx context.Context, patientID uint) (*PositionResult, error) {
	var entry models.QueueEntry
	if err := storage.DB.WithContext(ctx).
		Preload("Patient").
		Where("patient_id = ? AND status IN ?", patientID,
			[]models.QueueStatus{models.StatusWaiting, models.StatusCalled}).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	total, err := IndexSize(ctx)
	if err != nil {
		return nil, err
	}

	eta := Estimate(entry.Position, OccupiedRooms(ctx), AverageServiceTime(ctx))
	return &PositionResult{
		Entry:         entry,
		Position:      entry.Position,
		EstimatedWait: eta,
		TotalInQueue:  total,
	}, nil
}

type Stats struct {
	CurrentQueueSize   int64                        `json:"current_queue_size"`
	TodayByStatus      map[models.QueueStatus]int64 `json:"today_by_status"`
	AverageWaitMinutes int                          `json:"average_wait_minutes"`
}

// GetQueueStats — размер очереди, разбивка сегодняшних записей по статусам
// и среднее ожидание за сегодня.
func GetQueueStats(ctx context.Context) (*Stats, error) {
	size, err := IndexSize(ctx)
	if err != nil {
		return nil, err
	}

	type statusCount struct {
		Status models.QueueStatus
		Count  int64
	}
	var counts []statusCount
	if err := storage.DB.WithContext(ctx).Model(&models.QueueEntry{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ?", startOfToday()).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	byStatus := make(map[models.QueueStatus]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	return &Stats{
		CurrentQueueSize:   size,
		TodayByStatus:      byStatus,
		AverageWaitMinutes: AverageWaitTime(ctx),
	}, nil
}

// nextQueueNumber — номер талона: количество сегодняшних записей (включая
// отмененные) + 1. Сбрасывается с началом нового календарного дня.
func nextQueueNumber(ctx context.Context) (int, error) {
	var count int64
	if err := storage.DB.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("created_at >= ?", startOfToday()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}
