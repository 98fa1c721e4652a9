package models

import (
	"time"

	"gorm.io/gorm"
)

// QueuePriority — приоритет записи в очереди. Чем меньше ранг, тем раньше вызов.
type QueuePriority string

const (
	PriorityEmergency   QueuePriority = "EMERGENCY"
	PriorityUrgent      QueuePriority = "URGENT"
	PriorityAppointment QueuePriority = "APPOINTMENT"
	PriorityNormal      QueuePriority = "NORMAL"
)

var priorityRanks = map[QueuePriority]int64{
	PriorityEmergency:   1,
	PriorityUrgent:      2,
	PriorityAppointment: 3,
	PriorityNormal:      4,
}

// Rank возвращает числовой ранг приоритета (1 = самый срочный), 0 — если приоритет неизвестен.
func (p QueuePriority) Rank() int64 {
	return priorityRanks[p]
}

// Valid проверяет, что приоритет входит в список допустимых.
func (p QueuePriority) Valid() bool {
	_, ok := priorityRanks[p]
	return ok
}

// QueueStatus — статус записи в очереди.
type QueueStatus string

const (
	StatusWaiting   QueueStatus = "WAITING"
	StatusCalled    QueueStatus = "CALLED"
	StatusInService QueueStatus = "IN_SERVICE"
	StatusCompleted QueueStatus = "COMPLETED"
	StatusCancelled QueueStatus = "CANCELLED"
)

// ActiveStatuses — статусы, при которых запись находится в упорядоченном индексе очереди.
var ActiveStatuses = []QueueStatus{StatusWaiting, StatusCalled, StatusInService}

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomOccupied    RoomStatus = "OCCUPIED"
	RoomMaintenance RoomStatus = "MAINTENANCE"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCheckedIn AppointmentStatus = "CHECKED_IN"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentNoShow    AppointmentStatus = "NO_SHOW"
)

// User — учетная запись сотрудника регистратуры.
type User struct {
	gorm.Model
	Name         string `gorm:"not null"`
	Surname      string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}

type Patient struct {
	gorm.Model
	FirstName   string `gorm:"not null"`
	LastName    string `gorm:"not null"`
	Phone       string `gorm:"index"` // Телефон для SMS-уведомлений (может отсутствовать)
	Email       string `gorm:"index"`
	DateOfBirth *time.Time
}

type Provider struct {
	gorm.Model
	Name      string `gorm:"not null"`
	Specialty string
	Active    bool `gorm:"default:true"`
}

type Room struct {
	gorm.Model
	Number     string     `gorm:"uniqueIndex;not null"` // Номер кабинета, например "101"
	Name       string     `gorm:"not null"`
	Status     RoomStatus `gorm:"index;not null;default:AVAILABLE"`
	ProviderID *uint      `gorm:"index"`
	Provider   *Provider  `gorm:"foreignKey:ProviderID"`
}

type Appointment struct {
	gorm.Model
	PatientID     uint              `gorm:"index;not null"`
	Patient       Patient           `gorm:"foreignKey:PatientID"`
	ProviderID    uint              `gorm:"index;not null"`
	Provider      Provider          `gorm:"foreignKey:ProviderID"`
	ScheduledTime time.Time         `gorm:"index;not null"`
	Status        AppointmentStatus `gorm:"index;not null;default:SCHEDULED"`
	Reason        string
	Notes         string
}

// QueueEntry — одна попытка пациента попасть на прием (активная или историческая).
// Источник истины — эта таблица; упорядоченный индекс в Redis является производным кэшем.
type QueueEntry struct {
	gorm.Model
	PatientID     uint          `gorm:"index;not null"`
	Patient       Patient       `gorm:"foreignKey:PatientID"`
	AppointmentID *uint         `gorm:"index"`
	Appointment   *Appointment  `gorm:"foreignKey:AppointmentID"`
	RoomID        *uint         `gorm:"index"` // Сохраняется после завершения для истории
	Room          *Room         `gorm:"foreignKey:RoomID"`
	Priority      QueuePriority `gorm:"index;not null"`
	Status        QueueStatus   `gorm:"index;not null;default:WAITING"`
	QueueNumber   int           `gorm:"not null"` // Номер талона за день, только для отображения
	Position      int           `gorm:"index"`    // 1-based позиция среди активных записей; 0 — вне очереди
	Reason        string
	Notes         string
	CheckedInAt   time.Time `gorm:"index;not null"`
	CalledAt      *time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// Notification — журнал отправленных пациенту уведомлений.
type Notification struct {
	gorm.Model
	PatientID uint      `gorm:"index;not null"`
	Patient   Patient   `gorm:"foreignKey:PatientID"`
	Type      string    `gorm:"index;not null"` // check_in, called, completed и т.д.
	Message   string    `gorm:"not null"`
	Read      bool      `gorm:"default:false"`
	SentAt    time.Time `gorm:"index;not null"`
}
