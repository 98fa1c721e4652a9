package notify

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"clinic_queue/internal/events"
	"clinic_queue/internal/models"
	"clinic_queue/internal/storage"
)

// SmsNotifier слушает доменные события очереди и отправляет пациентам SMS.
// Работает вне критического пути движка: любая ошибка здесь только логируется
// и никогда не влияет на уже выполненную операцию очереди.
type SmsNotifier struct {
	enabled     bool
	mockMode    bool
	clinicName  string
	clinicPhone string
	minInterval time.Duration
	hoursStart  int
	hoursEnd    int
}

// NewSmsNotifier собирает конфигурацию из окружения.
func NewSmsNotifier() *SmsNotifier {
	n := &SmsNotifier{
		enabled:     os.Getenv("SMS_ENABLED") == "true",
		mockMode:    os.Getenv("SMS_MOCK_MODE") == "true",
		clinicName:  envOr("SMS_CLINIC_NAME", "Dental Clinic"),
		clinicPhone: os.Getenv("SMS_CLINIC_PHONE"),
		minInterval: time.Duration(envIntOr("SMS_MIN_INTERVAL_MINUTES", 5)) * time.Minute,
		hoursStart:  envIntOr("SMS_BUSINESS_HOURS_START", 8),
		hoursEnd:    envIntOr("SMS_BUSINESS_HOURS_END", 18),
	}
	switch {
	case n.mockMode:
		log.Println("SMS-сервис запущен в режиме MOCK")
	case n.enabled:
		log.Println("SMS-сервис включен")
	default:
		log.Println("SMS-сервис отключен")
	}
	return n
}

// Run обрабатывает события из шины. Запускается горутиной из main.
func (n *SmsNotifier) Run(ch <-chan events.Event) {
	for event := range ch {
		ctx := context.Background()
		switch event.Kind {
		case events.EntryCheckedIn:
			n.sendCheckInConfirmation(ctx, event)
		case events.EntryCalled:
			n.sendCalledToRoom(ctx, event)
		case events.EntryCompleted:
			n.sendServiceCompleted(ctx, event)
		}
	}
}

func (n *SmsNotifier) sendCheckInConfirmation(ctx context.Context, event events.Event) {
	if !n.canSendToPatient(ctx, event.PatientID) {
		return
	}
	message := fmt.Sprintf(
		"Welcome to %s! You're #%v in queue, position %v. Estimated wait: ~%v minutes. We'll text you when it's your turn!",
		n.clinicName, event.Payload["queue_number"], event.Payload["position"], event.Payload["estimated_wait"])
	n.dispatch(ctx, event.PatientID, "check_in", message)
}

func (n *SmsNotifier) sendCalledToRoom(ctx context.Context, event events.Event) {
	if !n.isBusinessHours() {
		return
	}
	message := fmt.Sprintf("You're being called! Please proceed to %v.", event.Payload["room_name"])
	n.dispatch(ctx, event.PatientID, "called", message)
}

func (n *SmsNotifier) sendServiceCompleted(ctx context.Context, event events.Event) {
	message := fmt.Sprintf("Thank you for visiting %s! Your visit is complete.", n.clinicName)
	n.dispatch(ctx, event.PatientID, "completed", message)
}

// canSendToPatient — rate-limit «не чаще одного SMS за интервал» на пациента.
// Хранится ключом в Redis с TTL, а не картой в памяти: движок остается stateless
// и ограничение действует на все экземпляры сервиса сразу.
func (n *SmsNotifier) canSendToPatient(ctx context.Context, patientID uint) bool {
	key := "sms:last:" + strconv.FormatUint(uint64(patientID), 10)
	ok, err := storage.RedisClient.SetNX(ctx, key, time.Now().Unix(), n.minInterval).Result()
	if err != nil {
		log.Println("Ошибка rate-limit SMS:", err)
		return false
	}
	return ok
}

func (n *SmsNotifier) isBusinessHours() bool {
	hour := time.Now().Hour()
	return hour >= n.hoursStart && hour < n.hoursEnd
}

// dispatch отправляет сообщение и пишет его в журнал уведомлений.
func (n *SmsNotifier) dispatch(ctx context.Context, patientID uint, kind, message string) {
	var patient models.Patient
	if err := storage.DB.WithContext(ctx).First(&patient, patientID).Error; err != nil {
		log.Printf("SMS: пациент %d не найден: %v", patientID, err)
		return
	}
	if patient.Phone == "" {
		log.Printf("SMS: у пациента %d нет номера телефона", patientID)
		return
	}

	switch {
	case !n.enabled:
		log.Printf("SMS отключен: не отправлено на %s: %s", patient.Phone, message)
		return
	case n.mockMode:
		log.Printf("MOCK SMS на %s: %s", patient.Phone, message)
	default:
		// Реальный SMS-шлюз не подключен: в продуктиве сюда встает провайдер.
		log.Printf("SMS-шлюз не настроен, сообщение для %s не отправлено", patient.Phone)
		return
	}

	notification := models.Notification{
		PatientID: patientID,
		Type:      kind,
		Message:   message,
		SentAt:    time.Now(),
	}
	if err := storage.DB.WithContext(ctx).Create(&notification).Error; err != nil {
		log.Println("Ошибка записи уведомления в журнал:", err)
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envIntOr(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
