package events

import (
	"log"
	"sync"
)

// Kind — тип доменного события очереди.
type Kind string

const (
	EntryCheckedIn   Kind = "entry_checked_in"
	EntryCalled      Kind = "entry_called"
	EntryStarted     Kind = "entry_started"
	EntryCompleted   Kind = "entry_completed"
	EntryCancelled   Kind = "entry_cancelled"
	PositionsChanged Kind = "positions_changed"
)

// Event — событие, которое движок очереди публикует после успешной мутации.
// Подписчики (SMS, WebSocket) работают отдельно от движка: их сбои не могут
// откатить или заблокировать уже выполненную операцию очереди.
type Event struct {
	Kind      Kind
	EntryID   uint
	PatientID uint
	Payload   map[string]interface{}
}

// Bus раздает события подписчикам. Доставка best-effort: при переполненном
// буфере подписчика событие для него отбрасывается с записью в лог.
type Bus struct {
	mu   sync.RWMutex
	subs []chan Event
}

// Глобальный экземпляр шины, по аналогии с HubInstance для WebSocket.
var BusInstance = NewBus()

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe возвращает канал, в который будут попадать все последующие события.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Emit публикует событие без блокировки вызывающего.
func (b *Bus) Emit(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Printf("Переполнен буфер подписчика, событие %s отброшено", event.Kind)
		}
	}
}
