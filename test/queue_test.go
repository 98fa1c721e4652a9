package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"clinic_queue/internal/events"
	"clinic_queue/internal/handlers"
	"clinic_queue/internal/models"
	"clinic_queue/internal/queue"
	"clinic_queue/internal/storage"
	"clinic_queue/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func AuthMiddlewareTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr := c.Request.Header.Get("X-Test-UserID")
		if userIDStr == "" {
			// Значение по умолчанию
			c.Set("userID", uint(1))
		} else {
			id, err := strconv.Atoi(userIDStr)
			if err != nil {
				c.Set("userID", uint(1))
			} else {
				c.Set("userID", uint(id))
			}
		}
		c.Next()
	}
}

// Фоновые горутины (hub и трансляция событий) запускаются один раз на весь пакет.
var startBackground sync.Once

func setupTestServer() *httptest.Server {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load("../.env")
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	// Фиксируем среднее время приема, чтобы оценки ожидания были детерминированы.
	os.Setenv("AVERAGE_CONSULTATION_TIME", "20")

	storage.ConnectTestingDatabase()

	if err := storage.DB.AutoMigrate(
		&models.User{},
		&models.Patient{},
		&models.Provider{},
		&models.Room{},
		&models.Appointment{},
		&models.QueueEntry{},
		&models.Notification{},
	); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}

	storage.DB.Exec("TRUNCATE TABLE users, patients, providers, rooms, appointments, queue_entries, notifications RESTART IDENTITY CASCADE;")

	storage.InitRedis()
	storage.RedisClient.Del(context.Background(), queue.QueueKey)

	startBackground.Do(func() {
		go ws.HubInstance.Run()
		go ws.RunEventForwarder(events.BusInstance.Subscribe(64))
	})

	r := gin.Default()

	public := r.Group("/api/queue")
	{
		public.GET("", handlers.GetQueueHandler)
		public.GET("/stats", handlers.GetQueueStatsHandler)
		public.GET("/patient/:patientId/position", handlers.GetPatientPositionHandler)
	}

	r.GET("/ws/queue", ws.QueueWebSocketHandler)

	staff := r.Group("/api", AuthMiddlewareTest())
	{
		staff.POST("/queue/check-in", handlers.CheckInHandler)
		staff.GET("/queue/:id", handlers.GetQueueEntryHandler)
		staff.PATCH("/queue/:id/call-next", handlers.CallNextHandler)
		staff.PATCH("/queue/:id/start-service", handlers.StartServiceHandler)
		staff.PATCH("/queue/:id/complete", handlers.CompleteServiceHandler)
		staff.DELETE("/queue/:id", handlers.RemoveFromQueueHandler)
	}

	return httptest.NewServer(r)
}

func checkIn(t *testing.T, ts *httptest.Server, patientID uint, priority string) queue.CheckInResult {
	body, _ := json.Marshal(map[string]interface{}{
		"patient_id": patientID,
		"priority":   priority,
		"reason":     "Острая боль",
	})
	res, err := http.Post(ts.URL+"/api/queue/check-in", "application/json", bytes.NewReader(body))
	assert.NoError(t, err, "Ошибка запроса check-in")
	defer res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Check-in не удался для пациента %d", patientID)

	var result queue.CheckInResult
	err = json.NewDecoder(res.Body).Decode(&result)
	assert.NoError(t, err, "Ошибка разбора ответа check-in")
	return result
}

func patchStatus(t *testing.T, ts *httptest.Server, entryID uint, action string, body interface{}) *http.Response {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	url := fmt.Sprintf("%s/api/queue/%d/%s", ts.URL, entryID, action)
	req, _ := http.NewRequest("PATCH", url, reader)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	assert.NoError(t, err, "Ошибка запроса %s", action)
	return res
}

func currentQueue(t *testing.T, ts *httptest.Server) []queue.EntryView {
	res, err := http.Get(ts.URL + "/api/queue")
	assert.NoError(t, err, "Ошибка запроса текущей очереди")
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var views []queue.EntryView
	err = json.NewDecoder(res.Body).Decode(&views)
	assert.NoError(t, err, "Ошибка разбора текущей очереди")
	return views
}

func TestQueueFlow(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	// 1. Создаем тестовых пациентов и кабинет напрямую в базе.
	ivanov := models.Patient{FirstName: "Иван", LastName: "Иванов", Phone: "+79990000001"}
	petrov := models.Patient{FirstName: "Петр", LastName: "Петров", Phone: "+79990000002"}
	sidorov := models.Patient{FirstName: "Сидор", LastName: "Сидоров", Phone: "+79990000003"}
	for _, p := range []*models.Patient{&ivanov, &petrov, &sidorov} {
		err := storage.DB.Create(p).Error
		assert.NoError(t, err, "Ошибка создания пациента")
	}

	room := models.Room{Number: "101", Name: "Кабинет 101", Status: models.RoomAvailable}
	err := storage.DB.Create(&room).Error
	assert.NoError(t, err, "Ошибка создания кабинета")
	log.Println("Тестовые пациенты и кабинет созданы")

	// 2. Первый пациент в пустой очереди: талон 1, позиция 1.
	first := checkIn(t, ts, ivanov.ID, "NORMAL")
	assert.Equal(t, 1, first.Entry.QueueNumber, "Первый талон за день должен быть 1")
	assert.Equal(t, 1, first.Position, "Первый пациент должен получить позицию 1")
	// 1 пациент, 1 кабинет, 20 минут приема и 10% запаса.
	assert.Equal(t, 22, first.EstimatedWait, "Неверная оценка ожидания для позиции 1")

	// 3. Второй NORMAL встает за первым.
	second := checkIn(t, ts, petrov.ID, "NORMAL")
	assert.Equal(t, 2, second.Entry.QueueNumber)
	assert.Equal(t, 2, second.Position, "Второй NORMAL должен стоять за первым")

	// 4. EMERGENCY обгоняет обоих, но их взаимный порядок сохраняется.
	urgent := checkIn(t, ts, sidorov.ID, "EMERGENCY")
	assert.Equal(t, 3, urgent.Entry.QueueNumber, "Талон не зависит от приоритета")
	assert.Equal(t, 1, urgent.Position, "EMERGENCY должен встать в голову очереди")

	views := currentQueue(t, ts)
	assert.Len(t, views, 3)
	assert.Equal(t, sidorov.ID, views[0].PatientID)
	assert.Equal(t, ivanov.ID, views[1].PatientID)
	assert.Equal(t, petrov.ID, views[2].PatientID)
	for i, v := range views {
		assert.Equal(t, i+1, v.Position, "Позиции должны идти подряд с 1")
	}

	// 5. Повторный check-in активного пациента отклоняется, очередь не меняется.
	body, _ := json.Marshal(map[string]interface{}{
		"patient_id": ivanov.ID,
		"priority":   "NORMAL",
		"reason":     "Повторная попытка",
	})
	dupRes, err := http.Post(ts.URL+"/api/queue/check-in", "application/json", bytes.NewReader(body))
	assert.NoError(t, err)
	defer dupRes.Body.Close()
	assert.Equal(t, http.StatusConflict, dupRes.StatusCode, "Повторный check-in должен вернуть конфликт")
	var dupErr map[string]interface{}
	json.NewDecoder(dupRes.Body).Decode(&dupErr)
	assert.Equal(t, "ALREADY_IN_QUEUE", dupErr["code"])
	assert.Len(t, currentQueue(t, ts), 3, "Очередь не должна измениться после отклоненного check-in")

	// 6. Позиция пациента по его ID: Петров третий из трех.
	posURL := fmt.Sprintf("%s/api/queue/patient/%d/position", ts.URL, petrov.ID)
	posRes, err := http.Get(posURL)
	assert.NoError(t, err, "Ошибка запроса позиции пациента")
	defer posRes.Body.Close()
	assert.Equal(t, http.StatusOK, posRes.StatusCode)
	var pos queue.PositionResult
	json.NewDecoder(posRes.Body).Decode(&pos)
	assert.Equal(t, 3, pos.Position)
	assert.Equal(t, int64(3), pos.TotalInQueue)

	// 7. Подключаемся к WS-каналу регистратуры. Пауза дает фоновой трансляции
	// дорассылать события прошедших check-in до регистрации клиента.
	time.Sleep(200 * time.Millisecond)
	wsURL := "ws" + ts.URL[4:] + "/ws/queue?channel=reception"
	wsConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err, "Ошибка подключения к WS")
	defer wsConn.Close()
	time.Sleep(100 * time.Millisecond)

	// 8. Снимаем Петрова с очереди: позиции пересчитываются, уходят WS-события.
	delURL := fmt.Sprintf("%s/api/queue/%d", ts.URL, second.Entry.ID)
	delReq, _ := http.NewRequest("DELETE", delURL, nil)
	delRes, err := http.DefaultClient.Do(delReq)
	assert.NoError(t, err, "Ошибка запроса снятия с очереди")
	delRes.Body.Close()
	assert.Equal(t, http.StatusNoContent, delRes.StatusCode)

	wsConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := wsConn.ReadMessage()
	assert.NoError(t, err, "Ошибка чтения WS сообщения (positions_updated)")
	var wsMsg ws.WSMessage
	assert.NoError(t, json.Unmarshal(raw, &wsMsg))
	assert.Equal(t, "positions_updated", wsMsg.EventType, "После пересчета позиций ожидается positions_updated")

	_, raw, err = wsConn.ReadMessage()
	assert.NoError(t, err, "Ошибка чтения WS сообщения (queue_updated)")
	assert.NoError(t, json.Unmarshal(raw, &wsMsg))
	assert.Equal(t, "queue_updated", wsMsg.EventType, "После отмены записи ожидается queue_updated")

	views = currentQueue(t, ts)
	assert.Len(t, views, 2, "После отмены в очереди двое")
	assert.Equal(t, sidorov.ID, views[0].PatientID)
	assert.Equal(t, ivanov.ID, views[1].PatientID)
	assert.Equal(t, 2, views[1].Position, "Иванов должен подняться на позицию 2")

	// 9. Вызываем Сидорова в кабинет. Второй вызов в тот же кабинет отклоняется.
	callRes := patchStatus(t, ts, urgent.Entry.ID, "call-next", map[string]interface{}{"room_id": room.ID})
	defer callRes.Body.Close()
	assert.Equal(t, http.StatusOK, callRes.StatusCode, "Вызов пациента не удался")
	var called models.QueueEntry
	json.NewDecoder(callRes.Body).Decode(&called)
	assert.Equal(t, models.StatusCalled, called.Status)

	busyRes := patchStatus(t, ts, first.Entry.ID, "call-next", map[string]interface{}{"room_id": room.ID})
	defer busyRes.Body.Close()
	assert.Equal(t, http.StatusConflict, busyRes.StatusCode, "Занятый кабинет должен дать конфликт")
	var busyErr map[string]interface{}
	json.NewDecoder(busyRes.Body).Decode(&busyErr)
	assert.Equal(t, "ROOM_BUSY", busyErr["code"])

	// 10. Начало приема занимает кабинет.
	startRes := patchStatus(t, ts, urgent.Entry.ID, "start-service", nil)
	startRes.Body.Close()
	assert.Equal(t, http.StatusOK, startRes.StatusCode, "Начало приема не удалось")
	var occupied models.Room
	storage.DB.First(&occupied, room.ID)
	assert.Equal(t, models.RoomOccupied, occupied.Status, "Кабинет должен стать занятым")

	// 11. Завершение приема освобождает кабинет и продвигает очередь.
	completeRes := patchStatus(t, ts, urgent.Entry.ID, "complete", nil)
	completeRes.Body.Close()
	assert.Equal(t, http.StatusOK, completeRes.StatusCode, "Завершение приема не удалось")

	var freed models.Room
	storage.DB.First(&freed, room.ID)
	assert.Equal(t, models.RoomAvailable, freed.Status, "Кабинет должен освободиться")

	views = currentQueue(t, ts)
	assert.Len(t, views, 1, "После завершения в очереди остается один")
	assert.Equal(t, ivanov.ID, views[0].PatientID)
	assert.Equal(t, 1, views[0].Position, "Иванов должен стать первым")

	// 12. Недопустимый переход: завершить прием у ожидающего нельзя.
	invalidRes := patchStatus(t, ts, first.Entry.ID, "complete", nil)
	defer invalidRes.Body.Close()
	assert.Equal(t, http.StatusConflict, invalidRes.StatusCode)
	var invalidErr map[string]interface{}
	json.NewDecoder(invalidRes.Body).Decode(&invalidErr)
	assert.Equal(t, "INVALID_STATE", invalidErr["code"])

	// 13. Статистика: размер очереди из индекса и разбивка за сегодня.
	statsRes, err := http.Get(ts.URL + "/api/queue/stats")
	assert.NoError(t, err, "Ошибка запроса статистики")
	defer statsRes.Body.Close()
	assert.Equal(t, http.StatusOK, statsRes.StatusCode)
	var stats queue.Stats
	json.NewDecoder(statsRes.Body).Decode(&stats)
	assert.Equal(t, int64(1), stats.CurrentQueueSize)
	assert.Equal(t, int64(1), stats.TodayByStatus[models.StatusWaiting])
	assert.Equal(t, int64(1), stats.TodayByStatus[models.StatusCompleted])
	assert.Equal(t, int64(1), stats.TodayByStatus[models.StatusCancelled])

	// 14. Индекс и активные записи базы описывают одно и то же множество.
	members, err := storage.RedisClient.ZRange(context.Background(), queue.QueueKey, 0, -1).Result()
	assert.NoError(t, err)
	var active []models.QueueEntry
	storage.DB.Where("status IN ?", models.ActiveStatuses).Find(&active)
	assert.Len(t, members, len(active), "Индекс и активные записи разошлись")
	assert.Equal(t, strconv.Itoa(int(first.Entry.ID)), members[0])
}

func TestReconcileIdempotent(t *testing.T) {
	ts := setupTestServer()
	defer ts.Close()

	patient := models.Patient{FirstName: "Анна", LastName: "Смирнова", Phone: "+79990000010"}
	err := storage.DB.Create(&patient).Error
	assert.NoError(t, err)

	res := checkIn(t, ts, patient.ID, "NORMAL")
	assert.Equal(t, 1, res.Position)

	// Повторный пересчет без изменений очереди не должен менять позиции.
	ctx := context.Background()
	assert.NoError(t, queue.ReconcileAll(ctx))
	assert.NoError(t, queue.ReconcileAll(ctx))

	var entry models.QueueEntry
	storage.DB.First(&entry, res.Entry.ID)
	assert.Equal(t, 1, entry.Position, "Пересчет на неизменной очереди должен быть идемпотентным")
}
