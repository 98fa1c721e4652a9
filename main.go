package main

import (
	"fmt"
	"log"
	"os"

	_ "clinic_queue/docs"
	"clinic_queue/internal/auth"
	"clinic_queue/internal/events"
	"clinic_queue/internal/handlers"
	"clinic_queue/internal/models"
	"clinic_queue/internal/notify"
	"clinic_queue/internal/storage"
	"clinic_queue/internal/tasks"
	"clinic_queue/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						Электронная очередь клиники
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load()
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	storage.ConnectDatabase()

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

	storage.InitRedis()

	tasks.InitScheduler()

	go ws.HubInstance.Run()
	go ws.RunEventForwarder(events.BusInstance.Subscribe(64))

	notifier := notify.NewSmsNotifier()
	go notifier.Run(events.BusInstance.Subscribe(64))

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/register", auth.Register)
		authGroup.POST("/refresh", auth.RefreshToken)
	}

	// Публичные эндпоинты: табло очереди и позиция пациента.
	public := r.Group("/api/queue")
	{
		public.GET("", handlers.GetQueueHandler)
		public.GET("/stats", handlers.GetQueueStatsHandler)
		public.GET("/patient/:patientId/position", handlers.GetPatientPositionHandler)
	}

	r.GET("/ws/queue", ws.QueueWebSocketHandler)

	// Операции регистратуры — только с токеном сотрудника.
	staff := r.Group("/api", auth.AuthMiddleware())
	{
		staff.POST("/queue/check-in", handlers.CheckInHandler)
		staff.GET("/queue/:id", handlers.GetQueueEntryHandler)
		staff.PATCH("/queue/:id/call-next", handlers.CallNextHandler)
		staff.PATCH("/queue/:id/start-service", handlers.StartServiceHandler)
		staff.PATCH("/queue/:id/complete", handlers.CompleteServiceHandler)
		staff.PATCH("/queue/:id/status", handlers.UpdateQueueStatusHandler)
		staff.DELETE("/queue/:id", handlers.RemoveFromQueueHandler)

		staff.POST("/patients", handlers.CreatePatientHandler)
		staff.GET("/patients", handlers.GetPatientsHandler)
		staff.GET("/patients/:id", handlers.GetPatientHandler)

		staff.POST("/rooms", handlers.CreateRoomHandler)
		staff.GET("/rooms", handlers.GetRoomsHandler)
		staff.PATCH("/rooms/:id/status", handlers.UpdateRoomStatusHandler)

		staff.POST("/appointments", handlers.CreateAppointmentHandler)
		staff.GET("/appointments", handlers.GetAppointmentsHandler)
		staff.PATCH("/appointments/:id/status", handlers.UpdateAppointmentStatusHandler)

		staff.GET("/notifications/patient/:patientId", handlers.GetPatientNotificationsHandler)
		staff.PATCH("/notifications/:id/read", handlers.MarkNotificationReadHandler)
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal("Ошибка запуска сервера...", err.Error())
	}
}
