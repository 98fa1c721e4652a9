package queue

import "errors"

// Ошибки движка очереди. Обработчики транслируют их в HTTP-коды,
// сам движок никогда не возвращает их молча.
var (
	ErrPatientNotFound     = errors.New("пациент не найден")
	ErrEntryNotFound       = errors.New("запись в очереди не найдена")
	ErrRoomNotFound        = errors.New("кабинет не найден")
	ErrAppointmentNotFound = errors.New("запись на прием не найдена")
	ErrAlreadyInQueue      = errors.New("пациент уже находится в очереди")
	ErrRoomBusy            = errors.New("кабинет уже занят другим пациентом")
	ErrInvalidState        = errors.New("недопустимый переход статуса")
)
