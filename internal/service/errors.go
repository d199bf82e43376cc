package service

import "errors"

// Ошибки уровня бизнес-логики, проверяются через errors.Is
var (
	// ErrAlreadyScheduled - у пользователя уже есть pending чек-ин
	ErrAlreadyScheduled = errors.New("check-in already scheduled")
	// ErrScheduleInPast - запрошенное время чек-ина уже прошло
	ErrScheduleInPast = errors.New("scheduled time is in the past")
	// ErrNoPendingCheckIn - нет pending чек-ина для подтверждения
	ErrNoPendingCheckIn = errors.New("no pending check-in")
	// ErrActiveAlertExists - нарушение инварианта "одно active оповещение на пользователя"
	ErrActiveAlertExists = errors.New("active alert already exists")
	// ErrAlertNotFound - оповещение с таким id не найдено
	ErrAlertNotFound = errors.New("alert not found")
	// ErrContactNotFound - контакт с таким id не найден
	ErrContactNotFound = errors.New("contact not found")
)
