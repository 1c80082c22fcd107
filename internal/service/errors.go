package service

import (
	"errors"
	"fmt"
)

// Ошибки домена записи на приём
var (
	ErrDoctorNotFound        = errors.New("doctor not found")
	ErrOutsideAvailability   = errors.New("time is outside doctor availability")
	ErrTimeConflict          = errors.New("time conflicts with another appointment")
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrAlreadyCancelled      = errors.New("appointment is already cancelled")
	ErrCannotCancelCompleted = errors.New("completed appointment cannot be cancelled")
	ErrCannotReschedule      = errors.New("appointment cannot be rescheduled")
	ErrCannotConfirm         = errors.New("appointment cannot be confirmed")
	ErrCannotComplete        = errors.New("appointment cannot be completed")
	ErrNotOwner              = errors.New("appointment belongs to another doctor")
	ErrForbidden             = errors.New("operation not allowed for this role")
	ErrUserNotFound          = errors.New("user not found")
)

// ValidationError некорректные входные данные
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Message возвращает пользовательское сообщение для ошибки
func Message(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "❌ Неверные данные: " + verr.Error()
	case errors.Is(err, ErrDoctorNotFound):
		return "❌ Врач не найден"
	case errors.Is(err, ErrOutsideAvailability):
		return "❌ Врач не принимает в это время"
	case errors.Is(err, ErrTimeConflict):
		return "❌ Это время уже занято"
	case errors.Is(err, ErrAppointmentNotFound):
		return "❌ Приём не найден"
	case errors.Is(err, ErrAlreadyCancelled):
		return "❌ Приём уже отменён"
	case errors.Is(err, ErrCannotCancelCompleted):
		return "❌ Завершённый приём нельзя отменить"
	case errors.Is(err, ErrCannotReschedule):
		return "❌ Этот приём нельзя перенести"
	case errors.Is(err, ErrCannotConfirm):
		return "❌ Этот приём нельзя подтвердить"
	case errors.Is(err, ErrCannotComplete):
		return "❌ Этот приём нельзя завершить"
	case errors.Is(err, ErrNotOwner):
		return "❌ Это приём другого врача"
	case errors.Is(err, ErrForbidden):
		return "❌ Недостаточно прав"
	case errors.Is(err, ErrUserNotFound):
		return "❌ Пользователь не найден"
	default:
		return "❌ Произошла ошибка"
	}
}
