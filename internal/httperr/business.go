package httperr

import (
	"errors"
	"net/http"
)

// Business codes raised by the appointment and portal rules.
const (
	CodeInvalidState        = "invalid_state"
	CodeAppointmentNotFound = "appointment_not_found"
	CodeInvalidMonth        = "invalid_month"
	CodeInvalidStart        = "invalid_start"
	CodeInvalidDuration     = "invalid_duration"
	CodeInvalidToken        = "invalid_token"
	CodeUnknownToken        = "unknown_token"
	CodePacketFetchFailed   = "packet_fetch_failed"
)

var businessStatus = map[string]int{
	CodeInvalidState:        http.StatusConflict,
	CodeAppointmentNotFound: http.StatusNotFound,
	CodeInvalidMonth:        http.StatusBadRequest,
	CodeInvalidStart:        http.StatusBadRequest,
	CodeInvalidDuration:     http.StatusBadRequest,
	CodeInvalidToken:        http.StatusBadRequest,
	CodeUnknownToken:        http.StatusNotFound,
	CodePacketFetchFailed:   http.StatusInternalServerError,
}

type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

// Status is the HTTP status for the code; unknown codes are 400.
func (e BusinessError) Status() int {
	if s, ok := businessStatus[e.Code]; ok {
		return s
	}
	return http.StatusBadRequest
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
