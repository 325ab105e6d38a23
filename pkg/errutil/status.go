package errutil

import "net/http"

type CoreStatus string

const (
	StatusBadRequest           CoreStatus = "bad_request"
	StatusValidationFailed     CoreStatus = "validation_failed"
	StatusUnauthorized         CoreStatus = "unauthorized"
	StatusPaymentRequired      CoreStatus = "payment_required"
	StatusForbidden            CoreStatus = "forbidden"
	StatusNotFound             CoreStatus = "not_found"
	StatusConflict             CoreStatus = "conflict"
	StatusUnsupportedMediaType CoreStatus = "unsupported_media_type"
	StatusUnprocessableEntity  CoreStatus = "unprocessable_entity"
	StatusTooManyRequests      CoreStatus = "too_many_requests"
	StatusClientClosedRequest  CoreStatus = "client_closed_request"
	StatusInternal             CoreStatus = "internal"
	StatusNotImplemented       CoreStatus = "not_implemented"
	StatusBadGateway           CoreStatus = "bad_gateway"
	StatusServiceUnavailable   CoreStatus = "service_unavailable"
	StatusTimeout              CoreStatus = "timeout"
	StatusGatewayTimeout       CoreStatus = "gateway_timeout"
	StatusUnknown              CoreStatus = "unknown"
)

var httpStatus = map[CoreStatus]int{
	StatusBadRequest:           http.StatusBadRequest,
	StatusValidationFailed:     http.StatusBadRequest,
	StatusUnauthorized:         http.StatusUnauthorized,
	StatusPaymentRequired:      http.StatusPaymentRequired,
	StatusForbidden:            http.StatusForbidden,
	StatusNotFound:             http.StatusNotFound,
	StatusConflict:             http.StatusConflict,
	StatusUnsupportedMediaType: http.StatusUnsupportedMediaType,
	StatusUnprocessableEntity:  http.StatusUnprocessableEntity,
	StatusTooManyRequests:      http.StatusTooManyRequests,
	StatusClientClosedRequest:  499,
	StatusInternal:             http.StatusInternalServerError,
	StatusNotImplemented:       http.StatusNotImplemented,
	StatusBadGateway:           http.StatusBadGateway,
	StatusServiceUnavailable:   http.StatusServiceUnavailable,
	StatusTimeout:              http.StatusRequestTimeout,
	StatusGatewayTimeout:       http.StatusGatewayTimeout,
}

// HTTPStatus maps the status to an HTTP code. Unknown statuses are 500.
func (s CoreStatus) HTTPStatus() int {
	if code, ok := httpStatus[s]; ok {
		return code
	}
	return http.StatusInternalServerError
}
