package http

// StatusCode is a numeric HTTP status code. Codes outside the
// enumeration below are still valid; nothing rejects a response
// carrying an unrecognized numeric code.
type StatusCode int

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15
const (
	StatusContinue           StatusCode = 100
	StatusSwitchingProtocols StatusCode = 101

	StatusOK             StatusCode = 200
	StatusCreated        StatusCode = 201
	StatusAccepted       StatusCode = 202
	StatusNoContent      StatusCode = 204
	StatusPartialContent StatusCode = 206

	StatusMovedPermanently StatusCode = 301
	StatusFound            StatusCode = 302
	StatusNotModified      StatusCode = 304

	StatusBadRequest          StatusCode = 400
	StatusUnauthorized        StatusCode = 401
	StatusForbidden           StatusCode = 403
	StatusNotFound            StatusCode = 404
	StatusMethodNotAllowed    StatusCode = 405
	StatusRequestTimeout      StatusCode = 408
	StatusConflict            StatusCode = 409
	StatusLengthRequired      StatusCode = 411
	StatusPreconditionFailed  StatusCode = 412
	StatusRangeNotSatisfiable StatusCode = 416
	StatusExpectationFailed   StatusCode = 417
	StatusTooManyRequests     StatusCode = 429

	StatusInternalServerError StatusCode = 500
	StatusNotImplemented      StatusCode = 501
	StatusBadGateway          StatusCode = 502
	StatusServiceUnavailable  StatusCode = 503
	StatusGatewayTimeout      StatusCode = 504
)

func (c StatusCode) Informational() bool { return 100 <= c && c < 200 }
func (c StatusCode) Successful() bool    { return 200 <= c && c < 300 }
