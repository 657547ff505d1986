// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков.
package response

// Response описывает стандартную структуру JSON-ответа служебных эндпоинтов.
// Поле Status содержит статус запроса ("OK" или "Error").
// Поле Data содержит данные ответа при успехе.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse тело ответа с ошибкой. Клиенты читают поле error.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"method not allowed"`
	Detail string `json:"detail,omitempty" example:"No such price: 'price_123'"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ErrorWithDetail возвращает ErrorResponse с сообщением и подробностями.
func ErrorWithDetail(msg, detail string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
		Detail: detail,
	}
}
