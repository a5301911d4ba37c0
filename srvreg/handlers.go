package srvreg

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ahmadzakiakmal/order-engine/repository"
	"github.com/ahmadzakiakmal/order-engine/repository/models"
)

// InfoHandler returns service information
func (sr *ServiceRegistry) InfoHandler(req *Request) (*Response, error) {
	info := map[string]interface{}{
		"service":       "order-engine",
		"status":        "active",
		"cached_orders": sr.cache.Len(),
	}

	body, _ := json.Marshal(info)

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       string(body),
	}, nil
}

// CreateOrderHandler persists an incoming order aggregate. The cache is
// appended only after the write transaction has committed, so readers never
// observe an order the store does not have.
func (sr *ServiceRegistry) CreateOrderHandler(req *Request) (*Response, error) {
	var order models.Order
	if err := json.Unmarshal([]byte(req.Body), &order); err != nil {
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"Invalid request body: %s"}`, err.Error()),
		}, nil
	}

	if dbErr := sr.repository.SaveOrder(&order); dbErr != nil {
		sr.log.Error("failed to persist order", "order_uid", order.OrderUID, "code", dbErr.Code, "detail", dbErr.Detail)
		return &Response{
			StatusCode: statusForCode(dbErr.Code),
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":%q,"detail":%q}`, dbErr.Message, dbErr.Detail),
		}, nil
	}

	sr.cache.Append(order)

	body, _ := json.Marshal(order)
	return &Response{
		StatusCode: http.StatusCreated,
		Headers:    defaultHeaders,
		Body:       string(body),
	}, nil
}

// ListOrdersHandler serves the full order list straight from the cache; the
// store is never queried on the read path.
func (sr *ServiceRegistry) ListOrdersHandler(req *Request) (*Response, error) {
	orders := sr.cache.GetAll()

	body, err := json.Marshal(orders)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Failed to encode orders"}`,
		}, nil
	}

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       string(body),
	}, nil
}

// GetOrderHandler serves a single order by business id from the cache.
func (sr *ServiceRegistry) GetOrderHandler(req *Request) (*Response, error) {
	pathParts := strings.Split(req.Path, "/")
	if len(pathParts) != 3 || pathParts[2] == "" {
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"Invalid path format"}`,
		}, nil
	}
	orderUID := pathParts[2]

	order, ok := sr.cache.GetByUID(orderUID)
	if !ok {
		return &Response{
			StatusCode: http.StatusNotFound,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"Order %s not found"}`, orderUID),
		}, nil
	}

	body, _ := json.Marshal(order)
	return &Response{
		StatusCode: http.StatusOK,
		Headers:    defaultHeaders,
		Body:       string(body),
	}, nil
}

// statusForCode maps repository error codes to HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case repository.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case repository.CodeConflict:
		return http.StatusConflict
	case repository.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
