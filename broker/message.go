package broker

import (
	"encoding/json"
	"fmt"

	"github.com/ahmadzakiakmal/order-engine/repository/models"
)

// UnmarshalOrderMessage decodes an inbound order payload.
func UnmarshalOrderMessage(message []byte) (*models.Order, error) {
	var order models.Order
	if err := json.Unmarshal(message, &order); err != nil {
		return nil, fmt.Errorf("unmarshal order message: %w", err)
	}
	return &order, nil
}
