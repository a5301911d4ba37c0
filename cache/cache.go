package cache

import (
	"sync"

	"github.com/ahmadzakiakmal/order-engine/repository/models"
)

// OrderCache is an in-memory mirror of every persisted order. It is seeded
// once at startup from the store and appended to after each committed write;
// entries are never updated or removed for the lifetime of the process.
type OrderCache struct {
	mu     sync.RWMutex
	orders []models.Order
}

// NewOrderCache creates a cache pre-populated with the store's contents.
func NewOrderCache(seed []models.Order) *OrderCache {
	orders := make([]models.Order, len(seed))
	copy(orders, seed)
	return &OrderCache{orders: orders}
}

// GetAll returns a snapshot of the cached orders. The returned slice is the
// caller's to keep; appends after this call do not show up in it.
func (c *OrderCache) GetAll() []models.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make([]models.Order, len(c.orders))
	copy(snapshot, c.orders)
	return snapshot
}

// GetByUID returns the cached order with the given business id, if present.
func (c *OrderCache) GetByUID(orderUID string) (models.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, order := range c.orders {
		if order.OrderUID == orderUID {
			return order, true
		}
	}
	return models.Order{}, false
}

// Append registers an order whose write transaction has already committed.
// The lock covers only the in-memory mutation, never database I/O.
func (c *OrderCache) Append(order models.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = append(c.orders, order)
}

// Len reports how many orders the cache currently mirrors.
func (c *OrderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}
