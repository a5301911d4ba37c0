package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmadzakiakmal/order-engine/logger"
	"github.com/ahmadzakiakmal/order-engine/repository/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgreSQL error codes
const (
	PgErrForeignKeyViolation = "23503"
	PgErrUniqueViolation     = "23505"
)

// RepositoryError codes surfaced to callers.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeConflict     = "CONFLICT"
	CodeUnavailable  = "UNAVAILABLE"
	CodeDecode       = "DECODE_ERROR"
)

// RepositoryError represents repository layer errors
type RepositoryError struct {
	Code    string
	Message string
	Detail  string
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Detail)
}

// Repository handles all database operations for order aggregates
type Repository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewRepository creates a repository around an established connection. The
// handle is injected so tests and callers can supply their own database.
func NewRepository(db *gorm.DB, logg *logger.Logger) *Repository {
	return &Repository{db: db, log: logg.With("component", "repository")}
}

// Connect establishes the Postgres connection with a bounded retry loop.
func Connect(dsn string, logg *logger.Logger) (*gorm.DB, error) {
	var lastErr error
	for i := 0; i < 10; i++ {
		logg.Info("database connection attempt", "attempt", i+1)
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			lastErr = err
			logg.Warn("connection attempt failed", "attempt", i+1, "err", err)
			time.Sleep(2 * time.Second)
			continue
		}
		logg.Info("connected to database")
		return db, nil
	}
	return nil, fmt.Errorf("failed to connect to database after 10 attempts: %w", lastErr)
}

// Migrate creates the schema if it is absent.
func (r *Repository) Migrate() error {
	migrator := r.db.Migrator()

	// Order matters due to foreign keys
	tables := []interface{}{
		&models.Delivery{},
		&models.Payment{},
		&models.Order{},
		&models.Item{},
		&models.OrderItem{},
	}

	for _, table := range tables {
		if !migrator.HasTable(table) {
			if err := migrator.CreateTable(table); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}
	}

	r.log.Info("database migrations completed")
	return nil
}

// SaveOrder persists an order aggregate in a single transaction: delivery
// and payment first, then the order row embedding both surrogate keys, then
// every item in input order followed by its association row. If any step
// fails the whole sequence rolls back and nothing from this call remains
// visible to readers.
func (r *Repository) SaveOrder(order *models.Order) *RepositoryError {
	if err := order.Validate(); err != nil {
		return &RepositoryError{
			Code:    CodeInvalidInput,
			Message: "Invalid order aggregate",
			Detail:  err.Error(),
		}
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order.Delivery).Error; err != nil {
			return err
		}
		if err := tx.Create(&order.Payment).Error; err != nil {
			return err
		}

		order.DeliveryID = order.Delivery.ID
		order.PaymentID = order.Payment.ID
		if err := tx.Omit("Delivery", "Payment").Create(order).Error; err != nil {
			return err
		}

		for i := range order.Items {
			if err := tx.Create(&order.Items[i]).Error; err != nil {
				return err
			}
			link := models.OrderItem{OrderID: order.ID, ItemID: order.Items[i].ChrtID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapWriteError(err)
	}

	r.log.Info("order persisted", "order_uid", order.OrderUID, "items", len(order.Items))
	return nil
}

// GetAllOrders reconstructs every stored aggregate: one joined query over
// order, delivery and payment, then the item collection per order through
// the association table. An order missing its delivery or payment row is
// never returned; the joins are inner.
func (r *Repository) GetAllOrders() ([]models.Order, *RepositoryError) {
	orders := []models.Order{}
	err := r.db.
		InnerJoins("Delivery").
		InnerJoins("Payment").
		Find(&orders).Error
	if err != nil {
		return nil, mapReadError(err)
	}

	for i := range orders {
		items, repoErr := r.getOrderItems(orders[i].ID)
		if repoErr != nil {
			return nil, repoErr
		}
		orders[i].Items = items
	}

	return orders, nil
}

// getOrderItems loads one order's item collection through order_to_item.
func (r *Repository) getOrderItems(orderID int64) ([]models.Item, *RepositoryError) {
	items := []models.Item{}
	err := r.db.Model(&models.Item{}).
		Joins("JOIN order_to_item ON order_to_item.item_id = item.chrt_id").
		Where("order_to_item.order_id = ?", orderID).
		Find(&items).Error
	if err != nil {
		return nil, mapReadError(err)
	}
	return items, nil
}

// mapWriteError classifies a failed write. Uniqueness violations on
// order_uid, transaction_id or chrt_id become CONFLICT; everything else is
// an infrastructure failure.
func mapWriteError(err error) *RepositoryError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == PgErrUniqueViolation {
		return &RepositoryError{
			Code:    CodeConflict,
			Message: "Order violates a uniqueness constraint",
			Detail:  pgErr.Error(),
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &RepositoryError{
			Code:    CodeConflict,
			Message: "Order violates a uniqueness constraint",
			Detail:  err.Error(),
		}
	}
	return &RepositoryError{
		Code:    CodeUnavailable,
		Message: "Store rejected the write",
		Detail:  err.Error(),
	}
}

// mapReadError separates rows that no longer match the expected shape from
// transport failures.
func mapReadError(err error) *RepositoryError {
	if strings.Contains(err.Error(), "Scan error") {
		return &RepositoryError{
			Code:    CodeDecode,
			Message: "Row did not match the expected schema",
			Detail:  err.Error(),
		}
	}
	return &RepositoryError{
		Code:    CodeUnavailable,
		Message: "Failed to load orders",
		Detail:  err.Error(),
	}
}
