package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/ahmadzakiakmal/order-engine/logger"
	"github.com/ahmadzakiakmal/order-engine/repository/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// a single connection keeps the in-memory database alive for the test
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	logg, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	repo := NewRepository(db, logg)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func sampleOrder(uid string, chrtIDs ...int64) models.Order {
	items := make([]models.Item, 0, len(chrtIDs))
	for _, id := range chrtIDs {
		items = append(items, models.Item{
			ChrtID:      id,
			TrackNumber: "WBILMTESTTRACK",
			Price:       453,
			Rid:         fmt.Sprintf("rid-%d-%s", id, uid),
			Name:        "Mascaras",
			Sale:        30,
			Size:        "0",
			TotalPrice:  317,
			NmID:        2389212,
			Brand:       "Vivienne Sabo",
			Status:      202,
		})
	}
	return models.Order{
		OrderUID:    uid,
		TrackNumber: "WBILMTESTTRACK",
		Entry:       "WBIL",
		Delivery: models.Delivery{
			Name:    "Test Testov",
			Phone:   "+9720000000",
			Zip:     "2639809",
			City:    "Kiryat Mozkin",
			Address: "Ploshad Mira 15",
			Region:  "Kraiot",
			Email:   "test@gmail.com",
		},
		Payment: models.Payment{
			Transaction:  uid,
			Currency:     "USD",
			Provider:     "wbpay",
			Amount:       1817,
			PaymentDt:    1637907727,
			Bank:         "alpha",
			DeliveryCost: 1500,
			GoodsTotal:   317,
		},
		Items:           items,
		Locale:          "en",
		CustomerID:      "test",
		DeliveryService: "meest",
		Shardkey:        "9",
		SmID:            99,
		DateCreated:     time.Date(2021, 11, 26, 6, 22, 19, 0, time.UTC),
		OofShard:        "1",
	}
}

func countRows(t *testing.T, repo *Repository, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := repo.db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func TestSaveOrderRoundTrip(t *testing.T) {
	repo := newTestRepository(t)

	in := sampleOrder("b563feb7b2b84b6test", 9934930)
	if dbErr := repo.SaveOrder(&in); dbErr != nil {
		t.Fatalf("SaveOrder: %v", dbErr)
	}

	orders, dbErr := repo.GetAllOrders()
	if dbErr != nil {
		t.Fatalf("GetAllOrders: %v", dbErr)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	got := orders[0]
	if got.OrderUID != "b563feb7b2b84b6test" {
		t.Errorf("order_uid: got %q", got.OrderUID)
	}
	if got.TrackNumber != in.TrackNumber || got.Entry != in.Entry || got.Locale != in.Locale {
		t.Errorf("order fields did not survive the round trip: %+v", got)
	}
	if got.CustomerID != in.CustomerID || got.Shardkey != in.Shardkey || got.SmID != in.SmID || got.OofShard != in.OofShard {
		t.Errorf("order fields did not survive the round trip: %+v", got)
	}
	if !got.DateCreated.Equal(in.DateCreated) {
		t.Errorf("date_created: got %v, want %v", got.DateCreated, in.DateCreated)
	}

	if got.Delivery.Name != in.Delivery.Name || got.Delivery.Address != in.Delivery.Address || got.Delivery.Email != in.Delivery.Email {
		t.Errorf("delivery did not survive the round trip: %+v", got.Delivery)
	}
	if got.Payment.Transaction != in.Payment.Transaction || got.Payment.Amount != in.Payment.Amount || got.Payment.Provider != in.Payment.Provider {
		t.Errorf("payment did not survive the round trip: %+v", got.Payment)
	}

	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Items))
	}
	item := got.Items[0]
	if item.ChrtID != 9934930 {
		t.Errorf("chrt_id: got %d, want 9934930", item.ChrtID)
	}
	if item.Name != "Mascaras" || item.TotalPrice != 317 || item.Status != 202 {
		t.Errorf("item did not survive the round trip: %+v", item)
	}
}

func TestSaveOrderMultipleItems(t *testing.T) {
	repo := newTestRepository(t)

	in := sampleOrder("order-multi", 101, 102, 103)
	if dbErr := repo.SaveOrder(&in); dbErr != nil {
		t.Fatalf("SaveOrder: %v", dbErr)
	}

	orders, dbErr := repo.GetAllOrders()
	if dbErr != nil {
		t.Fatalf("GetAllOrders: %v", dbErr)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	// item order on reload is not guaranteed; compare as a set
	seen := map[int64]bool{}
	for _, item := range orders[0].Items {
		seen[item.ChrtID] = true
	}
	for _, want := range []int64{101, 102, 103} {
		if !seen[want] {
			t.Errorf("item %d missing after reload", want)
		}
	}
	if len(orders[0].Items) != 3 {
		t.Errorf("expected 3 items, got %d", len(orders[0].Items))
	}
}

func TestSaveOrderDuplicateUID(t *testing.T) {
	repo := newTestRepository(t)

	first := sampleOrder("dup-uid", 201)
	if dbErr := repo.SaveOrder(&first); dbErr != nil {
		t.Fatalf("first SaveOrder: %v", dbErr)
	}

	// same business id, everything else distinct so only order_uid conflicts
	second := sampleOrder("dup-uid", 202)
	second.Payment.Transaction = "other-transaction"
	dbErr := repo.SaveOrder(&second)
	if dbErr == nil {
		t.Fatal("expected conflict, got nil")
	}
	if dbErr.Code != CodeConflict {
		t.Fatalf("expected %s, got %s (%s)", CodeConflict, dbErr.Code, dbErr.Detail)
	}

	orders, loadErr := repo.GetAllOrders()
	if loadErr != nil {
		t.Fatalf("GetAllOrders: %v", loadErr)
	}
	if len(orders) != 1 {
		t.Fatalf("store must contain exactly one order, got %d", len(orders))
	}
}

func TestSaveOrderDuplicateItemRollsBackEverything(t *testing.T) {
	repo := newTestRepository(t)

	first := sampleOrder("order-a", 1001)
	if dbErr := repo.SaveOrder(&first); dbErr != nil {
		t.Fatalf("first SaveOrder: %v", dbErr)
	}

	// second of three items collides with an existing chart id
	second := sampleOrder("order-b", 2001, 1001, 2002)
	second.Payment.Transaction = "transaction-b"
	dbErr := repo.SaveOrder(&second)
	if dbErr == nil {
		t.Fatal("expected conflict, got nil")
	}
	if dbErr.Code != CodeConflict {
		t.Fatalf("expected %s, got %s (%s)", CodeConflict, dbErr.Code, dbErr.Detail)
	}

	// nothing from the failed call may remain: not the order, its delivery,
	// its payment, any of its items, or any association row
	if got := countRows(t, repo, &models.Order{}); got != 1 {
		t.Errorf("orders: got %d, want 1", got)
	}
	if got := countRows(t, repo, &models.Delivery{}); got != 1 {
		t.Errorf("deliveries: got %d, want 1", got)
	}
	if got := countRows(t, repo, &models.Payment{}); got != 1 {
		t.Errorf("payments: got %d, want 1", got)
	}
	if got := countRows(t, repo, &models.Item{}); got != 1 {
		t.Errorf("items: got %d, want 1", got)
	}
	if got := countRows(t, repo, &models.OrderItem{}); got != 1 {
		t.Errorf("association rows: got %d, want 1", got)
	}

	orders, loadErr := repo.GetAllOrders()
	if loadErr != nil {
		t.Fatalf("GetAllOrders: %v", loadErr)
	}
	if len(orders) != 1 || orders[0].OrderUID != "order-a" {
		t.Fatalf("only order-a may be visible, got %+v", orders)
	}
}

func TestSaveOrderInvalidInputRejectedBeforeInsert(t *testing.T) {
	repo := newTestRepository(t)

	in := sampleOrder("invalid-order", 301)
	in.Payment.Transaction = ""
	dbErr := repo.SaveOrder(&in)
	if dbErr == nil {
		t.Fatal("expected invalid input error, got nil")
	}
	if dbErr.Code != CodeInvalidInput {
		t.Fatalf("expected %s, got %s", CodeInvalidInput, dbErr.Code)
	}

	// rejection happens before any insert is attempted
	if got := countRows(t, repo, &models.Delivery{}); got != 0 {
		t.Errorf("deliveries: got %d, want 0", got)
	}
	if got := countRows(t, repo, &models.Payment{}); got != 0 {
		t.Errorf("payments: got %d, want 0", got)
	}
}

func TestSaveOrderItemSaleOutOfRange(t *testing.T) {
	repo := newTestRepository(t)

	in := sampleOrder("bad-sale", 401)
	in.Items[0].Sale = 150
	dbErr := repo.SaveOrder(&in)
	if dbErr == nil || dbErr.Code != CodeInvalidInput {
		t.Fatalf("expected %s, got %v", CodeInvalidInput, dbErr)
	}
}

func TestGetAllOrdersEmptyStore(t *testing.T) {
	repo := newTestRepository(t)

	orders, dbErr := repo.GetAllOrders()
	if dbErr != nil {
		t.Fatalf("GetAllOrders: %v", dbErr)
	}
	if len(orders) != 0 {
		t.Fatalf("expected empty store, got %d orders", len(orders))
	}
}

func TestGetAllOrdersKeepsAggregatesApart(t *testing.T) {
	repo := newTestRepository(t)

	a := sampleOrder("order-one", 501, 502)
	if dbErr := repo.SaveOrder(&a); dbErr != nil {
		t.Fatalf("SaveOrder a: %v", dbErr)
	}
	b := sampleOrder("order-two", 601)
	if dbErr := repo.SaveOrder(&b); dbErr != nil {
		t.Fatalf("SaveOrder b: %v", dbErr)
	}

	orders, dbErr := repo.GetAllOrders()
	if dbErr != nil {
		t.Fatalf("GetAllOrders: %v", dbErr)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}

	byUID := map[string]int{}
	for _, order := range orders {
		byUID[order.OrderUID] = len(order.Items)
	}
	if byUID["order-one"] != 2 {
		t.Errorf("order-one items: got %d, want 2", byUID["order-one"])
	}
	if byUID["order-two"] != 1 {
		t.Errorf("order-two items: got %d, want 1", byUID["order-two"])
	}
}
