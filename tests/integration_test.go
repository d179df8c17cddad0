package tests

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/beanhouse/commerce/internal/adapter/storage"
	"github.com/beanhouse/commerce/internal/core/domain"
	"github.com/beanhouse/commerce/internal/core/service"
)

type testEnv struct {
	mysql     *sql.DB
	db        *storage.MySQLAdapter
	orders    *service.OrderService
	batch     *service.BatchService
	customers *service.CustomerService
	cleanup   func()
}

func setupTestEnv(t *testing.T) *testEnv {
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/commerce?parseTime=true"
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS product (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(50) NOT NULL,
			price INT NOT NULL,
			stock INT NOT NULL,
			image_url VARCHAR(255) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR(36) PRIMARY KEY,
			customer_email VARCHAR(255) NOT NULL,
			product_id VARCHAR(36) NOT NULL,
			quantity INT NOT NULL,
			order_date DATETIME NOT NULL,
			state VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			KEY idx_orders_customer (customer_email),
			KEY idx_orders_state_date (state, order_date)
		)`,
		`CREATE TABLE IF NOT EXISTS customer (
			email VARCHAR(255) PRIMARY KEY,
			username VARCHAR(100) NOT NULL DEFAULT '',
			address VARCHAR(255) NOT NULL DEFAULT '',
			postal_code INT NOT NULL DEFAULT 0,
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("schema setup failed: %v", err)
		}
	}

	adapter := storage.NewMySQLAdapter(db)
	return &testEnv{
		mysql:     db,
		db:        adapter,
		orders:    service.NewOrderService(adapter, adapter, adapter, nil, 14),
		batch:     service.NewBatchService(adapter, nil, 14),
		customers: service.NewCustomerService(adapter, adapter, nil, 30*24*time.Hour),
		cleanup: func() {
			db.Close()
		},
	}
}

func (e *testEnv) seedProduct(t *testing.T, stock int) string {
	id := uuid.New().String()
	_, err := e.mysql.Exec(`
		INSERT INTO product (id, name, price, stock, image_url, created_at, updated_at)
		VALUES (?, 'integration-beans', 1000, ?, '', NOW(), NOW())`, id, stock)
	if err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	return id
}

func (e *testEnv) seedCustomer(t *testing.T, email string) {
	_, err := e.mysql.Exec(`
		INSERT INTO customer (email, username, address, postal_code, deleted, created_at, updated_at)
		VALUES (?, 'tester', 'somewhere', 12345, FALSE, NOW(), NOW())
		ON DUPLICATE KEY UPDATE deleted = FALSE, deleted_at = NULL`, email)
	if err != nil {
		t.Fatalf("seed customer failed: %v", err)
	}
}

func (e *testEnv) stock(t *testing.T, productID string) int {
	var stock int
	if err := e.mysql.QueryRow(`SELECT stock FROM product WHERE id = ?`, productID).Scan(&stock); err != nil {
		t.Fatalf("read stock failed: %v", err)
	}
	return stock
}

func TestOrderLifecycle_EndToEnd(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	email := fmt.Sprintf("lifecycle-%s@example.com", uuid.New().String()[:8])
	env.seedCustomer(t, email)
	productID := env.seedProduct(t, 10)

	order, err := env.orders.Create(ctx, email, productID, 3)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if got := env.stock(t, productID); got != 7 {
		t.Errorf("expected stock 7, got %d", got)
	}

	qty := 7
	if _, err := env.orders.Modify(ctx, order.ID, &qty, nil); err != nil {
		t.Fatalf("grow failed: %v", err)
	}
	if got := env.stock(t, productID); got != 3 {
		t.Errorf("expected stock 3, got %d", got)
	}

	qty = 2
	if _, err := env.orders.Modify(ctx, order.ID, &qty, nil); err != nil {
		t.Fatalf("shrink failed: %v", err)
	}
	if got := env.stock(t, productID); got != 8 {
		t.Errorf("expected stock 8, got %d", got)
	}

	if err := env.orders.Cancel(ctx, order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := env.stock(t, productID); got != 10 {
		t.Errorf("cancel did not restore stock: %d", got)
	}
}

func TestConcurrentOrders_NeverOverdraw(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	email := fmt.Sprintf("concurrent-%s@example.com", uuid.New().String()[:8])
	env.seedCustomer(t, email)

	initialStock := 20
	totalRequests := 50
	productID := env.seedProduct(t, initialStock)

	var success atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.orders.Create(ctx, email, productID, 1); err == nil {
				success.Add(1)
			}
		}()
	}
	wg.Wait()

	if int(success.Load()) != initialStock {
		t.Errorf("expected exactly %d successes, got %d", initialStock, success.Load())
	}
	if got := env.stock(t, productID); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}

func TestSettlement_EndToEnd(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	email := fmt.Sprintf("settle-%s@example.com", uuid.New().String()[:8])
	env.seedCustomer(t, email)
	productID := env.seedProduct(t, 10)

	order, err := env.orders.Create(ctx, email, productID, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// a window safely containing the fresh order
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	count, err := env.batch.RunRange(ctx, start, end)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count < 1 {
		t.Errorf("expected at least 1 settled, got %d", count)
	}

	settled, err := env.orders.Modify(ctx, order.ID, nil, nil)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if settled.State != domain.OrderStateFulfilled {
		t.Errorf("expected fulfilled, got %s", settled.State)
	}

	// settlement consumes no stock
	if got := env.stock(t, productID); got != 9 {
		t.Errorf("settlement changed stock: %d", got)
	}
}

func TestPurge_EndToEnd(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	clean := fmt.Sprintf("purge-clean-%s@example.com", uuid.New().String()[:8])
	blocked := fmt.Sprintf("purge-blocked-%s@example.com", uuid.New().String()[:8])
	env.seedCustomer(t, clean)
	env.seedCustomer(t, blocked)
	productID := env.seedProduct(t, 10)

	if _, err := env.orders.Create(ctx, blocked, productID, 1); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// mark both deleted with a timestamp past the grace period
	past := time.Now().Add(-40 * 24 * time.Hour)
	for _, email := range []string{clean, blocked} {
		if _, err := env.mysql.Exec(`
			UPDATE customer SET deleted = TRUE, deleted_at = ? WHERE email = ?`, past, email); err != nil {
			t.Fatalf("mark deleted failed: %v", err)
		}
	}

	if _, err := env.customers.PurgeDeletedCustomers(ctx); err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	cleanRow, err := env.db.GetCustomer(ctx, clean)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cleanRow != nil {
		t.Errorf("customer without orders survived the purge")
	}

	blockedRow, err := env.db.GetCustomer(ctx, blocked)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if blockedRow == nil {
		t.Errorf("customer with an outstanding order was purged")
	}
}
