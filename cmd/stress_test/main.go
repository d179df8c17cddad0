package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/beanhouse/commerce/internal/adapter/storage"
	"github.com/beanhouse/commerce/internal/core/service"
)

const (
	mysqlDSN      = "root:root@tcp(localhost:3306)/commerce?parseTime=true"
	cutoffHour    = 14
	initialStock  = 20
	totalRequests = 50
	customerEmail = "stress@example.com"
)

// Fires totalRequests concurrent single-unit orders at one product with
// initialStock units. Exactly initialStock must succeed and the final stock
// must be zero, or the ledger has a hole.
func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	productID := uuid.New().String()
	_, err = db.ExecContext(ctx, `
		INSERT INTO product (id, name, price, stock, image_url, created_at, updated_at)
		VALUES (?, 'stress-brew', 4500, ?, '', NOW(), NOW())`,
		productID, initialStock)
	if err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO customer (email, username, address, postal_code, deleted, created_at, updated_at)
		VALUES (?, 'stress', 'nowhere', 0, FALSE, NOW(), NOW())
		ON DUPLICATE KEY UPDATE deleted = FALSE, deleted_at = NULL`,
		customerEmail)
	if err != nil {
		log.Fatalf("failed to seed customer: %v", err)
	}

	adapter := storage.NewMySQLAdapter(db)
	orderService := service.NewOrderService(adapter, adapter, adapter, nil, cutoffHour)

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := orderService.Create(ctx, customerEmail, productID, 1)
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	var finalStock int
	if err := db.QueryRowContext(ctx, `SELECT stock FROM product WHERE id = ?`, productID).Scan(&finalStock); err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}

	fmt.Printf("requests: %d, succeeded: %d, failed: %d, elapsed: %v\n",
		totalRequests, successCount.Load(), failCount.Load(), elapsed)
	fmt.Printf("final stock: %d (expected 0)\n", finalStock)

	if int(successCount.Load()) != initialStock || finalStock != 0 {
		log.Fatal("stock accounting mismatch: concurrent orders overdrew or underdrew the ledger")
	}
	fmt.Println("stock accounting consistent")
}
