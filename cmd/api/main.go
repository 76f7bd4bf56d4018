package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"jobledger/account"
	"jobledger/auth"
	"jobledger/contract"
	"jobledger/db"
	"jobledger/ledger"
	"jobledger/report"
)

func main() {
	ctx := context.Background()

	connString := os.Getenv("DATABASE_URL")
	pool, err := db.NewPool(ctx, connString)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	server := &Server{
		authService:     auth.NewService(auth.NewRepository(pool), jwtSecret),
		accountService:  account.NewService(account.NewRepository(pool)),
		contractService: contract.NewService(contract.NewRepository(pool)),
		ledgerService:   ledger.NewService(pool, nil),
		reportService:   report.NewService(report.NewRepository(pool)),
	}

	log.Printf("job ledger API listening on %s", addr)
	if err := http.ListenAndServe(addr, server.routes()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
