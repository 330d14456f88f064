// Package main is a throwaway dev utility that prints a table's columns,
// grounded on the reference cmd/debug_schema/main.go (hardcoded DSN
// replaced with config.Load so it points at whatever database the caller
// has configured).
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/faiyaz7283/dashtam-authcore/internal/config"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

func main() {
	table := "users"
	if len(os.Args) > 1 {
		table = os.Args[1]
	}

	cfg := config.Load()
	ctx := context.Background()
	pool, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, "SELECT column_name FROM information_schema.columns WHERE table_name = $1", table)
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	fmt.Printf("Columns in %s table:\n", table)
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			log.Fatal(err)
		}
		fmt.Println("- " + col)
	}
}
