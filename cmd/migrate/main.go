package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/tripbook/internal/adapters/postgres"
	"github.com/samirrijal/tripbook/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up>")
	}

	cfg, err := config.Load("tripbook-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err := db.Migrate(ctx, func(name string) {
			fmt.Printf("OK  %s\n", name)
		})
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Println("all migrations applied")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
