package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"strings"
	"time"

	"jobdash/internal/app"
	"jobdash/internal/config"
	"jobdash/internal/database/seeder"

	"github.com/joho/godotenv"
)

func main() {
	only := flag.String("only", "", "comma-separated seeder names (default: all)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// NewContainer applies pending migrations before returning.
	c, err := app.NewContainer(cfg)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	r := seeder.Runner{Seeders: seeder.Defaults(), Logger: c.Logger}
	var names []string
	if s := strings.TrimSpace(*only); s != "" {
		names = strings.Split(s, ",")
	}
	if err := r.Run(ctx, c.DB, names...); err != nil {
		log.Printf("seed failed: %v", err)
		return
	}
	log.Printf("seed completed")
}
