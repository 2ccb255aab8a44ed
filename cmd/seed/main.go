package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/user-accounts-api/config"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	samples := []struct {
		name   string
		email  string
		active bool
	}{
		{"Ana García", "ana@example.com", true},
		{"John Doe", "john.doe@example.com", true},
		{"Inactive User", "inactive@example.com", false},
	}

	for _, s := range samples {
		res, err := db.Exec(`
			INSERT INTO users (name, email, active)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO NOTHING
		`, s.name, s.email, s.active)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", s.email, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			fmt.Printf("seeded user: email=%s name=%s active=%v\n", s.email, s.name, s.active)
		} else {
			fmt.Printf("user already present: email=%s\n", s.email)
		}
	}
}
