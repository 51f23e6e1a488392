package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/foodgram/config"
	"github.com/oksasatya/foodgram/pkg/helpers"
)

var baseTags = []struct{ name, color, slug string }{
	{"Breakfast", "#E26C2D", "breakfast"},
	{"Lunch", "#49B64E", "lunch"},
	{"Dinner", "#8775D2", "dinner"},
}

var baseIngredients = []struct{ name, unit string }{
	{"flour", "g"},
	{"sugar", "g"},
	{"salt", "g"},
	{"milk", "ml"},
	{"eggs", "pcs"},
	{"butter", "g"},
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := cfg.PostgresDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := getenv("SEED_ADMIN_EMAIL", "admin@foodgram.local")
	username := getenv("SEED_ADMIN_USERNAME", "admin")
	password := getenv("SEED_ADMIN_PASSWORD", "password123")
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, username, first_name, last_name, password_hash, role, is_superuser, is_staff)
		VALUES ($1, $2, 'Site', 'Admin', $3, 'admin', TRUE, TRUE)
		ON CONFLICT (email) DO UPDATE SET role = 'admin', is_superuser = TRUE, is_staff = TRUE, updated_at = now()
		RETURNING id
	`, email, username, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s username=%s password=%s\n", id, email, username, password)

	for _, t := range baseTags {
		if _, err := db.Exec(`
			INSERT INTO tags (name, color, slug) VALUES ($1, $2, $3)
			ON CONFLICT ON CONSTRAINT unique_tag_slug DO NOTHING
		`, t.name, t.color, t.slug); err != nil {
			log.Fatalf("failed to seed tag %s: %v", t.slug, err)
		}
	}
	fmt.Printf("seeded %d tags\n", len(baseTags))

	for _, in := range baseIngredients {
		if _, err := db.Exec(`
			INSERT INTO ingredients (name, measurement_unit) VALUES ($1, $2)
			ON CONFLICT ON CONSTRAINT unique_ingredient DO NOTHING
		`, in.name, in.unit); err != nil {
			log.Fatalf("failed to seed ingredient %s: %v", in.name, err)
		}
	}
	fmt.Printf("seeded %d ingredients\n", len(baseIngredients))
}
