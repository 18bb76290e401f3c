package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobdiary/jobdiary/internal/app"
	"github.com/jobdiary/jobdiary/internal/platform/db"
	"github.com/jobdiary/jobdiary/internal/rbac"
	"github.com/jobdiary/jobdiary/migrations"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.Database())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	fmt.Println("→ Applying migrations...")
	res, err := migrations.Apply(ctx, pool)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if res.Changed {
		fmt.Printf("  schema migrated from version %d to %d\n", res.From, res.To)
	} else {
		fmt.Printf("  schema already at version %d\n", res.To)
	}

	fmt.Println("→ Seeding staff...")
	if err := seedStaff(ctx, pool); err != nil {
		log.Fatalf("seed staff: %v", err)
	}

	fmt.Println("→ Seeding customers...")
	if err := seedCustomers(ctx, pool); err != nil {
		log.Fatalf("seed customers: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func seedStaff(ctx context.Context, pool *pgxpool.Pool) error {
	accounts := []struct {
		email    string
		name     string
		password string
		role     string
	}{
		{"admin@jobdiary.local", "Admin", getenv("SEED_ADMIN_PASSWORD", "admin123"), rbac.RoleAdmin},
		{"fitter@jobdiary.local", "Fitter", getenv("SEED_STAFF_PASSWORD", "fitter123"), rbac.RoleStaff},
	}
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO staff (email, display_name, password_hash, role, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
			ON CONFLICT (lower(email)) DO NOTHING`, a.email, a.name, string(hash), a.role)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool) error {
	customers := []struct {
		first, last, email, phone, postcode string
	}{
		{"Jane", "Doe", "jane@example.com", "+447700900123", "AB1 2CD"},
		{"Sam", "Taylor", "sam@example.com", "+447700900456", "EF3 4GH"},
	}
	for _, c := range customers {
		_, err := pool.Exec(ctx, `
			INSERT INTO customers (first_name, last_name, email, phone, postcode, created_at, updated_at)
			SELECT $1, $2, $3, $4, $5, NOW(), NOW()
			WHERE NOT EXISTS (SELECT 1 FROM customers WHERE email = $3)`, c.first, c.last, c.email, c.phone, c.postcode)
		if err != nil {
			return err
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
