package seed

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/artisanally/internal/auth"
)

const (
	demoMaterialName = "Jesmonite AC100"
	demoProductName  = "Terrazzo coaster"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// Demo adds a sample material and product to the admin's workshop.
	Demo bool
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return Stats{}, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	adminID, err := seedAdmin(tx, email, cfg.AdminPassword, &stats)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if cfg.Demo {
		materialID, err := ensureMaterial(tx, adminID, &stats)
		if err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
		if err := ensureProduct(tx, adminID, materialID, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(tx *sql.Tx, email, password string, stats *Stats) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM users WHERE email = ? LIMIT 1`, email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check admin user existence: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hash admin password: %w", err)
	}

	res, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, hash)
	if err != nil {
		return 0, fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return res.LastInsertId()
}

func ensureMaterial(tx *sql.Tx, userID int64, stats *Stats) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM materials WHERE user_id = ? AND name = ? LIMIT 1`, userID, demoMaterialName).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check demo material existence: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO materials (user_id, name, total_cost, total_quantity, unit)
		VALUES (?, ?, ?, ?, ?)
	`, userID, demoMaterialName, "10", "1000", "g")
	if err != nil {
		return 0, fmt.Errorf("insert demo material: %w", err)
	}
	stats.Inserts++
	return res.LastInsertId()
}

func ensureProduct(tx *sql.Tx, userID, materialID int64, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM products WHERE user_id = ? AND name = ? LIMIT 1)`, userID, demoProductName).Scan(&exists); err != nil {
		return fmt.Errorf("check demo product existence: %w", err)
	}
	if exists {
		return nil
	}

	res, err := tx.Exec(`
		INSERT INTO products (user_id, name, labour_hours, hourly_rate, profit_margin_percent)
		VALUES (?, ?, ?, ?, ?)
	`, userID, demoProductName, "0.5", "15", "100")
	if err != nil {
		return fmt.Errorf("insert demo product: %w", err)
	}
	productID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read demo product id: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO recipe_items (product_id, position, material_id, quantity)
		VALUES (?, 0, ?, ?)
	`, productID, materialID, "250"); err != nil {
		return fmt.Errorf("insert demo recipe: %w", err)
	}
	stats.Inserts++
	return nil
}
