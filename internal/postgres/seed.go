package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type seedProduct struct {
	name     string
	quantity int
}

var initialProducts = []seedProduct{
	{"Dell XPS 13 laptop", 15},
	{"Logitech MX Master 3 mouse", 45},
	{"Keychron K8 keyboard", 22},
	{`Samsung 27" monitor`, 18},
	{"Sony WH-1000XM4 headphones", 30},
	{"1TB external hard drive", 25},
	{"USB-C cable", 100},
	{"TP-Link Archer AX50 router", 12},
	{"Logitech C920 webcam", 20},
	{"Thunderbolt dock", 8},
}

// SeedProducts loads the initial catalog. No-op when products already exist,
// so the command is safe to rerun.
func SeedProducts(ctx context.Context, db *pgxpool.Pool) (int, error) {
	var n int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for _, p := range initialProducts {
		if _, err := db.Exec(ctx, `INSERT INTO products(name, quantity) VALUES ($1,$2)`, p.name, p.quantity); err != nil {
			return 0, err
		}
	}
	return len(initialProducts), nil
}
