// Package main implements a standalone seed script that populates the
// levelup-merch catalog with realistic gaming and developer merchandise,
// so the API has browsable data in local and staging environments.
//
// Run: cd scripts/seed && go run main.go
package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	productsPerCategory = 50
	batchSize           = 100
	seedIDPrefix        = "seed-"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// deterministicID derives a stable product ID from category and index, so
// re-running the script updates the same rows instead of duplicating them.
func deterministicID(category string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", category, index)))
	return seedIDPrefix + fmt.Sprintf("%x", sum[:8])
}

var categories = []string{"apparel", "drinkware", "stickers", "desk", "collectibles"}

var manufacturers = []string{
	"PixelForge", "Redline Labs", "ByteWear Co", "Kernel Goods", "Stack Supply",
}

var adjectives = []string{
	"Classic", "Retro", "Midnight", "Neon", "Minimal", "Holographic",
	"Limited", "Vintage", "Glitch", "Arcade",
}

var nouns = map[string][]string{
	"apparel":      {"Hoodie", "Tee", "Cap", "Zip Jacket", "Beanie"},
	"drinkware":    {"Mug", "Tumbler", "Water Bottle", "Espresso Cup"},
	"stickers":     {"Sticker Pack", "Holo Sticker", "Laptop Decal"},
	"desk":         {"Mousepad", "Deskmat", "Keycap Set", "Wrist Rest"},
	"collectibles": {"Pin Set", "Figurine", "Poster", "Patch"},
}

var priceRanges = map[string][2]float64{
	"apparel":      {19.99, 64.99},
	"drinkware":    {9.99, 34.99},
	"stickers":     {2.99, 9.99},
	"desk":         {14.99, 89.99},
	"collectibles": {7.99, 49.99},
}

type seedProduct struct {
	ID           string
	Name         string
	Description  string
	Manufacturer string
	Category     string
	PartNumber   string
	Price        float64
	Quantity     int
}

func generateProducts(rng *rand.Rand) []seedProduct {
	var products []seedProduct
	for _, category := range categories {
		names := nouns[category]
		pr := priceRanges[category]
		for i := 0; i < productsPerCategory; i++ {
			adj := adjectives[rng.Intn(len(adjectives))]
			noun := names[rng.Intn(len(names))]
			name := fmt.Sprintf("%s %s #%d", adj, noun, i+1)

			price := pr[0] + rng.Float64()*(pr[1]-pr[0])
			// Round to a .99 ending like a real storefront.
			price = float64(int(price)) + 0.99

			products = append(products, seedProduct{
				ID:           deterministicID(category, i),
				Name:         name,
				Description:  fmt.Sprintf("%s from the %s collection.", name, category),
				Manufacturer: manufacturers[rng.Intn(len(manufacturers))],
				Category:     category,
				PartNumber:   fmt.Sprintf("%s-%04d", strings.ToUpper(category[:3]), i+1),
				Price:        price,
				Quantity:     rng.Intn(500) + 10,
			})
		}
	}
	return products
}

func main() {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "merch"),
		getEnv("DB_PASSWORD", "merch"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "merch"),
		getEnv("DB_SSLMODE", "disable"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("FATAL: connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("FATAL: ping postgres: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	products := generateProducts(rng)
	log.Printf("Seeding %d products in batches of %d...", len(products), batchSize)

	inserted := 0
	for start := 0; start < len(products); start += batchSize {
		end := start + batchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO products
			(id, name, description, manufacturer, category, part_number, price, quantity, created_at, updated_at)
			VALUES `)
		args := make([]interface{}, 0, len(batch)*8)
		for i, p := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			base := i * 8
			sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, NOW(), NOW())",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
			args = append(args,
				p.ID, p.Name, p.Description, p.Manufacturer,
				p.Category, p.PartNumber, p.Price, p.Quantity,
			)
		}
		sb.WriteString(` ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			manufacturer = EXCLUDED.manufacturer,
			category = EXCLUDED.category,
			part_number = EXCLUDED.part_number,
			price = EXCLUDED.price,
			quantity = EXCLUDED.quantity,
			updated_at = NOW()`)

		if _, err := pool.Exec(ctx, sb.String(), args...); err != nil {
			log.Fatalf("FATAL: insert products batch %d-%d: %v", start, end, err)
		}
		inserted += len(batch)
		log.Printf("  inserted %d/%d", inserted, len(products))
	}

	log.Printf("Done. %d products seeded.", inserted)
}
