// seed inserts a few test users and tweets into the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ErlanBelekov/chirp/internal/infrastructure/postgres"
)

type userSpec struct {
	email    string
	name     string
	username string
	bio      string
}

var users = []userSpec{
	{"alice@test.local", "Alice", "alice", "I post about Go."},
	{"bob@test.local", "Bob", "bob", "Mostly lurking."},
	{"carol@test.local", "Carol", "carol", "Hello, I'm new on Twitter"},
}

var tweets = map[string][]string{
	"alice": {
		"goroutines are cheap, opinions are expensive",
		"shipping the token rotation fix today",
		"hot take: most services need fewer layers, not more",
	},
	"bob": {
		"first tweet, be gentle",
		"does anyone actually read bios?",
	},
	"carol": {
		"hello world",
	},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set, run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	userIDs := make(map[string]int64, len(users))
	for _, spec := range users {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO users (email, name, username, bio)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
			RETURNING id`,
			spec.email, spec.name, spec.username, spec.bio,
		).Scan(&id)
		if err != nil {
			log.Fatalf("upsert user %s: %v", spec.email, err)
		}
		userIDs[spec.username] = id
	}

	var inserted int
	for username, lines := range tweets {
		for _, content := range lines {
			// Skip tweets that already exist so re-runs stay idempotent.
			var exists bool
			if err := pool.QueryRow(ctx, `
				SELECT EXISTS (SELECT 1 FROM tweets WHERE user_id = $1 AND content = $2)`,
				userIDs[username], content,
			).Scan(&exists); err != nil {
				log.Fatalf("check tweet: %v", err)
			}
			if exists {
				continue
			}
			if _, err := pool.Exec(ctx, `
				INSERT INTO tweets (user_id, content) VALUES ($1, $2)`,
				userIDs[username], content,
			); err != nil {
				log.Fatalf("insert tweet for %s: %v", username, err)
			}
			inserted++
		}
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Users:          %d\n", len(users))
	fmt.Printf("  Tweets created: %d\n", inserted)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1, request a login code (it is printed in the server log when ENV=local):")
	fmt.Println()
	fmt.Println("    curl -s -X POST http://localhost:3000/auth/login \\")
	fmt.Println("      -H 'Content-Type: application/json' \\")
	fmt.Println("      -d '{\"email\":\"alice@test.local\"}'")
	fmt.Println()
	fmt.Println("  Step 2, exchange the code for a session pair:")
	fmt.Println()
	fmt.Println("    curl -s -X POST http://localhost:3000/auth/authenticate \\")
	fmt.Println("      -H 'Content-Type: application/json' \\")
	fmt.Println("      -d '{\"email\":\"alice@test.local\",\"token\":\"CODE\"}'")
	fmt.Println("    # → {\"accessToken\":\"eyJ...\",\"refreshToken\":\"eyJ...\"}")
	fmt.Println()
	fmt.Println("  Step 3, read the timeline:")
	fmt.Println()
	fmt.Println("    export TOKEN=eyJ...")
	fmt.Println("    curl -s http://localhost:3000/tweet -H \"Authorization: Bearer $TOKEN\"")
}
