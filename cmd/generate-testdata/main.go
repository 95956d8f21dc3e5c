// Package main provides a command-line tool to populate a cadstore
// database with randomized fixture data for manual testing and
// benchmarking. This is a separate executable and is not included when
// importing the cadstore package.
// Run with: go run ./cmd/generate-testdata -dsn fixtures.db -lines 500 -ucs 20
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jaswdr/faker"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/mustun/cadstore"
)

func main() {
	dsn := flag.String("dsn", "cadstore_fixtures.db", "path to the SQLite database file to populate")
	lineCount := flag.Int("lines", 100, "number of random Line entities to generate")
	ucsCount := flag.Int("ucs", 10, "number of random Ucs objects to generate")
	transactionCount := flag.Int("transactions", 20, "number of random transactions to record against the generated lines")
	fresh := flag.Bool("fresh", true, "remove any existing database file at dsn before generating")
	flag.Parse()

	if *fresh {
		os.Remove(*dsn)
	}

	store, err := cadstore.NewStorage(*dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	f := faker.New()

	lines := make([]*cadstore.Line, 0, *lineCount)
	for i := 0; i < *lineCount; i++ {
		line := cadstore.NewLine(randomVector(f), randomVector(f))
		if err := store.SaveObject(ctx, line); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save line %d: %v\n", i, err)
			os.Exit(1)
		}
		lines = append(lines, line)
	}
	fmt.Printf("Generated %d lines\n", len(lines))

	for i := 0; i < *ucsCount; i++ {
		ucs := cadstore.NewUcs(randomVector(f), randomAxis(f), randomAxis(f))
		if err := store.SaveObject(ctx, ucs); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save ucs %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Generated %d coordinate systems\n", *ucsCount)

	for i := 0; i < *transactionCount && len(lines) > 0; i++ {
		line := lines[f.IntBetween(0, len(lines)-1)]
		txn := cadstore.NewTransaction(f.Lorem().Sentence(4))
		oldLen := f.Float64(2, 0, 1000)
		newLen := f.Float64(2, 0, 1000)
		if err := txn.AddChange(line.ID, 1, cadstore.DoubleValue(oldLen), cadstore.DoubleValue(newLen)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build transaction %d: %v\n", i, err)
			os.Exit(1)
		}
		if err := store.SaveTransaction(ctx, txn); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save transaction %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Generated %d transactions\n", *transactionCount)

	fmt.Println("Done.")
}

func randomVector(f faker.Faker) cadstore.Vector3 {
	const span = 1000
	return cadstore.Vector3{
		X: f.Float64(3, -span, span),
		Y: f.Float64(3, -span, span),
		Z: f.Float64(3, -span, span),
	}
}

func randomAxis(f faker.Faker) cadstore.Vector3 {
	return cadstore.Vector3{
		X: f.Float64(4, -1, 1),
		Y: f.Float64(4, -1, 1),
		Z: f.Float64(4, -1, 1),
	}
}
