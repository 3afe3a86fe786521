// Command seed loads a YAML course catalog into the database. Courses are
// matched by slug and modules/lessons by position, so re-running a file is
// safe.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fpda/academy-backend/internal/app"
	"github.com/fpda/academy-backend/internal/services"
)

func main() {
	path := flag.String("file", "cmd/seed/catalog.example.yaml", "catalog YAML file")
	dryRun := flag.Bool("dry-run", false, "validate the file without writing")
	flag.Parse()

	if err := run(*path, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, dryRun bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cat, err := services.ParseSeedCatalog(f)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Printf("%s: %d instructors, %d courses OK\n", path, len(cat.Instructors), len(cat.Courses))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	report, err := a.Services.Seed.Apply(ctx, cat)
	if err != nil {
		return err
	}
	a.Log.Info("Catalog seeded",
		"file", path,
		"instructors", report.Instructors,
		"courses", report.Courses,
		"modules", report.Modules,
		"lessons", report.Lessons,
		"quizzes", report.Quizzes,
	)
	return nil
}
