package main

import (
	"os"
	"testing"

	"github.com/fpda/academy-backend/internal/services"
)

func TestExampleCatalogParses(t *testing.T) {
	f, err := os.Open("catalog.example.yaml")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	cat, err := services.ParseSeedCatalog(f)
	if err != nil {
		t.Fatalf("ParseSeedCatalog: %v", err)
	}
	if len(cat.Courses) != 2 || len(cat.Instructors) != 1 {
		t.Fatalf("catalog = %d courses, %d instructors", len(cat.Courses), len(cat.Instructors))
	}
}
