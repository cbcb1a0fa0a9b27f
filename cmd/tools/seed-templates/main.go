// cmd/tools/seed-templates/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"notification-dispatcher/internal/common/config"
	"notification-dispatcher/internal/common/database"
	"notification-dispatcher/internal/models"
	"notification-dispatcher/internal/notification/descriptors"
	"notification-dispatcher/internal/notification/templates"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	applyCmd := flag.NewFlagSet("apply", flag.ExitOnError)

	exportOut := exportCmd.String("out", "", "Write the built-in templates to this file (default stdout)")
	validateFile := validateCmd.String("file", "", "Template file to check (default built-in templates)")
	applyFile := applyCmd.String("file", "", "Template file to upsert (default built-in templates)")
	applyTimeout := applyCmd.Duration("timeout", 30*time.Second, "Overall timeout")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := exportRecords(*exportOut, templates.DefaultSeed()); err != nil {
			fmt.Printf("Error exporting templates: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		records, err := loadRecords(*validateFile)
		if err != nil {
			fmt.Printf("Error loading templates: %v\n", err)
			os.Exit(1)
		}
		problems := validateRecords(descriptors.NewRegistry(nil), records)
		for _, p := range problems {
			fmt.Println(" -", p)
		}
		if len(problems) > 0 {
			fmt.Printf("Template validation failed with %d problem(s).\n", len(problems))
			os.Exit(1)
		}
		fmt.Printf("Template validation passed (%d records).\n", len(records))

	case "apply":
		applyCmd.Parse(os.Args[2:])
		records, err := loadRecords(*applyFile)
		if err != nil {
			fmt.Printf("Error loading templates: %v\n", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), *applyTimeout)
		defer cancel()
		if err := apply(ctx, records); err != nil {
			fmt.Printf("Error applying templates: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Applied %d templates.\n", len(records))

	case "help":
		fallthrough
	default:
		help()
	}
}

// loadRecords reads a JSON array of template records, or returns the built-in set for an empty path.
func loadRecords(path string) ([]models.TemplateRecord, error) {
	if path == "" {
		return templates.DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []models.TemplateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

func exportRecords(path string, records []models.TemplateRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// validateRecords reports unknown types, empty content, duplicate triples and
// default channels left without a system default.
func validateRecords(registry *descriptors.Registry, records []models.TemplateRecord) []string {
	var problems []string

	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		if _, err := registry.Get(rec.Type); err != nil {
			problems = append(problems, fmt.Sprintf("record %d: unknown notification type %q", i, rec.Type))
		}
		if rec.Content == "" {
			problems = append(problems, fmt.Sprintf("record %d: content is empty", i))
		}
		key := templates.CacheKey(rec.Type, rec.Channel, rec.CompanyID)
		if seen[key] {
			problems = append(problems, fmt.Sprintf("record %d: duplicate of %s", i, key))
		}
		seen[key] = true
	}

	for _, m := range templates.MissingDefaults(registry.All(), records) {
		problems = append(problems, fmt.Sprintf("no default template for %s over %s", m.Type, m.Channel))
	}
	return problems
}

func apply(ctx context.Context, records []models.TemplateRecord) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		return templates.Seed(ctx, templates.NewPostgresStore(pg.DB), records)

	case config.BackendMongo:
		mc, err := database.NewMongo(ctx, cfg.Database.Mongo)
		if err != nil {
			return err
		}
		defer mc.Close(context.Background())
		store := templates.NewMongoStore(mc.Database)
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		return templates.Seed(ctx, store, records)

	default:
		return fmt.Errorf("storage.backend %q keeps templates in memory; nothing to apply", cfg.Storage.Backend)
	}
}

func help() {
	fmt.Println("Usage: seed-templates <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  export    Print the built-in templates as JSON")
	fmt.Println("  validate  Check a template file against the supported notification types")
	fmt.Println("  apply     Upsert templates into the configured storage backend")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nExamples:")
	fmt.Println("  go run ./cmd/tools/seed-templates export -out templates.json")
	fmt.Println("  go run ./cmd/tools/seed-templates validate -file templates.json")
	fmt.Println("  STORAGE_BACKEND=postgres go run ./cmd/tools/seed-templates apply -file templates.json")
}
