// cmd/tools/template-loader/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"notification-engine/internal/common/config"
	"notification-engine/internal/common/database"
	"notification-engine/internal/engine/ledger"
	"notification-engine/internal/engine/template"
	"notification-engine/internal/models"
	"notification-engine/pkg/catalog"
)

const defaultCatalogPath = "pkg/catalog/templates.json"

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	// Validate command flags
	validateFile := validateCmd.String("file", defaultCatalogPath, "Path to template catalog file")

	// Seed command flags
	seedFile := seedCmd.String("file", defaultCatalogPath, "Path to template catalog file")
	seedTenant := seedCmd.String("tenant", models.GlobalTenantID, "Tenant ID to install templates under (empty = shared defaults)")
	seedDryRun := seedCmd.Bool("dry-run", false, "Print what would be installed without writing")

	// List command flags
	listTenant := listCmd.String("tenant", models.GlobalTenantID, "Tenant ID to list templates for (empty = shared defaults)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		cat, err := loadCatalog(*validateFile)
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog validation passed. Found %d templates (version %s).\n", len(cat.Templates), cat.Version)

	case "seed":
		seedCmd.Parse(os.Args[2:])
		if err := seedTemplates(*seedFile, *seedTenant, *seedDryRun); err != nil {
			fmt.Printf("Error seeding templates: %v\n", err)
			os.Exit(1)
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listTemplates(*listTenant); err != nil {
			fmt.Printf("Error listing templates: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func loadCatalog(path string) (*catalog.TemplateCatalog, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func seedTemplates(path, tenantID string, dryRun bool) error {
	cat, err := loadCatalog(path)
	if err != nil {
		return err
	}

	scope := "shared defaults"
	if tenantID != models.GlobalTenantID {
		scope = fmt.Sprintf("tenant %s", tenantID)
	}

	if dryRun {
		for _, seed := range cat.Templates {
			fmt.Printf("would install %s/%s/%s (%s)\n", seed.Code, seed.Channel, seed.Language, scope)
		}
		fmt.Printf("Dry run: %d templates for %s.\n", len(cat.Templates), scope)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pg.Close()

	ctx := context.Background()
	if err := pg.Ping(ctx); err != nil {
		return err
	}
	if err := ledger.EnsureSchema(ctx, pg.DB); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	store := template.NewStore(pg.DB)
	for _, seed := range cat.Templates {
		tmpl := &models.NotificationTemplate{
			TenantID: tenantID,
			Code:     seed.Code,
			Channel:  models.Channel(seed.Channel),
			Language: seed.Language,
			Subject:  seed.Subject,
			Body:     seed.Body,
			IsActive: true,
		}
		if err := store.Upsert(ctx, tmpl); err != nil {
			return fmt.Errorf("failed to install %s/%s/%s: %w", seed.Code, seed.Channel, seed.Language, err)
		}
		fmt.Printf("installed %s/%s/%s\n", seed.Code, seed.Channel, seed.Language)
	}

	fmt.Printf("Seeded %d templates for %s (catalog version %s).\n", len(cat.Templates), scope, cat.Version)
	return nil
}

func listTemplates(tenantID string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pg.Close()

	ctx := context.Background()
	if err := pg.Ping(ctx); err != nil {
		return err
	}

	store := template.NewStore(pg.DB)
	templates, err := store.List(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	if len(templates) == 0 {
		fmt.Println("No templates found.")
		return nil
	}

	fmt.Printf("%-24s %-10s %-6s %-8s %s\n", "CODE", "CHANNEL", "LANG", "ACTIVE", "UPDATED")
	for _, tmpl := range templates {
		fmt.Printf("%-24s %-10s %-6s %-8t %s\n",
			tmpl.Code, tmpl.Channel, tmpl.Language, tmpl.IsActive,
			tmpl.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	fmt.Printf("%d templates.\n", len(templates))
	return nil
}

func help() {
	fmt.Println(`
Usage: template-loader <command> [flags]

Commands:
  validate  Validate a template catalog file
  seed      Install catalog templates into the database
  list      List installed templates for a tenant
  help      Show this help message

Examples:
  template-loader validate -file pkg/catalog/templates.json
  template-loader seed
  template-loader seed -tenant acme-001 -dry-run
  template-loader list -tenant acme-001

Use 'template-loader <command> -h' for more information about a command.
`)
}
