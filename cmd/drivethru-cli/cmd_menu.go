package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/janhq/drivethru-server/internal/config"
	"github.com/janhq/drivethru-server/internal/infrastructure"
	"github.com/janhq/drivethru-server/internal/infrastructure/catalog"
	"github.com/janhq/drivethru-server/internal/infrastructure/database"
	"github.com/janhq/drivethru-server/internal/infrastructure/database/repository/catalogrepo"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Menu seed commands",
	Long:  `Validate menu seed files, load them into Postgres and print their schema.`,
}

var menuValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a menu seed file",
	RunE:  runMenuValidate,
}

var menuSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a menu seed file into the database",
	Long:  `Upsert every restaurant, ingredient and item of the seed file. Uses DRIVETHRU_DATABASE_URL.`,
	RunE:  runMenuSeed,
}

var menuSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of menu seed files",
	RunE:  runMenuSchema,
}

func init() {
	menuCmd.AddCommand(menuValidateCmd)
	menuCmd.AddCommand(menuSeedCmd)
	menuCmd.AddCommand(menuSchemaCmd)

	menuValidateCmd.Flags().StringP("file", "f", "config/menu.yaml", "Menu seed file")
	menuSeedCmd.Flags().StringP("file", "f", "config/menu.yaml", "Menu seed file")
}

func runMenuValidate(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	src, err := catalog.LoadYAMLFile(file)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, id := range src.RestaurantIDs() {
		r, err := src.Restaurant(cmd.Context(), id)
		if err != nil {
			return err
		}
		items, _ := src.Items(cmd.Context(), id)
		ingredients, _ := src.Ingredients(cmd.Context(), id)
		fmt.Fprintf(out, "restaurant %d %q: %d items, %d ingredients\n", id, r.Name, len(items), len(ingredients))
	}
	fmt.Fprintf(out, "%s is valid\n", file)
	return nil
}

func runMenuSeed(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	ctx := cmd.Context()

	cfg, err := configFromEnv()
	if err != nil {
		return err
	}
	if !cfg.ArchiveEnabled() {
		return fmt.Errorf("DRIVETHRU_DATABASE_URL is required to seed the menu")
	}
	log := infrastructure.ProvideLogger(cfg)

	src, err := catalog.LoadYAMLFile(file)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}
	repo := catalogrepo.NewCatalogGormRepository(db)

	for _, id := range src.RestaurantIDs() {
		r, err := src.Restaurant(ctx, id)
		if err != nil {
			return err
		}
		items, err := src.Items(ctx, id)
		if err != nil {
			return err
		}
		ingredients, err := src.Ingredients(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.Upsert(ctx, r, items, ingredients); err != nil {
			return fmt.Errorf("seed restaurant %d: %w", id, err)
		}
		log.Info().Int64("restaurant_id", id).Int("items", len(items)).Msg("restaurant seeded")
	}
	return nil
}

func runMenuSchema(cmd *cobra.Command, args []string) error {
	reflector := jsonschema.Reflector{FieldNameTag: "yaml"}
	schema := reflector.Reflect(&catalog.File{})
	schema.Title = "Drive-thru menu seed"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// configFromEnv loads .env files the same way the server does.
func configFromEnv() (*config.Config, error) {
	loadEnvFiles()
	return infrastructure.ProvideConfig()
}
