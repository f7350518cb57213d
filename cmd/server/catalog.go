package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toolhost/internal/models"
	"toolhost/internal/services"
	"toolhost/internal/tools"
)

var (
	catalogFormat        string
	catalogCollaborators bool
	catalogPolicyFile    string
)

func init() {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the tool catalog",
		Long:  "Print the published tool schemas as openai, anthropic, responses, schema (JSON) or yaml.",
		RunE:  runCatalog,
	}
	cmd.Flags().StringVarP(&catalogFormat, "format", "f", "openai", "Output format: openai, anthropic, responses, schema or yaml")
	cmd.Flags().BoolVar(&catalogCollaborators, "collaborators", true, "Include the DDR and category tools")
	cmd.Flags().StringVar(&catalogPolicyFile, "policy", "", "Catalog policy file whose disabled tools are left out")

	rootCmd.AddCommand(cmd)
}

var errCatalogOnly = errors.New("catalog export has no record store")

// catalogStores stands in for the record stores so their tools can be listed
type catalogStores struct{}

func (catalogStores) CreateDDR(context.Context, models.EntityHeader, models.EntityHeader, models.DDRDraft) (*models.DDR, error) {
	return nil, errCatalogOnly
}

func (catalogStores) GetDDR(context.Context, models.EntityHeader, models.EntityHeader, string) (*models.DDR, error) {
	return nil, errCatalogOnly
}

func (catalogStores) ListDDRs(context.Context, models.EntityHeader, models.EntityHeader, models.DDRFilter) ([]models.DDRSummary, error) {
	return nil, errCatalogOnly
}

func (catalogStores) UpdateDDR(context.Context, *models.DDR, models.EntityHeader, models.EntityHeader) error {
	return errCatalogOnly
}

func (catalogStores) ListCategories(context.Context, models.EntityHeader, models.EntityHeader, string, models.ListRequest) ([]models.Category, error) {
	return nil, errCatalogOnly
}

func runCatalog(cmd *cobra.Command, args []string) error {
	var collaborators tools.Collaborators
	if catalogCollaborators {
		collaborators = tools.Collaborators{DDRs: catalogStores{}, Categories: catalogStores{}}
	}

	policy, err := services.NewCatalogPolicy(catalogPolicyFile)
	if err != nil {
		return err
	}

	registry, err := tools.NewBuiltinRegistry(collaborators, tools.WithPolicy(policy))
	if err != nil {
		return err
	}
	schemas := registry.Schemas()

	if catalogFormat == "yaml" {
		data, err := tools.CatalogYAML(schemas)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	format, err := tools.ParseCatalogFormat(catalogFormat)
	if err != nil {
		return err
	}
	catalog, err := tools.RenderCatalog(schemas, format)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
