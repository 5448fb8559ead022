package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"shopclone/internal/models"
	"shopclone/internal/services/pipeline"
)

func newScrapeCmd(s *settings) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "scrape <store>",
		Short: "Fetch and normalize a storefront's products and collections",
		Example: `  # Print the catalog as JSON
  shopclone scrape teststore

  # Save it as YAML
  shopclone scrape https://teststore.myshopify.com --format yaml --output catalog.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (use json or yaml)", format)
			}

			rt, err := s.build()
			if err != nil {
				return err
			}
			defer rt.close()

			catalog, err := rt.service.Scrape(cmd.Context(), args[0])
			if err != nil {
				return errors.New(pipeline.UserMessage(err))
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := writeCatalog(w, catalog, format); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Fetched %d products and %d collections from %s\n",
				len(catalog.Products), len(catalog.Collections), catalog.StoreURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

func writeCatalog(w io.Writer, catalog *models.Catalog, format string) error {
	if format == "yaml" {
		// Round-trip through JSON so YAML keys match the API field names.
		raw, err := json.Marshal(catalog)
		if err != nil {
			return err
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(catalog)
}

// readCatalog accepts either format written by scrape.
func readCatalog(path string) (*models.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var catalog models.Catalog
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(raw, &catalog); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return &catalog, nil
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := json.Unmarshal(asJSON, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &catalog, nil
}
