package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shopclone/internal/services/pipeline"
)

func newUploadCmd(s *settings) *cobra.Command {
	var (
		store             string
		token             string
		input             string
		multiplier        float64
		prefix            string
		descriptionPrefix string
	)

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Publish a scraped catalog to your store",
		Example: `  shopclone upload --store mystore --token shpat_xxx --input catalog.json --multiplier 1.5 --prefix PREMIUM`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := readCatalog(input)
			if err != nil {
				return err
			}

			rt, err := s.build()
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.service.Upload(cmd.Context(), pipeline.UploadRequest{
				StoreURL:                 store,
				AdminToken:               token,
				SourceStoreURL:           catalog.StoreURL,
				Products:                 catalog.Products,
				Collections:              catalog.Collections,
				PriceMultiplier:          pipeline.Multiplier(multiplier),
				PrefixKeyword:            prefix,
				DescriptionPrefixKeyword: descriptionPrefix,
			})
			if err != nil {
				return errors.New(pipeline.UserMessage(err))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Message)
			if len(result.Errors) > 0 {
				fmt.Fprintf(out, "%d item(s) failed:\n", len(result.Errors))
				for _, line := range pipeline.SummarizeErrors(result.Errors, 5) {
					fmt.Fprintf(out, "  - %s\n", line)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "Destination store (e.g. mystore or mystore.myshopify.com)")
	cmd.Flags().StringVar(&token, "token", "", "Admin API access token")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Catalog file written by scrape (json or yaml)")
	cmd.Flags().Float64Var(&multiplier, "multiplier", 1, "Price multiplier")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Replaces the first word of every product title")
	cmd.Flags().StringVar(&descriptionPrefix, "description-prefix", "", "Text prepended to every product description")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
