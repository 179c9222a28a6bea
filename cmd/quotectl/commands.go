package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pouchworks/quote-service/internal/application"
	"github.com/pouchworks/quote-service/internal/domain"
	"github.com/pouchworks/quote-service/internal/infrastructure/refdata"
	"github.com/pouchworks/quote-service/pkg/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Packaging quote tooling",
		Long:          "quotectl runs multi-quantity comparisons and inspects the processing option catalog.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(newCompareCmd(), newOptionsCmd(), newImpactCmd())
	return root
}

func newCompareCmd() *cobra.Command {
	var file string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Price a multi-quantity request read from a JSON file",
		Example: `  quotectl compare --file request.json --pretty
  cat request.json | quotectl compare --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			var req application.MultiQuantityQuoteRequest
			if err := json.Unmarshal(body, &req); err != nil {
				return fmt.Errorf("decode request: %w", err)
			}

			svc, err := newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			resp, err := svc.CompareQuantities(contextOrBackground(cmd), &req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp, pretty)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "request JSON file, or - for stdin")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newOptionsCmd() *cobra.Command {
	var category, bagType string

	cmd := &cobra.Command{
		Use:   "options",
		Short: "List processing options",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tMULTIPLIER\tDAYS\tMIN QTY")
			for _, o := range svc.ListOptions(category, bagType) {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%d\n", o.ID, o.Category, o.PriceMultiplier, o.ProcessingTimeDays, o.MinimumQuantity)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&bagType, "bag-type", "", "only options available for this bag type")
	return cmd
}

func newImpactCmd() *cobra.Command {
	var bagType string

	cmd := &cobra.Command{
		Use:   "impact <option-id>...",
		Short: "Show the combined impact of processing options",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			resp, err := svc.CalculateImpact(&application.ImpactRequest{OptionIDs: args, BagTypeID: bagType})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			impact := resp.Data.Impact
			fmt.Fprintf(out, "multiplier:       %.2f\n", impact.Multiplier)
			fmt.Fprintf(out, "processing days:  %d\n", impact.ProcessingTimeDays)
			fmt.Fprintf(out, "minimum quantity: %d\n", impact.MinimumQuantity)
			if len(impact.Features) > 0 {
				fmt.Fprintf(out, "features:         %s\n", strings.Join(impact.Features, ", "))
			}
			if len(impact.IgnoredOptionIDs) > 0 {
				fmt.Fprintf(out, "unknown options:  %s\n", strings.Join(impact.IgnoredOptionIDs, ", "))
			}
			for _, issue := range resp.Data.CompatibilityIssues {
				fmt.Fprintf(out, "warning: %s\n", issue.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bagType, "bag-type", "", "check compatibility against this bag type")
	return cmd
}

// newService builds the same QuoteService the API uses, with logs sent to w
func newService(w io.Writer) (*application.QuoteService, error) {
	logConfig := logging.DefaultConfig("quotectl")
	logConfig.Level = logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	if os.Getenv("LOG_LEVEL") == "" {
		logConfig.Level = logging.LevelWarn
	}
	logConfig.Output = w
	logger := logging.New(logConfig)

	catalog, err := domain.DefaultOptionCatalog()
	if err != nil {
		return nil, err
	}
	resolver, err := refdata.Default()
	if err != nil {
		return nil, err
	}
	calculator := domain.NewPriceCalculator(domain.DefaultCalculatorConfig())
	return application.NewQuoteService(catalog, resolver, calculator, application.DefaultConfig(), logger, nil), nil
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// contextOrBackground guards commands executed without ExecuteContext
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
