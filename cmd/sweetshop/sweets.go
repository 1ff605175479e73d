package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sweetshop-dev/sweetshop/pkg/api"
)

func listCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every sweet in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := openStores(cmd.Context(), apiURL)
			if err != nil {
				return err
			}
			defer stores.Close()

			sweets, err := stores.inventory.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			printSweets(sweets)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend API base URL (overrides config)")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		apiURL   string
		name     string
		category string
		priceMin float64
		priceMax float64
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog",
		Long: `Search the catalog by name, category, or price range.

Examples:
  sweetshop search --name=jamun
  sweetshop search --category=chocolate --max=50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := openStores(cmd.Context(), apiURL)
			if err != nil {
				return err
			}
			defer stores.Close()

			filter := api.SearchFilter{Name: name, Category: category}
			if cmd.Flags().Changed("min") {
				filter.PriceMin = &priceMin
			}
			if cmd.Flags().Changed("max") {
				filter.PriceMax = &priceMax
			}

			sweets, err := stores.inventory.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printSweets(sweets)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend API base URL (overrides config)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Match sweets by name")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Match sweets by category")
	cmd.Flags().Float64Var(&priceMin, "min", 0, "Minimum price")
	cmd.Flags().Float64Var(&priceMax, "max", 0, "Maximum price")
	return cmd
}

func buyCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "buy <id> [quantity]",
		Short: "Purchase a sweet",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := openStores(cmd.Context(), apiURL)
			if err != nil {
				return err
			}
			defer stores.Close()
			if err := requireLogin(stores); err != nil {
				return err
			}

			quantity := 1
			if len(args) == 2 {
				quantity, err = strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity must be a number, got %q", args[1])
				}
			}

			// Prime the cache so the local stock check has data.
			if _, err := stores.inventory.FetchAll(cmd.Context()); err != nil {
				return err
			}
			if err := stores.inventory.Purchase(cmd.Context(), args[0], quantity); err != nil {
				return err
			}

			if sweet, ok := stores.inventory.Get(args[0]); ok {
				success("Purchased %d x %s (%d left in stock)", quantity, sweet.Name, sweet.Quantity)
			} else {
				success("Purchased %d", quantity)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend API base URL (overrides config)")
	return cmd
}

func restockCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "restock <id> <quantity>",
		Short: "Restock a sweet (admin only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := openStores(cmd.Context(), apiURL)
			if err != nil {
				return err
			}
			defer stores.Close()
			if err := requireLogin(stores); err != nil {
				return err
			}

			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a number, got %q", args[1])
			}

			if err := stores.inventory.Restock(cmd.Context(), args[0], quantity); err != nil {
				return err
			}
			if sweet, ok := stores.inventory.Get(args[0]); ok {
				success("Restocked %s to %d units", sweet.Name, sweet.Quantity)
			} else {
				success("Restocked")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend API base URL (overrides config)")
	return cmd
}

func printSweets(sweets []api.Sweet) {
	if len(sweets) == 0 {
		info("no sweets found")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, s := range sweets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n", s.ID, s.Name, s.Category, s.Price, s.Quantity)
	}
	w.Flush()
}
