package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/swapi-gateway/pkg/explorer"
	"github.com/Sternrassler/swapi-gateway/pkg/gateway"
	"github.com/Sternrassler/swapi-gateway/pkg/pagination"
	"github.com/Sternrassler/swapi-gateway/pkg/sorting"
	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

type exploreOptions struct {
	search   string
	sortBy   string
	order    string
	page     int
	pageSize int
}

func newExploreCmd(a *app) *cobra.Command {
	var opts exploreOptions

	cmd := &cobra.Command{
		Use:       "explore <people|planets|starships|films>",
		Short:     "Run one listing query and print the JSON result",
		Args:      cobra.ExactArgs(1),
		ValidArgs: swapi.ResourceTypeNames(),
		Example: `  # Everyone named Skywalker
  swapi-gateway explore people --search skywalker

  # Planets by diameter, largest first, second page of 5
  swapi-gateway explore planets --sort-by diameter --order desc --page 2 --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.explore(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "search term")
	cmd.Flags().StringVar(&opts.sortBy, "sort-by", "", "field to sort by")
	cmd.Flags().StringVar(&opts.order, "order", string(sorting.Asc), "sort order (asc, desc)")
	cmd.Flags().IntVar(&opts.page, "page", pagination.DefaultPage, "page number")
	cmd.Flags().IntVar(&opts.pageSize, "limit", pagination.DefaultPageSize, "records per page (1-100)")

	return cmd
}

func (a *app) explore(cmd *cobra.Command, rawType string, opts exploreOptions) error {
	rt, ok := swapi.ParseResourceType(rawType)
	if !ok {
		return fmt.Errorf("unknown resource type %q (available: %s)",
			rawType, strings.Join(swapi.ResourceTypeNames(), ", "))
	}

	q := explorer.Query{
		Type:     rt,
		SortBy:   strings.TrimSpace(opts.sortBy),
		Order:    sorting.ParseOrder(opts.order),
		Page:     pagination.ParsePage(fmt.Sprint(opts.page)),
		PageSize: pagination.ParsePageSize(fmt.Sprint(opts.pageSize)),
	}
	if cmd.Flags().Changed("search") {
		term, apiErr := gateway.ValidateTerm(opts.search)
		if apiErr != nil {
			return errors.New(apiErr.Message)
		}
		q.Term = term
	}

	svc, err := a.newService()
	if err != nil {
		return err
	}

	listing, err := svc.Explore(cmd.Context(), q)
	if errors.Is(err, explorer.ErrNoResults) {
		fmt.Fprintln(cmd.OutOrStdout(), gateway.NoResultsMessage)
		return nil
	}
	if err != nil {
		return err
	}

	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(gateway.NewListingResponse(listing), "", "  ")
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
