package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tobilabs/salesbot/internal/catalog"
	"github.com/tobilabs/salesbot/internal/search"
)

// handleSearchProducts performs semantic search over the catalog.
func (s *Server) handleSearchProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	result, err := s.searcher.SearchText(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(result.Items) == 0 {
		return mcp.NewToolResultText("No products matched that query."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(result)), nil
}

// handleGetProduct looks a product up by name.
func (s *Server) handleGetProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}

	for _, p := range s.searcher.Products() {
		if strings.EqualFold(p.Name, name) {
			return mcp.NewToolResultText(formatProduct(p)), nil
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("no product named %q in the catalog", name)), nil
}

// handleListBrands returns the distinct catalog brands.
func (s *Server) handleListBrands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	brands := s.searcher.Brands()
	if len(brands) == 0 {
		return mcp.NewToolResultText("The catalog is empty."), nil
	}
	return mcp.NewToolResultText(strings.Join(brands, "\n")), nil
}

func formatSearchResults(result search.Result) string {
	var b strings.Builder
	for i, item := range result.Items {
		fmt.Fprintf(&b, "%d. %s (%s) - £%.2f/month, %s data, %s storage, %d month contract [score %.2f]\n",
			i+1, item.Product.Name, item.Product.Brand, item.Product.MonthlyCost,
			item.Product.DataAllowance, item.Product.Storage, item.Product.ContractMonths, item.Score)
	}
	if result.Degraded {
		b.WriteString("\nNote: semantic ranking was unavailable; results are keyword matches.\n")
	}
	return b.String()
}

func formatProduct(p catalog.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", p.Name, p.Brand)
	fmt.Fprintf(&b, "Monthly cost: £%.2f\n", p.MonthlyCost)
	fmt.Fprintf(&b, "Data allowance: %s\n", p.DataAllowance)
	fmt.Fprintf(&b, "Storage: %s\n", p.Storage)
	fmt.Fprintf(&b, "Contract: %d months\n", p.ContractMonths)
	if len(p.Features) > 0 {
		fmt.Fprintf(&b, "Features: %s\n", strings.Join(p.Features, ", "))
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Description)
	}
	if p.URL != "" {
		fmt.Fprintf(&b, "\n%s\n", p.URL)
	}
	return b.String()
}
