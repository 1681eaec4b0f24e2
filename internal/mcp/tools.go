package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchProductsTool defines the search_products MCP tool.
var searchProductsTool = mcp.NewTool("search_products",
	mcp.WithDescription("Search the phone catalog semantically. Returns matching plans with pricing, data allowance and contract terms."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query, e.g. 'cheap phone with lots of data'"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)

// getProductTool defines the get_product MCP tool.
var getProductTool = mcp.NewTool("get_product",
	mcp.WithDescription("Get the full details of one catalog product by name."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Product name, matched case-insensitively"),
	),
)

// listBrandsTool defines the list_brands MCP tool.
var listBrandsTool = mcp.NewTool("list_brands",
	mcp.WithDescription("List the phone brands available in the catalog."),
)
