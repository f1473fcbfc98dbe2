package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names
const (
	ToolCreateAccount          = "create_account"
	ToolGetMyAccount           = "get_my_account"
	ToolCreateOrder            = "create_order"
	ToolListMyOrders           = "list_my_orders"
	ToolGetOrderDetails        = "get_order_details"
	ToolAmendOrder             = "amend_order"
	ToolSubmitOrder            = "submit_order"
	ToolCancelOrder            = "cancel_order"
	ToolUpdateProductQuantity  = "update_product_quantity"
	ToolUpdateProductPrice     = "update_product_price"
	ToolRetrieveProductDetails = "retrieve_product_details"
	ToolSearchProduct          = "search_product"
)

func noArgsSchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
}

func orderIDProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
		"minimum":     1,
	}
}

func createAccountTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolCreateAccount,
		Description: "Creates a new user account from the caller's name and email.",
		InputSchema: noArgsSchema(),
	}
}

func getMyAccountTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolGetMyAccount,
		Description: "Retrieves the account details for the current user.",
		InputSchema: noArgsSchema(),
	}
}

func createOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolCreateOrder,
		Description: "Creates a new pending order with a list of products, one unit of each listed id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"product_ids": map[string]interface{}{
					"type":        "array",
					"description": "List of IDs of products to initially add to the order (1 to 5 entries)",
					"items": map[string]interface{}{
						"type": "integer",
					},
					"minItems": 1,
					"maxItems": 5,
				},
			},
			Required: []string{"product_ids"},
		},
	}
}

func listMyOrdersTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolListMyOrders,
		Description: "Lists all orders for the current user.",
		InputSchema: noArgsSchema(),
	}
}

func getOrderDetailsTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolGetOrderDetails,
		Description: "Retrieves details of a specific order.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": orderIDProperty("The ID of the order to retrieve"),
				"details": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include the order's line items",
					"default":     false,
				},
			},
			Required: []string{"order_id"},
		},
	}
}

func amendOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolAmendOrder,
		Description: "Modifies an existing pending order by setting the quantity of one product.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": orderIDProperty("The ID of the order to amend"),
				"product_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the product to update in the order",
				},
				"qty": map[string]interface{}{
					"type":        "integer",
					"description": "New quantity for the product (must be positive)",
					"minimum":     1,
				},
			},
			Required: []string{"order_id", "product_id", "qty"},
		},
	}
}

func submitOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolSubmitOrder,
		Description: "Submits a pending order.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": orderIDProperty("The ID of the order to submit"),
			},
			Required: []string{"order_id"},
		},
	}
}

func cancelOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolCancelOrder,
		Description: "Cancels a pending order.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": orderIDProperty("The ID of the order to cancel"),
			},
			Required: []string{"order_id"},
		},
	}
}

func updateProductQuantityTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolUpdateProductQuantity,
		Description: "Updates the available quantity of the product with the given id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "The product ID",
				},
				"quantity": map[string]interface{}{
					"type":        "integer",
					"description": "New available quantity (non-negative)",
					"minimum":     0,
				},
			},
			Required: []string{"id", "quantity"},
		},
	}
}

func updateProductPriceTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolUpdateProductPrice,
		Description: "Updates the unit price of the product with the given id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "The product ID",
				},
				"price": map[string]interface{}{
					"type":        "number",
					"description": "New unit price, positive with at most 2 decimal digits",
				},
			},
			Required: []string{"id", "price"},
		},
	}
}

func retrieveProductDetailsTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolRetrieveProductDetails,
		Description: "Retrieves details about the product, including price and quantity available, for the given product id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "The product ID",
				},
			},
			Required: []string{"id"},
		},
	}
}

func searchProductTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolSearchProduct,
		Description: "Searches the product list for keywords in the product name, the product description, or the keywords associated to the product.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"termExpression": map[string]interface{}{
					"type":        "string",
					"description": "The search term expression: all keywords concatenated and separated by |",
				},
				"case_sensitive": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, match terms case-sensitively",
					"default":     false,
				},
			},
			Required: []string{"termExpression"},
		},
	}
}
