package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"github.com/dshills/acme-orders-mcp/internal/identity"
	"github.com/dshills/acme-orders-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams        = -32602 // Invalid method parameters
	ErrorCodeInternalError        = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound             = -32001 // Product or record does not exist
	ErrorCodeInvalidOrder         = -32002 // Order missing or owned by another account
	ErrorCodeUnknownProduct       = -32003 // One or more product ids do not exist
	ErrorCodeDuplicateAccount     = -32004 // Account email already registered
	ErrorCodeOrderFinalized       = -32005 // Order is no longer pending
	ErrorCodeAccountNotRegistered = -32006 // Caller has no account
	ErrorCodeIdentityRequired     = -32007 // No caller identity on the request
)

// handleCreateAccount handles the create_account tool invocation
func (s *Server) handleCreateAccount(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.Create(ctx, caller)
	if err != nil {
		return nil, toolError(err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"message": "account created successfully",
		"account": accountView(account),
	})), nil
}

// handleGetMyAccount handles the get_my_account tool invocation
func (s *Server) handleGetMyAccount(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByEmail(ctx, caller.Email)
	if errors.Is(err, types.ErrNotFound) {
		return nil, toolError(types.ErrAccountNotRegistered)
	}
	if err != nil {
		return nil, toolError(err)
	}

	return mcp.NewToolResultText(formatJSON(accountView(account))), nil
}

// handleCreateOrder handles the create_order tool invocation
func (s *Server) handleCreateOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	productIDs, err := getIntSlice(args, "product_ids")
	if err != nil {
		return nil, err
	}

	order, err := s.orders.CreateOrder(ctx, caller, productIDs)
	if err != nil {
		return nil, toolError(err)
	}

	return mcp.NewToolResultText(formatJSON(orderView(order))), nil
}

// handleListMyOrders handles the list_my_orders tool invocation
func (s *Server) handleListMyOrders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListOrders(ctx, caller)
	if err != nil {
		return nil, toolError(err)
	}

	views := make([]map[string]interface{}, len(orders))
	for i, order := range orders {
		views[i] = orderView(order)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"orders": views,
		"count":  len(views),
	})), nil
}

// handleGetOrderDetails handles the get_order_details tool invocation
func (s *Server) handleGetOrderDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	orderID, err := getInt(args, "order_id")
	if err != nil {
		return nil, err
	}
	details := getBoolDefault(args, "details", false)

	order, err := s.orders.GetOrder(ctx, caller, orderID, details)
	if err != nil {
		return nil, toolError(err)
	}

	return mcp.NewToolResultText(formatJSON(orderView(order))), nil
}

// handleAmendOrder handles the amend_order tool invocation
func (s *Server) handleAmendOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	orderID, err := getInt(args, "order_id")
	if err != nil {
		return nil, err
	}
	productID, err := getInt(args, "product_id")
	if err != nil {
		return nil, err
	}
	qty, err := getQuantity(args, "qty")
	if err != nil {
		return nil, err
	}

	order, err := s.orders.AmendOrder(ctx, caller, orderID, productID, qty)
	if err != nil {
		return nil, toolError(err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"message": "order amended successfully",
		"order":   orderView(order),
	})), nil
}

// handleSubmitOrder handles the submit_order tool invocation
func (s *Server) handleSubmitOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.finalize(ctx, request, types.StatusSubmitted)
}

// handleCancelOrder handles the cancel_order tool invocation
func (s *Server) handleCancelOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.finalize(ctx, request, types.StatusCanceled)
}

func (s *Server) finalize(ctx context.Context, request mcp.CallToolRequest, target types.OrderStatus) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	orderID, err := getInt(args, "order_id")
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FinalizeOrder(ctx, caller, orderID, target)
	if err != nil {
		return nil, toolError(err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"message": fmt.Sprintf("order %s successfully", target),
		"order":   orderView(order),
	})), nil
}

// handleUpdateProductQuantity handles the update_product_quantity tool invocation
func (s *Server) handleUpdateProductQuantity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	productID, err := getInt(args, "id")
	if err != nil {
		return nil, err
	}
	quantity, err := getQuantity(args, "quantity")
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.SetAvailability(ctx, productID, quantity)
	if err != nil {
		return nil, toolError(err)
	}

	return mcp.NewToolResultText(formatJSON(productView(product))), nil
}

// handleUpdateProductPrice handles the update_product_price tool invocation
func (s *Server) handleUpdateProductPrice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	productID, err := getInt(args, "id")
	if err != nil {
		return nil, err
	}
	price, err := getDecimal(args, "price")
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.SetPrice(ctx, productID, price)
	if err != nil {
		return nil, toolError(err)
	}

	return mcp.NewToolResultText(formatJSON(productView(product))), nil
}

// handleRetrieveProductDetails handles the retrieve_product_details tool invocation
func (s *Server) handleRetrieveProductDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	productID, err := getInt(args, "id")
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, toolError(err)
	}

	return mcp.NewToolResultText(formatJSON(productView(product))), nil
}

// handleSearchProduct handles the search_product tool invocation
func (s *Server) handleSearchProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	expr, ok := args["termExpression"].(string)
	if !ok || strings.TrimSpace(expr) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "termExpression parameter is required and cannot be empty", map[string]interface{}{
			"param":  "termExpression",
			"reason": "missing or empty",
		})
	}
	caseSensitive := getBoolDefault(args, "case_sensitive", false)

	products, err := s.catalog.Search(ctx, expr, caseSensitive)
	if err != nil {
		return nil, toolError(err)
	}

	views := make([]map[string]interface{}, len(products))
	for i, p := range products {
		views[i] = productView(p)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"products": views,
		"count":    len(views),
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error. Handlers return it as
// an error; errorResults turns it into a tool result for the client.
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// Result renders the error as a tool result with isError set. The text body
// is {"error": {"code", "message", "data"}}.
func (e *MCPError) Result() *mcp.CallToolResult {
	body := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Data != nil {
		body["data"] = e.Data
	}
	return mcp.NewToolResultError(formatJSON(map[string]interface{}{"error": body}))
}

// asMCPError returns err as an MCPError, mapping domain errors on the way
func asMCPError(err error) *MCPError {
	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	return toolError(err).(*MCPError)
}

// toolError maps a domain error onto an MCPError
func toolError(err error) error {
	var upe *types.UnknownProductError
	switch {
	case errors.As(err, &upe):
		return newMCPError(ErrorCodeUnknownProduct, upe.Error(), map[string]interface{}{
			"product_ids": upe.IDs,
		})
	case errors.Is(err, types.ErrUnknownProduct):
		return newMCPError(ErrorCodeUnknownProduct, err.Error(), nil)
	case errors.Is(err, types.ErrInvalidInput):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	case errors.Is(err, types.ErrInvalidOrder):
		return newMCPError(ErrorCodeInvalidOrder, types.ErrInvalidOrder.Error(), nil)
	case errors.Is(err, types.ErrOrderFinalized):
		return newMCPError(ErrorCodeOrderFinalized, types.ErrOrderFinalized.Error(), nil)
	case errors.Is(err, types.ErrDuplicateAccount):
		return newMCPError(ErrorCodeDuplicateAccount, types.ErrDuplicateAccount.Error(), nil)
	case errors.Is(err, types.ErrAccountNotRegistered):
		return newMCPError(ErrorCodeAccountNotRegistered, types.ErrAccountNotRegistered.Error(), nil)
	case errors.Is(err, types.ErrNotFound):
		return newMCPError(ErrorCodeNotFound, err.Error(), nil)
	default:
		return newMCPError(ErrorCodeInternalError, "internal error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// requireCaller returns the caller credential placed on ctx by the transport
func requireCaller(ctx context.Context) (types.Credential, error) {
	caller, ok := identity.FromContext(ctx)
	if !ok {
		return types.Credential{}, newMCPError(ErrorCodeIdentityRequired, "caller identity required", map[string]interface{}{
			"header": identity.HeaderName,
			"format": "name=<name>;email=<email>",
		})
	}
	return caller, nil
}

// arguments extracts the argument map of a tool call
func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

func accountView(a *types.Account) map[string]interface{} {
	return map[string]interface{}{
		"id":          a.ID,
		"name":        a.Name,
		"email":       a.Email,
		"signup_date": a.SignupDate.Format(time.RFC3339),
	}
}

func productView(p *types.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       money(p.Price),
		"keywords":    p.Keywords,
		"available":   p.Available,
	}
}

func orderView(o *types.Order) map[string]interface{} {
	view := map[string]interface{}{
		"id":           o.ID,
		"account_id":   o.AccountID,
		"order_date":   o.OrderDate.Format(time.RFC3339),
		"status":       o.Status,
		"total_amount": money(o.TotalAmount),
	}
	if o.Items != nil {
		items := make([]map[string]interface{}, len(o.Items))
		for i, item := range o.Items {
			items[i] = map[string]interface{}{
				"id":           item.ID,
				"product_id":   item.ProductID,
				"product_name": item.ProductName,
				"quantity":     item.Quantity,
				"unit_price":   money(item.UnitPrice),
				"subtotal":     money(item.Subtotal()),
			}
		}
		view["items"] = items
	}
	return view
}

// money renders an amount as a JSON number with two decimals
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(types.MaxPriceDecimals))
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// toInt64 converts a decoded JSON number to an integer
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit
		if n != math.Trunc(n) || math.IsInf(n, 0) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// getInt extracts a required integer parameter
func getInt(args map[string]interface{}, key string) (int64, error) {
	val, present := args[key]
	if !present {
		return 0, newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing",
		})
	}
	n, ok := toInt64(val)
	if !ok {
		return 0, newMCPError(ErrorCodeInvalidParams, key+" must be an integer", map[string]interface{}{
			"param": key,
			"value": val,
		})
	}
	return n, nil
}

// getQuantity extracts a required integer no larger than types.MaxQuantity.
// The lower bound is left to the domain checks.
func getQuantity(args map[string]interface{}, key string) (int, error) {
	n, err := getInt(args, key)
	if err != nil {
		return 0, err
	}
	if n > types.MaxQuantity || n < -types.MaxQuantity {
		return 0, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("%s must not exceed %d", key, types.MaxQuantity), map[string]interface{}{
			"param": key,
			"value": n,
		})
	}
	return int(n), nil
}

// getIntSlice extracts a required array of integers
func getIntSlice(args map[string]interface{}, key string) ([]int64, error) {
	invalid := newMCPError(ErrorCodeInvalidParams, key+" must be an array of integers", map[string]interface{}{
		"param": key,
	})

	switch vals := args[key].(type) {
	case []int64:
		return vals, nil
	case []interface{}:
		out := make([]int64, len(vals))
		for i, v := range vals {
			n, ok := toInt64(v)
			if !ok {
				return nil, invalid
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, invalid
}

// getDecimal extracts a required decimal parameter given as a number or a string
func getDecimal(args map[string]interface{}, key string) (decimal.Decimal, error) {
	invalid := newMCPError(ErrorCodeInvalidParams, key+" must be a number", map[string]interface{}{
		"param": key,
		"value": args[key],
	})

	switch v := args[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, invalid
		}
		return decimal.NewFromFloat(v), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, invalid
		}
		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, invalid
		}
		return d, nil
	}
	return decimal.Zero, invalid
}
