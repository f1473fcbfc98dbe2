// Package mcp implements the Model Context Protocol (MCP) server for the ACME
// ordering backend.
//
// The server exposes the catalog and the order lifecycle as MCP tools:
//   - create_account, get_my_account: register and read the caller's account
//   - create_order, list_my_orders, get_order_details: create and read orders
//   - amend_order, submit_order, cancel_order: change pending orders
//   - update_product_quantity, update_product_price: maintain the catalog
//   - retrieve_product_details, search_product: browse the catalog
//
// # Transports
//
// By default the server speaks streamable HTTP in stateless mode, hosted on an
// echo router next to /metrics and /healthz:
//
//	POST /mcp   {"jsonrpc":"2.0","id":1,"method":"tools/call","params":{...}}
//
// With ACME_TRANSPORT=stdio it reads JSON-RPC messages from stdin and writes
// responses to stdout. Logs always go to stderr.
//
// # Caller Identity
//
// Order and account tools act on behalf of the caller named by the user-info
// request header:
//
//	user-info: name=Wile E. Coyote;email=wile@acme.com
//
// The header is resolved once per request by the transport context function.
// Handlers read the credential from the context and pass it explicitly to the
// order engine. Stdio sessions take the same syntax from ACME_USER_INFO. When
// ACME_DEV_IDENTITY is set, requests without an identity act as the fixed
// development user.
//
// # Tool: create_order
//
//	Request:
//	{
//	  "name": "create_order",
//	  "arguments": {"product_ids": [1, 4, 4]}
//	}
//
//	Response:
//	{
//	  "id": 12,
//	  "account_id": 3,
//	  "order_date": "2026-10-16T09:30:00Z",
//	  "status": "pending",
//	  "total_amount": 327.99,
//	  "items": [...]
//	}
//
// Each listed id adds one unit; repeated ids add repeated items. One to five
// ids are accepted.
//
// # Tool: amend_order
//
// Sets the quantity of one product on a pending order and re-prices the whole
// order from the current catalog:
//
//	{"name": "amend_order", "arguments": {"order_id": 12, "product_id": 4, "qty": 3}}
//
// # Error Codes
//
// Failures are returned as tool results with isError set. The text content is
// a JSON body carrying the code, message and optional data:
//
//	{"error": {"code": -32003, "message": "...", "data": {"product_ids": [404]}}}
//
//	-32602  invalid params (bad ids, quantity, price)
//	-32603  internal error
//	-32001  product not found
//	-32002  invalid orderId (missing or owned by another account)
//	-32003  one or more invalid product ids
//	-32004  account with that email already exists
//	-32005  cannot amend a finalized order
//	-32006  account not registered
//	-32007  caller identity required
//
// # Observability
//
// Every tool call passes through a middleware that assigns a request id, logs
// the tool, caller and duration, and updates the acme_orders_tool_calls_total
// and acme_orders_tool_duration_ms metrics.
package mcp
