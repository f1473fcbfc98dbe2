// Package types provides shared type definitions for the ACME orders MCP server.
//
// This package defines the domain records used across the storage layer, the
// account registry, the product catalog and the order lifecycle engine.
//
// # Core Types
//
// Account is a registered customer, identified by a unique email:
//
//	account := &types.Account{
//	    Name:  "Bo Jackson",
//	    Email: "bo@bojackson.com",
//	}
//
// Product is a catalog row. Prices are decimal values with at most two
// fractional digits:
//
//	if err := types.ValidatePrice(decimal.RequireFromString("9.99")); err != nil {
//	    return err
//	}
//
// Order groups line items for one account. Its TotalAmount always equals the
// sum of unit price times quantity over its current items.
//
// # Order Status
//
// Orders start pending and move to exactly one terminal status:
//
//	pending --submit--> submitted
//	pending --cancel--> canceled
//
// Use OrderStatus.CanTransitionTo to check a transition and
// OrderStatus.IsFinal to check whether items may still change.
//
// # Errors
//
// errors.go defines the error taxonomy shared by every component. Callers
// compare with errors.Is; UnknownProductError carries the missing product ids
// and matches ErrUnknownProduct.
package types
