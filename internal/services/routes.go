package services

import (
	"context"

	"billed/internal/core"
)

// Routes known to the bill flows.
const (
	RouteLogin   = "/"
	RouteBills   = "/employee/bills"
	RouteNewBill = "/employee/bill/new"
)

// Navigator moves the user to another route. The web adapter turns it into
// an HX-Redirect header.
type Navigator func(route string)

// Notifier is told about every bill that reached the Submitted state.
type Notifier interface {
	BillSubmitted(ctx context.Context, b core.Bill) error
}
