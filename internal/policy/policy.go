// Package policy decides whether a requester may perform an operation. It
// holds no state and performs no I/O.
package policy

import (
	"little-lemon/internal/apperr"
	"little-lemon/internal/models"
)

type Operation string

const (
	CartList        Operation = "list cart"
	CartAdd         Operation = "add to cart"
	CartAddForOther Operation = "add to another user's cart"
	CartClear       Operation = "clear cart"
	OrderList       Operation = "list orders"
	OrderPlace      Operation = "place order"
	OrderView       Operation = "view order"
	OrderToggle     Operation = "change order status"
	OrderAssignCrew Operation = "assign delivery crew"
	OrderDelete     Operation = "delete order"
)

// Ownership describes the requester's relation to the target order.
type Ownership struct {
	IsOwner        bool
	IsAssignedCrew bool
}

// OwnershipOf computes the requester's relation to order.
func OwnershipOf(requester models.Requester, order models.Order) Ownership {
	return Ownership{
		IsOwner:        order.UserID == requester.User.ID,
		IsAssignedCrew: order.IsAssignedTo(requester.User.ID),
	}
}

type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize applies the access rules. Unknown operations are denied.
func Authorize(roles models.RoleSet, op Operation, own Ownership) Decision {
	if roles == 0 {
		return Deny
	}
	manager := roles.Has(models.RoleManager)
	crew := roles.Has(models.RoleDeliveryCrew)

	var ok bool
	switch op {
	case CartList, CartAdd, CartClear, OrderList, OrderPlace:
		ok = true
	case CartAddForOther, OrderAssignCrew, OrderDelete:
		ok = manager
	case OrderView:
		ok = manager || own.IsOwner || (crew && own.IsAssignedCrew)
	case OrderToggle:
		ok = manager || (crew && own.IsAssignedCrew)
	}
	if ok {
		return Allow
	}
	return Deny
}

// Check is Authorize returning apperr.PolicyDeniedError on Deny.
func Check(requester models.Requester, op Operation, own Ownership) error {
	if Authorize(requester.Roles, op, own) == Allow {
		return nil
	}
	return apperr.PolicyDeniedError{Operation: string(op)}
}

// OrderScope returns the orders a requester may list: managers see all,
// delivery crew see orders assigned to them, customers see their own.
func OrderScope(requester models.Requester) models.OrderFilter {
	id := requester.User.ID
	switch {
	case requester.Roles.Has(models.RoleManager):
		return models.OrderFilter{}
	case requester.Roles.Has(models.RoleDeliveryCrew):
		return models.OrderFilter{DeliveryCrewID: &id}
	default:
		return models.OrderFilter{UserID: &id}
	}
}
