package services

import "campusmart/internal/domain"

// allowedTransitions lists, per current status, the reachable statuses and
// the actors allowed to trigger each move. Terminal statuses map to nothing.
var allowedTransitions = map[domain.OrderStatus]map[domain.OrderStatus][]domain.Actor{
	domain.StatusPending: {
		domain.StatusConfirmed: {domain.ActorAdmin},
		domain.StatusCancelled: {domain.ActorBuyer, domain.ActorAdmin},
	},
	domain.StatusConfirmed: {
		domain.StatusDelivered: {domain.ActorAdmin},
		domain.StatusCancelled: {domain.ActorBuyer, domain.ActorAdmin},
	},
	domain.StatusDelivered: {},
	domain.StatusCancelled: {},
}

// CanTransition reports whether actor may move an order from one status to another.
func CanTransition(from, to domain.OrderStatus, actor domain.Actor) bool {
	for _, a := range allowedTransitions[from][to] {
		if a == actor {
			return true
		}
	}
	return false
}
