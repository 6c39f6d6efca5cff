package store

import "magnetix/ticket-service/internal/models"

// The ticket lifecycle is monotonic: the only exposed transition is the
// pay confirmation, and it may happen once.
var transitionMap = map[string][]string{
	"pay": {models.StatusAwaitingPayment},
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}
