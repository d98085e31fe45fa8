package services

import (
	"food-dash/internal/order-service/core/domain/model"
)

type Trigger string

const (
	TriggerAccept   Trigger = "accept"
	TriggerAssign   Trigger = "assign"
	TriggerClaim    Trigger = "claim"
	TriggerPickup   Trigger = "pickup"
	TriggerDeliver  Trigger = "deliver"
	TriggerComplete Trigger = "complete"
	TriggerCancel   Trigger = "cancel"
	TriggerDispute  Trigger = "dispute"
)

// Milestone column names, shared with the orders repo.
const (
	MilestoneAccepted  = "accepted_at"
	MilestoneAssigned  = "assigned_at"
	MilestonePickedUp  = "picked_up_at"
	MilestoneDelivered = "delivered_at"
	MilestoneCompleted = "completed_at"
)

// transitionRule captures {role x trigger -> allowed source states} in
// one table so authorization and adjacency are checked in a single
// place instead of per endpoint.
type transitionRule struct {
	from      []string
	to        string
	roles     []string
	milestone string
}

var transitions = map[Trigger]transitionRule{
	TriggerAccept: {
		from:      []string{model.StatusPending},
		to:        model.StatusAccepted,
		roles:     []string{model.RoleCafe},
		milestone: MilestoneAccepted,
	},
	TriggerAssign: {
		from:      []string{model.StatusAccepted},
		to:        model.StatusAssigned,
		roles:     []string{model.RoleCafe},
		milestone: MilestoneAssigned,
	},
	TriggerClaim: {
		from:      []string{model.StatusPending, model.StatusAccepted},
		to:        model.StatusAssigned,
		roles:     []string{model.RoleDriver},
		milestone: MilestoneAssigned,
	},
	TriggerPickup: {
		from:      []string{model.StatusAssigned},
		to:        model.StatusInTransit,
		roles:     []string{model.RoleDriver},
		milestone: MilestonePickedUp,
	},
	TriggerDeliver: {
		from:      []string{model.StatusInTransit},
		to:        model.StatusDelivered,
		roles:     []string{model.RoleDriver},
		milestone: MilestoneDelivered,
	},
	TriggerComplete: {
		from:      []string{model.StatusDelivered},
		to:        model.StatusCompleted,
		roles:     []string{model.RoleCustomer, model.RoleAdmin},
		milestone: MilestoneCompleted,
	},
	TriggerCancel: {
		from:  []string{model.StatusPending, model.StatusAccepted},
		to:    model.StatusCancelled,
		roles: []string{model.RoleCustomer, model.RoleAdmin},
	},
	TriggerDispute: {
		from:  []string{model.StatusDelivered, model.StatusCompleted},
		to:    model.StatusDisputed,
		roles: []string{model.RoleCustomer},
	},
}

func (r transitionRule) roleAllowed(role string) bool {
	for _, allowed := range r.roles {
		if role == allowed {
			return true
		}
	}
	return false
}

func (r transitionRule) fromAllowed(status string) bool {
	for _, s := range r.from {
		if status == s {
			return true
		}
	}
	return false
}

// milestoneSet reports whether the rule's milestone timestamp already
// carries a value on the order. Stamping twice is a bug condition.
func (r transitionRule) milestoneSet(o model.Order) bool {
	switch r.milestone {
	case MilestoneAccepted:
		return o.Timestamps.AcceptedAt != nil
	case MilestoneAssigned:
		return o.Timestamps.AssignedAt != nil
	case MilestonePickedUp:
		return o.Timestamps.PickedUpAt != nil
	case MilestoneDelivered:
		return o.Timestamps.DeliveredAt != nil
	case MilestoneCompleted:
		return o.Timestamps.CompletedAt != nil
	}
	return false
}
