package quotes

import (
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
)

// Action names a lifecycle transition on a quote request.
type Action string

const (
	ActionBeginPricing      Action = "begin_pricing"
	ActionIssueQuote        Action = "issue_quote"
	ActionRequestValidation Action = "request_validation"
	ActionValidate          Action = "validate"
	ActionAssignDelivery    Action = "assign_delivery"
	ActionConfirmDelivery   Action = "confirm_delivery"
	ActionCancel            Action = "cancel"
)

type transitionRule struct {
	from  []enums.QuoteStatus
	to    enums.QuoteStatus
	roles []enums.ActorRole
}

// transitionTable encodes every legal transition: the source states it may
// fire from, the single target state, and the roles allowed to request it.
// Cancel is special-cased in EnsureTransition because its source set is
// "any non-terminal state".
var transitionTable = map[Action]transitionRule{
	ActionBeginPricing: {
		from:  []enums.QuoteStatus{enums.QuoteStatusEnAttente},
		to:    enums.QuoteStatusDevisEnPreparation,
		roles: []enums.ActorRole{enums.ActorRoleAdmin},
	},
	ActionIssueQuote: {
		from:  []enums.QuoteStatus{enums.QuoteStatusDevisEnPreparation},
		to:    enums.QuoteStatusDevisEnvoye,
		roles: []enums.ActorRole{enums.ActorRoleAdmin},
	},
	ActionRequestValidation: {
		from:  []enums.QuoteStatus{enums.QuoteStatusDevisEnvoye},
		to:    enums.QuoteStatusEnAttenteValidation,
		roles: []enums.ActorRole{enums.ActorRoleSystem, enums.ActorRoleAdmin},
	},
	ActionValidate: {
		from:  []enums.QuoteStatus{enums.QuoteStatusEnAttenteValidation},
		to:    enums.QuoteStatusValideParClient,
		roles: []enums.ActorRole{enums.ActorRoleClient},
	},
	ActionAssignDelivery: {
		from:  []enums.QuoteStatus{enums.QuoteStatusValideParClient},
		to:    enums.QuoteStatusEnCoursLivraison,
		roles: []enums.ActorRole{enums.ActorRoleAdmin},
	},
	ActionConfirmDelivery: {
		from:  []enums.QuoteStatus{enums.QuoteStatusEnCoursLivraison},
		to:    enums.QuoteStatusTermine,
		roles: []enums.ActorRole{enums.ActorRoleLivreur},
	},
	ActionCancel: {
		to:    enums.QuoteStatusAnnule,
		roles: []enums.ActorRole{enums.ActorRoleAdmin, enums.ActorRoleClient, enums.ActorRoleSystem},
	},
}

// TargetStatus returns the state an action lands in.
func TargetStatus(action Action) (enums.QuoteStatus, bool) {
	rule, ok := transitionTable[action]
	if !ok {
		return "", false
	}
	return rule.to, true
}

// EnsureTransition checks that the action is legal from the current state for
// the given actor role. Failures carry the current state, the attempted
// target, and the required roles so callers can render an actionable message.
func EnsureTransition(action Action, current enums.QuoteStatus, role enums.ActorRole) error {
	rule, ok := transitionTable[action]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown lifecycle action")
	}

	if !roleAllowed(rule.roles, role) {
		return invalidTransition(action, current, rule, "actor role not permitted")
	}

	if action == ActionCancel {
		if current.IsTerminal() {
			return invalidTransition(action, current, rule, "quote already in a terminal state")
		}
		return nil
	}

	for _, from := range rule.from {
		if from == current {
			return nil
		}
	}
	if current == rule.to {
		return invalidTransition(action, current, rule, "transition already applied")
	}
	return invalidTransition(action, current, rule, "transition not allowed from current state")
}

func roleAllowed(allowed []enums.ActorRole, role enums.ActorRole) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}

func invalidTransition(action Action, current enums.QuoteStatus, rule transitionRule, reason string) error {
	roles := make([]string, 0, len(rule.roles))
	for _, r := range rule.roles {
		roles = append(roles, r.String())
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid lifecycle transition").WithDetails(map[string]any{
		"action":         string(action),
		"current_status": current.String(),
		"target_status":  rule.to.String(),
		"required_roles": roles,
		"reason":         reason,
	})
}
