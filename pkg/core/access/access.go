// Package access gates mutating schedule actions by permission tier.
package access

import (
	"context"
	"fmt"

	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

// Tier is a caller's permission level
type Tier int

const (
	TierSelfService Tier = 0
	TierCoordinator Tier = 1
	TierAdmin       Tier = 2
)

func (t Tier) IsValid() bool {
	return t >= TierSelfService && t <= TierAdmin
}

func (t Tier) String() string {
	switch t {
	case TierSelfService:
		return "self-service"
	case TierCoordinator:
		return "coordinator"
	case TierAdmin:
		return "admin"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Action names an operation that is checked against the caller's tier
type Action string

const (
	ActionListSwaps         Action = "list_swaps"
	ActionListViolations    Action = "list_violations"
	ActionValidateSwap      Action = "validate_swap"
	ActionExecuteOwnSwap    Action = "execute_own_swap"
	ActionExecuteSwap       Action = "execute_swap"
	ActionRollbackSwap      Action = "rollback_swap"
	ActionResolveViolations Action = "resolve_violations"
	ActionIgnoreViolations  Action = "ignore_violations"
	ActionEditAssignment    Action = "edit_assignment"
)

var requiredTiers = map[Action]Tier{
	ActionListSwaps:         TierSelfService,
	ActionListViolations:    TierSelfService,
	ActionValidateSwap:      TierSelfService,
	ActionExecuteOwnSwap:    TierSelfService,
	ActionExecuteSwap:       TierCoordinator,
	ActionRollbackSwap:      TierCoordinator,
	ActionResolveViolations: TierCoordinator,
	ActionIgnoreViolations:  TierAdmin,
	ActionEditAssignment:    TierAdmin,
}

// RequiredTier returns the minimum tier for an action. Unknown actions are admin-only.
func RequiredTier(action Action) Tier {
	if tier, ok := requiredTiers[action]; ok {
		return tier
	}
	return TierAdmin
}

// Identity is the current user as seen by the core
type Identity struct {
	UserID string
	Name   string
	Tier   Tier
}

// Require returns a *model.PermissionError if identity may not perform action
func Require(identity Identity, action Action) error {
	required := RequiredTier(action)
	if identity.Tier < required {
		return &model.PermissionError{
			Action:   string(action),
			Required: int(required),
			Actual:   int(identity.Tier),
		}
	}
	return nil
}

// ExecuteSwapAction picks the execute action for a swap: people may execute
// swaps of their own weeks, anyone else's needs a coordinator
func ExecuteSwapAction(identity Identity, sourceFacultyID string) Action {
	if identity.UserID != "" && identity.UserID == sourceFacultyID {
		return ActionExecuteOwnSwap
	}
	return ActionExecuteSwap
}

// ResolutionAction maps a batch resolution method to the action it requires
func ResolutionAction(method model.ResolutionMethod) Action {
	if method == model.ResolutionIgnored {
		return ActionIgnoreViolations
	}
	return ActionResolveViolations
}

type identityKey struct{}

// WithIdentity returns a context carrying identity
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
