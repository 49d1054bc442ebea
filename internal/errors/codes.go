package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Rejected actions
	CodeUnitNotFound      Code = "UNIT_NOT_FOUND"
	CodeCasterDefeated    Code = "CASTER_DEFEATED"
	CodeCasterNotActive   Code = "CASTER_NOT_ACTIVE"
	CodeCasterDisabled    Code = "CASTER_DISABLED"
	CodeAbilityUnknown    Code = "ABILITY_UNKNOWN"
	CodeAbilityNotKnown   Code = "ABILITY_NOT_KNOWN"
	CodeAbilityOnCooldown Code = "ABILITY_ON_COOLDOWN"
	CodeInsufficientMana  Code = "INSUFFICIENT_MANA"
	CodeNoActionsLeft     Code = "NO_ACTIONS_LEFT"
	CodeNoMovesLeft       Code = "NO_MOVES_LEFT"
	CodeConditionRequired Code = "CONDITION_REQUIRED"
	CodeOutOfRange        Code = "OUT_OF_RANGE"
	CodeTargetOccupied    Code = "TARGET_OCCUPIED"
	CodeNoLineOfSight     Code = "NO_LINE_OF_SIGHT"
	CodeUnreachable       Code = "UNREACHABLE"
	CodeNoPendingAction   Code = "NO_PENDING_ACTION"
	CodeActionPending     Code = "ACTION_PENDING"
	CodeBattleNotFound    Code = "BATTLE_NOT_FOUND"
	CodeBattleOver        Code = "BATTLE_OVER"

	// Invalid target shape
	CodeTargetRequired     Code = "TARGET_REQUIRED"
	CodeTargetUnitRequired Code = "TARGET_UNIT_REQUIRED"
	CodeTargetNotHostile   Code = "TARGET_NOT_HOSTILE"
	CodeTargetNotFriendly  Code = "TARGET_NOT_FRIENDLY"
	CodeTargetOutOfBounds  Code = "TARGET_OUT_OF_BOUNDS"

	// Simulation inconsistency
	CodeInconsistentState Code = "INCONSISTENT_STATE"
	CodeReplayDiverged    Code = "REPLAY_DIVERGED"

	// Dice
	CodeDiceInvalidCount     Code = "DICE_INVALID_COUNT"
	CodeDiceInvalidAdvantage Code = "DICE_INVALID_ADVANTAGE"

	// Interactive dodge
	CodeAwaitingDodge Code = "AWAITING_DODGE"

	// Catalog
	CodeCatalogInvalid Code = "CATALOG_INVALID"
)

// Kind groups codes into the handling buckets the orchestrator cares about.
type Kind int

const (
	KindNone Kind = iota
	// KindRejected is recoverable: surfaced to the acting player, no state change.
	KindRejected
	// KindInvalidTarget is handled like KindRejected.
	KindInvalidTarget
	// KindInconsistency aborts the action; the orchestrator should resync.
	KindInconsistency
	// KindAwaiting means the action is parked until an interactive input arrives.
	KindAwaiting
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRejected:
		return "rejected_action"
	case KindInvalidTarget:
		return "invalid_target_shape"
	case KindInconsistency:
		return "simulation_inconsistency"
	case KindAwaiting:
		return "awaiting_input"
	default:
		return "unknown"
	}
}

// Kind returns the taxonomy bucket of a code.
func (c Code) Kind() Kind {
	switch c {
	case CodeUnitNotFound, CodeCasterDefeated, CodeCasterNotActive, CodeCasterDisabled,
		CodeAbilityUnknown, CodeAbilityNotKnown, CodeAbilityOnCooldown, CodeInsufficientMana,
		CodeNoActionsLeft, CodeNoMovesLeft, CodeConditionRequired, CodeOutOfRange,
		CodeTargetOccupied, CodeNoLineOfSight, CodeUnreachable, CodeNoPendingAction,
		CodeActionPending, CodeBattleNotFound, CodeBattleOver,
		CodeDiceInvalidCount, CodeDiceInvalidAdvantage, CodeCatalogInvalid:
		return KindRejected
	case CodeTargetRequired, CodeTargetUnitRequired, CodeTargetNotHostile,
		CodeTargetNotFriendly, CodeTargetOutOfBounds:
		return KindInvalidTarget
	case CodeAwaitingDodge:
		return KindAwaiting
	default:
		return KindInconsistency
	}
}
