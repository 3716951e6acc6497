package position

import "github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/apperr"

var (
	ErrPositionNotFound       = apperr.NotFound("POSITION_NOT_FOUND", "position not found")
	ErrPositionNameExists     = apperr.Conflict("POSITION_NAME_EXISTS", "position with this name already exists")
	ErrPositionInUse          = apperr.Conflict("POSITION_IN_USE", "position is assigned to employees")
	ErrInvalidContractType    = apperr.Validation("INVALID_CONTRACT_TYPE", "contract type must be hourly, part_time or full_time")
	ErrInvalidMultiplier      = apperr.Validation("INVALID_MULTIPLIER", "multipliers must be at least 1.0")
	ErrNoRatePolicyConfigured = apperr.State("NO_RATE_POLICY_CONFIGURED", "position is missing the rate fields required by its contract type")
)
