package quota

// DenyReason explains why a check was denied.
type DenyReason string

const (
	// DenyInsufficientTokens means the bucket held fewer tokens than the
	// request cost after refill.
	DenyInsufficientTokens DenyReason = "insufficient_tokens"
	// DenyBlocked means the bucket is under an active escalation block;
	// tokens and violations are left untouched on this path.
	DenyBlocked DenyReason = "blocked"
)

// Decision is the outcome of one rate limit check. ResetInSeconds is always
// at least 1 on a denial and gives the caller retry guidance.
type Decision struct {
	Allowed         bool       `json:"allowed"`
	TokensRemaining int        `json:"tokens_remaining"`
	ResetInSeconds  int        `json:"reset_in_seconds,omitempty"`
	Reason          DenyReason `json:"reason,omitempty"`
}
