package couples

import "errors"

var (
	ErrNotFound       = errors.New("couple not found")
	ErrNotLinked      = errors.New("user is not linked to a partner")
	ErrAlreadyLinked  = errors.New("user is already linked to a partner")
	ErrSelfLink       = errors.New("cannot link with yourself")
	ErrInviteNotFound = errors.New("invite code not found")
	ErrNotMember      = errors.New("user is not a member of this couple")
	ErrClaimLost      = errors.New("generation claim lost")
)

const (
	ErrorCodeLLMTimeout     = "LLM_TIMEOUT"
	ErrorCodeLLMTransport   = "LLM_TRANSPORT"
	ErrorCodeAccountMissing = "ACCOUNT_MISSING"
	ErrorCodeStorage        = "STORAGE_ERROR"
	ErrorCodeInternal       = "INTERNAL_ERROR"
)
