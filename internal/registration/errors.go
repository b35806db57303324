package registration

import "errors"

// Client-facing failures. Handlers surface these messages verbatim; anything
// else coming out of the service is an internal failure and is reported
// generically.
var (
	ErrInvalidInput      = errors.New("name, email, and invite code are required")
	ErrDuplicateMember   = errors.New("a member with this email already exists")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrInviteAlreadyUsed = errors.New("this invite code has already been used")
	ErrCommunityFull     = errors.New("the community has reached its maximum capacity")
)

// IsClientError reports whether err should be shown to the caller as-is.
func IsClientError(err error) bool {
	for _, known := range []error{
		ErrInvalidInput,
		ErrDuplicateMember,
		ErrInvalidInviteCode,
		ErrInviteAlreadyUsed,
		ErrCommunityFull,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
