package token

import (
	"fmt"
	"strconv"

	"github.com/giftwell/accounts/internal/domain"
)

// Fingerprints are pure functions over a user snapshot. A token carries a
// signature over one of these values, so changing any contributing field
// invalidates every outstanding token for that purpose.

// ActivationFingerprint covers the fields an activation or password-reset
// token must die with: the active flag and the password hash. Activating an
// account or changing its password consumes the token.
func ActivationFingerprint(u *domain.User) string {
	return fmt.Sprintf("%s|%s|%d",
		strconv.FormatBool(u.IsActive),
		u.PasswordHash,
		u.DateJoined.Unix(),
	)
}

// EmailChangeFingerprint covers the current and requested email. Completing
// a change, or issuing a second request before verifying the first,
// invalidates the earlier token. Name edits deliberately do not.
func EmailChangeFingerprint(u *domain.User) string {
	return u.Email + "|" + u.RequestedEmail
}
