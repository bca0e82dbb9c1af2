package drive

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/casetrack/internal/core/domain"
)

// rateLimitReasons are the 403 reason codes Drive uses for quota
// throttling rather than real permission failures.
var rateLimitReasons = map[string]struct{}{
	"rateLimitExceeded":     {},
	"userRateLimitExceeded": {},
}

// wrapErr maps a Drive API failure onto the domain error taxonomy so
// the core can classify without knowing the transport.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		// Transport-level failure (DNS, timeout, connection reset).
		return domain.ErrTransient
	}

	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		for _, e := range gerr.Errors {
			if _, ok := rateLimitReasons[e.Reason]; ok {
				return domain.ErrRateLimited
			}
		}
		return domain.ErrPermissionDenied
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusGone:
		return domain.ErrTokenExpired
	case http.StatusPreconditionFailed, http.StatusConflict:
		return domain.ErrVersionConflict
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		if gerr.Code >= 500 {
			return domain.ErrTransient
		}
		return err
	}
}
