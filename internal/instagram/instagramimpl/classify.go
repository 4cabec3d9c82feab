package instagramimpl

import (
	"context"
	"strings"

	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
	"github.com/orgball2608/insta-downloader-api/pkg/retry"
)

// classify maps an upstream library failure onto the typed taxonomy. The
// library exposes no stable error types for these cases, so classification
// matches the messages Instagram embeds in its responses, the same signals
// the rest of the ecosystem keys on (429 / "Please wait a few minutes" for
// throttling, login_required for expired or missing sessions).
func classify(err error, username string) *apperrors.Error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "please wait a few minutes"),
		strings.Contains(msg, "rate limit"):
		return apperrors.Wrap(apperrors.RateLimited(), err)
	case strings.Contains(msg, "login_required"),
		strings.Contains(msg, "login required"),
		strings.Contains(msg, "not logged in"),
		strings.Contains(msg, "please log in"):
		return apperrors.Wrap(apperrors.LoginRequired(""), err)
	case strings.Contains(msg, "user not found"),
		strings.Contains(msg, "unable to find user"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "404"):
		return apperrors.Wrap(apperrors.UserNotFound(username), err)
	case strings.Contains(msg, "challenge_required"),
		strings.Contains(msg, "account suspended"),
		strings.Contains(msg, "checkpoint"),
		strings.Contains(msg, "400"):
		return apperrors.Wrap(apperrors.ProfileSuspended(username), err)
	case strings.Contains(msg, "private"):
		return apperrors.Wrap(apperrors.PrivateProfile(username), err)
	default:
		return apperrors.Wrap(apperrors.Download("Connection error: "+err.Error()), err)
	}
}

// retryableOrPermanent keeps throttle and transient failures retryable and
// short-circuits the backoff loop for everything identity-shaped.
func retryableOrPermanent(err *apperrors.Error) error {
	if apperrors.IsRetryable(err) {
		return err
	}
	return retry.Permanent(err)
}

func (ig *IgImpl) do(ctx context.Context, operationName string, op func() error) error {
	return retry.Do(ctx, ig.Logger, operationName, op, ig.retryConfig())
}
