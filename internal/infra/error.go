package infra

import (
	"errors"

	"schedcore/internal/pkg/errs"
)

type RepositoryErrorKind string

const (
	KindNotFound           RepositoryErrorKind = "NOT_FOUND"
	KindDBFailure          RepositoryErrorKind = "DB_FAILURE"
	KindDuplicateKey       RepositoryErrorKind = "DUPLICATE_KEY"
	KindForeignKeyViolated RepositoryErrorKind = "FOREIGN_KEY_VIOLATED"

	// Provider kinds classify external calendar/payment call failures per
	// the provider's own signal: rate limits retry after the advertised
	// delay, auth failures escalate (credential likely revoked).
	KindProviderRateLimited RepositoryErrorKind = "PROVIDER_RATE_LIMITED"
	KindProviderAuthFailed  RepositoryErrorKind = "PROVIDER_AUTH_FAILED"
	KindProviderUnavailable RepositoryErrorKind = "PROVIDER_UNAVAILABLE"
)

type RepositoryError struct {
	Kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

// WrapRepoErr defaults to KindDBFailure when no kind is given.
func WrapRepoErr(msg string, err error, kind ...RepositoryErrorKind) error {
	k := KindDBFailure
	if len(kind) > 0 {
		k = kind[0]
	}
	if err != nil {
		err = errs.Wrap(err, msg)
	}
	return RepositoryError{Kind: k, msg: msg, err: err}
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsRetryableProvider reports whether a provider failure is transient and
// worth re-delivery by the caller's retry layer.
func IsRetryableProvider(err error) bool {
	return IsKind(err, KindProviderRateLimited) || IsKind(err, KindProviderUnavailable)
}
