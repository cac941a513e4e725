package registration

import (
	"errors"
	"fmt"
)

// Kind classifies a registration failure.
type Kind string

const (
	KindInvalidInput             Kind = "INVALID_INPUT"
	KindDuplicateOrganization    Kind = "DUPLICATE_ORGANIZATION"
	KindOrganizationCreateFailed Kind = "ORGANIZATION_CREATE_FAILED"
	KindUserCreateFailed         Kind = "USER_CREATE_FAILED"
	KindNotificationFailed       Kind = "NOTIFICATION_FAILED"
	KindUpstreamUnavailable      Kind = "UPSTREAM_UNAVAILABLE"
	KindInternal                 Kind = "INTERNAL"
)

// ClientError reports whether the kind is caused by the request itself.
func (k Kind) ClientError() bool {
	return k == KindInvalidInput || k == KindDuplicateOrganization
}

type Error struct {
	Kind Kind
	// Op is the step that failed: validate, lookup, hash, insert_organization,
	// insert_user or notify.
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err. Errors that did not come from this
// package are KindInternal; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
