package registration

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("register: %w", &Error{Kind: KindUpstreamUnavailable, Op: "lookup", Err: cause})

	assert.Equal(t, KindUpstreamUnavailable, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindUserCreateFailed, Op: "insert_user", Err: errors.New("boom")}
	assert.Equal(t, "insert_user: USER_CREATE_FAILED: boom", err.Error())
	assert.Equal(t, "lookup: DUPLICATE_ORGANIZATION", (&Error{Kind: KindDuplicateOrganization, Op: "lookup"}).Error())
}
