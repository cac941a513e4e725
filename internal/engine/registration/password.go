package registration

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword runs bcrypt off the calling goroutine so a cancelled request
// stops waiting for it. bcrypt draws a fresh salt on every call.
func hashPassword(ctx context.Context, password string, cost int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		hash []byte
		err  error
	}

	done := make(chan result, 1)
	go func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		done <- result{hash: hash, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return string(r.hash), nil
	}
}
