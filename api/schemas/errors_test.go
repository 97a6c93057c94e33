// File: api/schemas/errors_test.go
package schemas

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNavigationTimeoutErrorMessage(t *testing.T) {
	err := &NavigationTimeoutError{
		URL:     "https://www.xiaohongshu.com",
		Timeout: 10 * time.Second,
	}
	assert.Equal(t,
		"navigation to https://www.xiaohongshu.com timed out after 10000 ms",
		err.Error())
}

func TestSelectorTimeoutErrorMessage(t *testing.T) {
	err := &SelectorTimeoutError{
		Selector: ".login-container",
		Stage:    "login dialog",
		State:    WaitVisible,
		Timeout:  3333 * time.Millisecond,
	}
	assert.Equal(t,
		`timed out after 3333 ms waiting for login dialog (".login-container" to become visible)`,
		err.Error())
}

func TestSelectorTimeoutErrorDefaultsToVisible(t *testing.T) {
	err := &SelectorTimeoutError{Selector: "#noteContainer", Stage: "note detail", Timeout: time.Second}
	assert.Contains(t, err.Error(), "to become visible")
}

func TestLoginFailedErrorWrapsCause(t *testing.T) {
	cause := &LoginVerificationError{}
	err := &LoginFailedError{Attempts: 3, Err: cause}

	assert.Contains(t, err.Error(), "login failed after 3 attempts")

	var verification *LoginVerificationError
	assert.True(t, errors.As(err, &verification))
}
