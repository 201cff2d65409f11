// Package errors_test provides unit tests for the AppError type, factory
// functions, and error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.ErrCodeInternal, "unexpected failure"},
		{"entry not found", errors.ErrCodeEntryNotFound, "node C_rad/H2/Cs not in tree"},
		{"invalid action", errors.ErrCodeRecipeInvalidAction, "FORM_BOND order must be 0 or 1"},
		{"undeterminable", errors.ErrCodeKineticsUndeterminable, "no rules matched"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail, "Detail should be empty for bare New()")
			assert.Nil(t, ae.Cause, "Cause should be nil for bare New()")
		})
	}
}

func TestNew_StackIsPopulated(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeInternal, "test")
	require.NotNil(t, ae)
	// Stack may be empty when compiled with -tags nostack; we only assert the
	// field is accessible without panic.
	_ = ae.Stack
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	result := errors.Wrap(nil, errors.ErrCodeInternal, "should not matter")
	assert.Nil(t, result)
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("disk read failed")
	mid := errors.Wrap(root, errors.ErrCodeIOError, "could not read groups file")
	top := errors.Wrap(mid, errors.ErrCodeFamilyLoadFailed, "family load failed")

	require.NotNil(t, top)
	assert.True(t, stderrors.Is(top, root), "root cause must be reachable via errors.Is")

	var ae *errors.AppError
	require.True(t, stderrors.As(top, &ae))
	assert.Equal(t, errors.ErrCodeFamilyLoadFailed, ae.Code)
}

func TestWrap_UnknownCodePreservesOriginal(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeFamilyForbiddenStructure, "matched O2d pattern")
	outer := errors.Wrap(inner, errors.CodeUnknown, "while filtering products")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeFamilyForbiddenStructure, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestError formatting and builders
// ─────────────────────────────────────────────────────────────────────────────

func TestError_FormatWithAndWithoutDetail(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeFamilyTemplateMismatch, "no mapping found")
	assert.Equal(t, "[FAM_003] no mapping found", ae.Error())

	withDetail := ae.WithDetail("template [X_H;Y_rad]")
	assert.Equal(t, "[FAM_003] no mapping found: template [X_H;Y_rad]", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestWithCause_AttachesWithoutMutation(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("low level")
	ae := errors.Internal("something broke")
	withCause := ae.WithCause(cause)

	assert.Nil(t, ae.Cause)
	assert.Same(t, cause, withCause.Cause)
	assert.True(t, stderrors.Is(withCause, cause))
}

func TestNilReceiverBuildersAreSafe(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(fmt.Errorf("y")))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_TraversesChain(t *testing.T) {
	t.Parallel()

	inner := errors.UndeterminableKinetics("no rules")
	wrapped := fmt.Errorf("estimating reaction 12: %w", inner)

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeKineticsUndeterminable))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeFamilyNotFound))
	assert.True(t, errors.IsUndeterminable(wrapped))
}

func TestIsNotFound_CoversDomainVariants(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"generic", errors.NotFound("missing"), true},
		{"entry", errors.New(errors.ErrCodeEntryNotFound, "no node"), true},
		{"family", errors.New(errors.ErrCodeFamilyNotFound, "no family"), true},
		{"other", errors.Internal("boom"), false},
		{"plain", stderrors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, errors.IsNotFound(tc.err))
		})
	}
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeRecipeInvalidAction,
		errors.GetCode(errors.InvalidAction("bad step")))
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience factories
// ─────────────────────────────────────────────────────────────────────────────

func TestConvenienceFactories(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  *errors.AppError
		code errors.ErrorCode
	}{
		{"NotFound", errors.NotFound("x"), errors.ErrCodeNotFound},
		{"InvalidParam", errors.InvalidParam("x"), errors.ErrCodeBadRequest},
		{"InvalidState", errors.InvalidState("x"), errors.ErrCodeConflict},
		{"Internal", errors.Internal("x"), errors.ErrCodeInternal},
		{"InvalidAction", errors.InvalidAction("x"), errors.ErrCodeRecipeInvalidAction},
		{"ForbiddenStructure", errors.ForbiddenStructure("x"), errors.ErrCodeFamilyForbiddenStructure},
		{"UndeterminableKinetics", errors.UndeterminableKinetics("x"), errors.ErrCodeKineticsUndeterminable},
		{"DatabaseConsistency", errors.DatabaseConsistency("x"), errors.ErrCodeFamilyInconsistent},
		{"TemplateMismatch", errors.TemplateMismatch("x"), errors.ErrCodeFamilyTemplateMismatch},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.NotNil(t, tc.err)
			assert.Equal(t, tc.code, tc.err.Code)
			assert.True(t, strings.HasPrefix(tc.err.Error(), "["+tc.code.String()+"]"))
		})
	}
}
