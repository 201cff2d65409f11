package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
	assert.Equal(t, "KIN_001", ErrCodeKineticsUndeterminable.String())
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "kinetics could not be determined", DefaultMessageForCode(ErrCodeKineticsUndeterminable))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN_999")))
}

func TestIsSoftCode(t *testing.T) {
	assert.True(t, IsSoftCode(ErrCodeFamilyForbiddenStructure))
	assert.True(t, IsSoftCode(ErrCodeFamilyTemplateMismatch))
	assert.True(t, IsSoftCode(ErrCodeKineticsUndeterminable))
	assert.False(t, IsSoftCode(ErrCodeInternal))
	assert.False(t, IsSoftCode(ErrCodeFamilyInconsistent))
}

func TestModuleForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrCodeInternal, "COMMON"},
		{ErrCodeRecipeInvalidAction, "RECIPE"},
		{ErrCodeEntryNotFound, "TREE"},
		{ErrCodeFamilyLoadFailed, "FAM"},
		{ErrCodeKineticsFitFailed, "KIN"},
		{ErrorCode(""), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ModuleForCode(tt.code))
	}
}
