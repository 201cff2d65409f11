package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeBadRequest     ErrorCode = "COMMON_002"
	ErrCodeNotFound       ErrorCode = "COMMON_003"
	ErrCodeConflict       ErrorCode = "COMMON_004"
	ErrCodeTimeout        ErrorCode = "COMMON_005"
	ErrCodeValidation     ErrorCode = "COMMON_006"
	ErrCodeSerialization  ErrorCode = "COMMON_007"
	ErrCodeIOError        ErrorCode = "COMMON_008"
	ErrCodeNotImplemented ErrorCode = "COMMON_009"
)

// Sentinel codes used by chain-inspection helpers.
const (
	CodeOK       = ErrorCode("OK")
	CodeUnknown  = ErrorCode("UNKNOWN")
	CodeInternal = ErrCodeInternal
)

// Structure Module Error Codes
const (
	ErrCodeStructureInvalidAdjacency ErrorCode = "STRUCT_001"
	ErrCodeStructureInvalidAtomType  ErrorCode = "STRUCT_002"
	ErrCodeStructureInvalidBond      ErrorCode = "STRUCT_003"
	ErrCodeStructureLabelMissing     ErrorCode = "STRUCT_004"
	ErrCodeStructureNotAromatic      ErrorCode = "STRUCT_005"
	ErrCodeStructureSplitFailed      ErrorCode = "STRUCT_006"
)

// Recipe Module Error Codes
const (
	ErrCodeRecipeInvalidAction   ErrorCode = "RECIPE_001"
	ErrCodeRecipeUnknownAction   ErrorCode = "RECIPE_002"
	ErrCodeRecipeAmbiguousLabel  ErrorCode = "RECIPE_003"
	ErrCodeRecipeNotReversible   ErrorCode = "RECIPE_004"
)

// Tree Module Error Codes
const (
	ErrCodeEntryNotFound        ErrorCode = "TREE_001"
	ErrCodeEntryDuplicateLabel  ErrorCode = "TREE_002"
	ErrCodeTreeParentMismatch   ErrorCode = "TREE_003"
	ErrCodeTreeExtensionFailed  ErrorCode = "TREE_004"
	ErrCodeTreeSplitUnproductive ErrorCode = "TREE_005"
)

// Family Module Error Codes
const (
	ErrCodeFamilyNotFound           ErrorCode = "FAM_001"
	ErrCodeFamilyLoadFailed         ErrorCode = "FAM_002"
	ErrCodeFamilyTemplateMismatch   ErrorCode = "FAM_003"
	ErrCodeFamilyForbiddenStructure ErrorCode = "FAM_004"
	ErrCodeFamilyInconsistent       ErrorCode = "FAM_005"
	ErrCodeFamilyNotReversible      ErrorCode = "FAM_006"
	ErrCodeFamilyProductMismatch    ErrorCode = "FAM_007"
)

// Rules / Kinetics Module Error Codes
const (
	ErrCodeKineticsUndeterminable ErrorCode = "KIN_001"
	ErrCodeKineticsFitFailed      ErrorCode = "KIN_002"
	ErrCodeKineticsInvalidRank    ErrorCode = "KIN_003"
	ErrCodeRuleMissingProvenance  ErrorCode = "KIN_004"
)

// Config Module Error Codes
const (
	ErrCodeConfigLoadFailed ErrorCode = "CFG_001"
	ErrCodeConfigInvalid    ErrorCode = "CFG_002"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:       "internal error",
	ErrCodeBadRequest:     "bad request",
	ErrCodeNotFound:       "resource not found",
	ErrCodeConflict:       "resource conflict",
	ErrCodeTimeout:        "operation timed out",
	ErrCodeValidation:     "validation failed",
	ErrCodeSerialization:  "serialization failed",
	ErrCodeIOError:        "I/O error",
	ErrCodeNotImplemented: "not implemented",

	ErrCodeStructureInvalidAdjacency: "invalid adjacency list",
	ErrCodeStructureInvalidAtomType:  "unknown atom type",
	ErrCodeStructureInvalidBond:      "invalid bond specification",
	ErrCodeStructureLabelMissing:     "labeled atom not found",
	ErrCodeStructureNotAromatic:      "structure cannot be kekulized",
	ErrCodeStructureSplitFailed:      "failed to split structure into components",

	ErrCodeRecipeInvalidAction:  "recipe action cannot be applied",
	ErrCodeRecipeUnknownAction:  "unknown recipe action",
	ErrCodeRecipeAmbiguousLabel: "label matches more than two atoms",
	ErrCodeRecipeNotReversible:  "recipe action has no structural reverse",

	ErrCodeEntryNotFound:         "tree entry not found",
	ErrCodeEntryDuplicateLabel:   "tree entry label already exists",
	ErrCodeTreeParentMismatch:    "child group is not a subgraph of its parent",
	ErrCodeTreeExtensionFailed:   "no valid extension found for node",
	ErrCodeTreeSplitUnproductive: "extension does not split the reaction set",

	ErrCodeFamilyNotFound:           "reaction family not found",
	ErrCodeFamilyLoadFailed:         "failed to load reaction family",
	ErrCodeFamilyTemplateMismatch:   "reactants do not match family template",
	ErrCodeFamilyForbiddenStructure: "structure matches a forbidden pattern",
	ErrCodeFamilyInconsistent:       "family database consistency violation",
	ErrCodeFamilyNotReversible:      "family has no reverse direction",
	ErrCodeFamilyProductMismatch:    "generated products do not match expectations",

	ErrCodeKineticsUndeterminable: "kinetics could not be determined",
	ErrCodeKineticsFitFailed:      "kinetics fit failed",
	ErrCodeKineticsInvalidRank:    "invalid kinetics rank",
	ErrCodeRuleMissingProvenance:  "rate rule has no provenance record",

	ErrCodeConfigLoadFailed: "failed to load configuration",
	ErrCodeConfigInvalid:    "invalid configuration",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsSoftCode reports whether the code represents a condition that reaction
// generation treats as a silent decline rather than a hard failure.  Forbidden
// products and template mismatches fall in this category; callers skip the
// candidate and continue.
func IsSoftCode(code ErrorCode) bool {
	switch code {
	case ErrCodeFamilyForbiddenStructure, ErrCodeFamilyTemplateMismatch, ErrCodeKineticsUndeterminable:
		return true
	}
	return false
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
