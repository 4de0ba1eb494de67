package diag

// Error code constants organized by phase, per spec §6's namespacing:
// S0xx general semantic, S02x type checks, S04x statement checks, S05x
// module errors, LDRxxx loader/module-graph errors.
const (
	// ============================================================================
	// General semantic errors (S0xx)
	// ============================================================================

	UndefinedVariable      = "S001" // UNDEFINED_VARIABLE
	DuplicateDeclaration   = "S002"
	InvalidAssignmentTarget = "S003" // INVALID_ASSIGNMENT_TARGET
	InvalidOperand         = "S004" // INVALID_OPERAND

	// ============================================================================
	// Type checking errors (S02x)
	// ============================================================================

	TypeMismatch            = "S020" // TYPE_MISMATCH
	NumericOverflow         = "S021" // NUMERIC_OVERFLOW
	ArrayElementTypeMismatch = "S022" // ARRAY_ELEMENT_TYPE_MISMATCH
	EmptyArrayNoType        = "S023" // EMPTY_ARRAY_NO_TYPE
	InvalidConditionType    = "S024" // INVALID_CONDITION_TYPE
	ReturnTypeMismatch      = "S025" // RETURN_TYPE_MISMATCH
	ReturnValueInVoid       = "S026" // RETURN_VALUE_IN_VOID
	MissingReturnValue      = "S027" // MISSING_RETURN_VALUE
	ForRangeTypeMismatch    = "S028" // FOR_RANGE_TYPE_MISMATCH
	ForStepInvalid          = "S029" // FOR_STEP_INVALID
	SwitchCaseTypeMismatch  = "S02A" // SWITCH_CASE_TYPE_MISMATCH
	DuplicateSwitchCase     = "S02B" // DUPLICATE_SWITCH_CASE
	InvalidMemberAccess     = "S02C"
	InvalidIndexBase        = "S02D"
	ArgumentCountMismatch   = "S02E"
	ArgumentTypeMismatch    = "S02F"
	ConstAssignment         = "S02G" // storing to a const

	// ============================================================================
	// Statement checks (S04x)
	// ============================================================================

	BreakOutsideLoop    = "S040" // BREAK_OUTSIDE_LOOP
	ContinueOutsideLoop = "S041" // CONTINUE_OUTSIDE_LOOP

	// ============================================================================
	// Module errors (S05x)
	// ============================================================================

	DuplicateModule    = "S050" // DUPLICATE_MODULE
	MissingFromClause  = "S051" // MISSING_FROM_CLAUSE
	EmptyImportList    = "S052" // EMPTY_IMPORT_LIST

	// ============================================================================
	// Recursion / SFA errors
	// ============================================================================

	DirectRecursion   = "R001" // DIRECT_RECURSION
	MutualRecursion   = "R002" // MUTUAL_RECURSION
	IndirectRecursion = "R003" // INDIRECT_RECURSION
	SFAFrameOverflow  = "R004" // warning: SFA budget exceeded (SPEC_FULL supplement)

	// ============================================================================
	// Module / dependency graph errors (LDRxxx)
	// ============================================================================

	ModuleNotFound        = "LDR001"
	CircularDependency    = "LDR002"
	DuplicateModuleRegistration = "LDR003"

	// ============================================================================
	// Code generation / assembly warnings
	// ============================================================================

	ZPOverflow   = "G001" // zero-page budget exceeded
	RAMOverflow  = "G002" // static RAM budget exceeded
	ACMEFailed   = "G003" // external assembler exited non-zero
)

// Info provides human-readable metadata about an error code.
type Info struct {
	Code        string
	Phase       string
	Description string
}

// Registry maps every Blend65 diagnostic code to its metadata.
var Registry = map[string]Info{
	UndefinedVariable:       {UndefinedVariable, "semantic", "Reference to an undeclared identifier"},
	DuplicateDeclaration:    {DuplicateDeclaration, "semantic", "Name already declared in this scope"},
	InvalidAssignmentTarget: {InvalidAssignmentTarget, "semantic", "Left-hand side of assignment is not an lvalue"},
	InvalidOperand:          {InvalidOperand, "semantic", "Operand type is not valid for this operator"},

	TypeMismatch:             {TypeMismatch, "typecheck", "Value type is not assignable to the expected type"},
	NumericOverflow:          {NumericOverflow, "typecheck", "Literal value does not fit in its inferred or annotated type"},
	ArrayElementTypeMismatch: {ArrayElementTypeMismatch, "typecheck", "Array literal elements do not share a common type"},
	EmptyArrayNoType:         {EmptyArrayNoType, "typecheck", "Empty array literal has no element type annotation"},
	InvalidConditionType:     {InvalidConditionType, "typecheck", "Condition is not bool or numeric"},
	ReturnTypeMismatch:       {ReturnTypeMismatch, "typecheck", "Returned value is not assignable to the function's return type"},
	ReturnValueInVoid:        {ReturnValueInVoid, "typecheck", "Void function returns a value"},
	MissingReturnValue:       {MissingReturnValue, "typecheck", "Non-void function returns with no value"},
	ForRangeTypeMismatch:     {ForRangeTypeMismatch, "typecheck", "For-loop start/end bound is not numeric"},
	ForStepInvalid:           {ForStepInvalid, "typecheck", "For-loop step is not numeric"},
	SwitchCaseTypeMismatch:   {SwitchCaseTypeMismatch, "typecheck", "Switch/match case value is not assignable to the subject type"},
	DuplicateSwitchCase:      {DuplicateSwitchCase, "typecheck", "Duplicate case value in switch/match"},
	InvalidMemberAccess:      {InvalidMemberAccess, "typecheck", "Member access used on a non-@map symbol or unknown field"},
	InvalidIndexBase:         {InvalidIndexBase, "typecheck", "Index access base is not an array"},
	ArgumentCountMismatch:    {ArgumentCountMismatch, "typecheck", "Call argument count does not match the function signature"},
	ArgumentTypeMismatch:     {ArgumentTypeMismatch, "typecheck", "Call argument is not assignable to the corresponding parameter"},
	ConstAssignment:          {ConstAssignment, "typecheck", "Assignment target is declared const"},

	BreakOutsideLoop:    {BreakOutsideLoop, "statement", "break used outside a loop or switch"},
	ContinueOutsideLoop: {ContinueOutsideLoop, "statement", "continue used outside a loop"},

	DuplicateModule:   {DuplicateModule, "module", "Module declared more than once"},
	MissingFromClause: {MissingFromClause, "module", "Import missing a from clause"},
	EmptyImportList:   {EmptyImportList, "module", "Import declares no symbols"},

	DirectRecursion:   {DirectRecursion, "recursion", "Function calls itself directly"},
	MutualRecursion:   {MutualRecursion, "recursion", "Two functions call each other"},
	IndirectRecursion: {IndirectRecursion, "recursion", "A longer call cycle exists among functions"},
	SFAFrameOverflow:  {SFAFrameOverflow, "recursion", "Static frame usage along the deepest call chain exceeds the configured budget"},

	ModuleNotFound:              {ModuleNotFound, "loader", "Referenced module was never registered"},
	CircularDependency:          {CircularDependency, "loader", "Module import graph contains a cycle"},
	DuplicateModuleRegistration: {DuplicateModuleRegistration, "loader", "Module name registered more than once"},

	ZPOverflow: {ZPOverflow, "codegen", "Zero-page globals exceed the reserved slot range"},
	RAMOverflow: {RAMOverflow, "codegen", "Statically allocated RAM exceeds the configured budget"},
	ACMEFailed: {ACMEFailed, "codegen", "External ACME assembler process exited non-zero"},
}

// GetInfo returns metadata about a diagnostic code.
func GetInfo(code string) (Info, bool) {
	info, ok := Registry[code]
	return info, ok
}
