package errors

// Error codes for splice diagnostics.
//
// Error code ranges:
// E0100-E0199: Mixed-source scanner errors
// E0200-E0299: Tokenization errors
// E0300-E0399: Script execution errors
// E0400-E0499: Configuration and module errors
// E0900-E0999: Internal errors

const (
	// E0100: Escape marker without its terminator
	ErrorUnterminatedEscape = "E0100"

	// E0101: Host delimiters that do not pair up
	ErrorUnbalancedDelimiter = "E0101"

	// E0102: Host token that cannot be lexed
	ErrorMalformedToken = "E0102"

	// E0103: elif/else without a preceding if
	ErrorDanglingClause = "E0103"

	// E0104: Block header that does not parse
	ErrorInvalidHeader = "E0104"

	// E0105: Unterminated string inside scripting code
	ErrorUnterminatedString = "E0105"

	// E0200: Script value that cannot become tokens
	ErrorTokenization = "E0200"

	// E0201: Operands of ~ that do not merge into one token
	ErrorInvalidConcat = "E0201"

	// E0202: Literal value out of range or malformed
	ErrorInvalidLiteral = "E0202"

	// E0203: Group whose body contains itself
	ErrorCyclicGroup = "E0203"

	// E0300: Interpreter raised while running a script run
	ErrorScriptExecution = "E0300"

	// E0301: Scripting code failed to parse
	ErrorScriptSyntax = "E0301"

	// E0302: break/continue/return outside of their construct
	ErrorControlFlow = "E0302"

	// E0303: with target is not a token sequence
	ErrorInvalidWithTarget = "E0303"

	// E0400: Module could not be resolved or loaded
	ErrorImport = "E0400"

	// E0401: Invalid configuration
	ErrorConfig = "E0401"

	// E0900: Invariant violated inside splice itself
	ErrorInternal = "E0900"
)

// GetErrorDescription returns a human-readable description of an error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUnterminatedEscape:
		return "Escape marker is never terminated"
	case ErrorUnbalancedDelimiter:
		return "Host delimiters are not balanced"
	case ErrorMalformedToken:
		return "Host token cannot be lexed"
	case ErrorDanglingClause:
		return "Clause has no preceding if block"
	case ErrorInvalidHeader:
		return "Block header is malformed"
	case ErrorUnterminatedString:
		return "String in scripting code is never closed"
	case ErrorTokenization:
		return "Value cannot be converted to tokens"
	case ErrorInvalidConcat:
		return "Concatenated operands do not form a single token"
	case ErrorInvalidLiteral:
		return "Literal value is invalid for its type"
	case ErrorCyclicGroup:
		return "Group contains itself"
	case ErrorScriptExecution:
		return "Script raised an error"
	case ErrorScriptSyntax:
		return "Scripting code has a syntax error"
	case ErrorControlFlow:
		return "Control flow statement used outside its construct"
	case ErrorInvalidWithTarget:
		return "with target is not a Tokens or Group value"
	case ErrorImport:
		return "Module cannot be imported"
	case ErrorConfig:
		return "Configuration is invalid"
	case ErrorInternal:
		return "Internal error"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the error code represents a warning rather than an error.
// Every splice diagnostic is a hard error.
func IsWarning(code string) bool {
	return code != "" && code[0] == 'W'
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0100" && code < "E0200":
		return "Scanner"
	case code >= "E0200" && code < "E0300":
		return "Tokenization"
	case code >= "E0300" && code < "E0400":
		return "Script Execution"
	case code >= "E0400" && code < "E0500":
		return "Configuration/Module"
	case code >= "E0900" && code < "E1000":
		return "Internal"
	default:
		return "Unknown"
	}
}
