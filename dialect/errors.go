package dialect

import "fmt"

// ErrorKind is the closed set of compile-time failure modes.
type ErrorKind int

const (
	UnsupportedNode ErrorKind = iota
	UnsupportedOperation
	FeatureUnsupported
	InvalidSetOperation
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedNode:
		return "UnsupportedNode"
	case UnsupportedOperation:
		return "UnsupportedOperation"
	case FeatureUnsupported:
		return "FeatureUnsupported"
	case InvalidSetOperation:
		return "InvalidSetOperation"
	default:
		return "Unknown"
	}
}

// CompileError reports why the AST could not be compiled for the requested
// dialect.
type CompileError struct {
	Kind    ErrorKind
	Feature string
	Message string
}

func (e *CompileError) Error() string {
	if e.Feature != "" {
		return fmt.Sprintf("compile: %s(%s): %s", e.Kind, e.Feature, e.Message)
	}
	return fmt.Sprintf("compile: %s: %s", e.Kind, e.Message)
}

func errUnsupportedNode(message string) error {
	return &CompileError{Kind: UnsupportedNode, Message: message}
}

func errFeatureUnsupported(feature string) error {
	return &CompileError{Kind: FeatureUnsupported, Feature: feature, Message: feature + " is not supported by this dialect"}
}

func errInvalidSetOperation(message string) error {
	return &CompileError{Kind: InvalidSetOperation, Message: message}
}
