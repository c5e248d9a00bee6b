package client

import (
	"encoding/json"
	"fmt"
)

// MisuseError reports an operation that is illegal for the current state:
// a caller bug, not a server condition. No request is sent when one is raised.
type MisuseError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface. Returns JSON format.
func (e *MisuseError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// FormatError formats the error based on debug mode.
// When debugMode=false: returns simple "CODE: message" format.
// When debugMode=true: returns indented JSON with details.
func (e *MisuseError) FormatError(debugMode bool) string {
	if !debugMode {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	b, _ := json.MarshalIndent(e, "", "  ")
	return string(b)
}

func errTransactionNotOpen(op string, phase Phase) *MisuseError {
	return &MisuseError{
		Code:    "E_TX_NOT_OPEN",
		Type:    "MisuseError",
		Message: fmt.Sprintf("cannot %s a transaction in phase %s", op, phase),
		Details: map[string]interface{}{
			"operation": op,
			"phase":     phase.String(),
		},
	}
}

func errTransactionAlreadyOpen() *MisuseError {
	return &MisuseError{
		Code:    "E_TX_ALREADY_OPEN",
		Type:    "MisuseError",
		Message: "session already holds an open transaction",
	}
}

// DiscoveryError reports that the transaction endpoint could not be resolved
// from the server's metadata after one redirected retry. Fatal for the
// endpoint; a fresh Resolve attempt starts discovery over.
type DiscoveryError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface. Returns JSON format.
func (e *DiscoveryError) Error() string {
	errorData := map[string]interface{}{
		"code":    e.Code,
		"type":    e.Type,
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		errorData["details"] = e.Details
	}
	if e.Cause != nil {
		errorData["cause"] = map[string]interface{}{
			"message": e.Cause.Error(),
		}
	}
	b, _ := json.Marshal(errorData)
	return string(b)
}

// FormatError formats the error based on debug mode.
func (e *DiscoveryError) FormatError(debugMode bool) string {
	if !debugMode {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (caused by: %s)", e.Code, e.Message, e.Cause.Error())
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	b, _ := json.MarshalIndent(e, "", "  ")
	return string(b)
}

// Unwrap returns the underlying cause error.
func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}
