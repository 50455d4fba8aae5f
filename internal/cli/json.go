package cli

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	fwerrors "github.com/rileyhilliard/fleetwatch/internal/errors"
	"gopkg.in/yaml.v3"
)

// Machine mode flag - when true, errors are written as JSON envelopes on
// stdout instead of human-friendly text on stderr.
var machineMode bool

// MachineMode returns true if machine-readable output is enabled
func MachineMode() bool {
	return machineMode
}

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --format json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string `json:"code" yaml:"code"`
	Message    string `json:"message" yaml:"message"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound     = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid      = "CONFIG_INVALID"
	ErrCodeInvalidArgument    = "INVALID_ARGUMENT"
	ErrCodeHostNotFound       = "HOST_NOT_FOUND"
	ErrCodeServiceUnreachable = "SERVICE_UNREACHABLE"
	ErrCodeRequestTimeout     = "REQUEST_TIMEOUT"
	ErrCodeBadResponse        = "BAD_RESPONSE"
	ErrCodeServiceError       = "SERVICE_ERROR"
	ErrCodeUnknown            = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: true,
		Data:    data,
	})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: false,
		Error:   ErrorToJSON(err),
	})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var fwErr *fwerrors.Error
	if errors.As(err, &fwErr) {
		return &JSONError{
			Code:       mapErrorCode(fwErr.Code, fwErr.Message),
			Message:    fwErr.Short(),
			Suggestion: fwErr.Suggestion,
		}
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	switch internalCode {
	case fwerrors.ErrConfig:
		// Distinguish between not found and invalid
		msgLower := strings.ToLower(message)
		if strings.Contains(msgLower, "not found") || strings.Contains(msgLower, "couldn't find") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case fwerrors.ErrUsage:
		return ErrCodeInvalidArgument
	case fwerrors.ErrNotFound:
		return ErrCodeHostNotFound
	case fwerrors.ErrNetwork:
		return ErrCodeServiceUnreachable
	case fwerrors.ErrTimeout:
		return ErrCodeRequestTimeout
	case fwerrors.ErrDecode:
		return ErrCodeBadResponse
	case fwerrors.ErrServer:
		return ErrCodeServiceError
	}

	return ErrCodeUnknown
}

// writeFormatted writes data as a JSON envelope or a YAML document, or calls
// text for the human-readable form.
func writeFormatted(w io.Writer, format string, data interface{}, text func(io.Writer) error) error {
	switch format {
	case "json":
		return WriteJSONSuccess(w, data)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}
