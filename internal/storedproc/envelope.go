package storedproc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
)

// Envelope is the decoded result of one procedure call. ErrorCode 0 is
// success; Data is only set on success.
type Envelope[T any] struct {
	Procedure string `json:"-"`
	ErrorCode int    `json:"errorCode"`
	Data      *T     `json:"data"`

	// Cause keeps the transport or decoding error behind a 500 for logging.
	Cause error `json:"-"`
}

// OK reports whether the procedure succeeded.
func (e Envelope[T]) OK() bool { return e.ErrorCode == apperr.CodeOK }

// Kind classifies a failed envelope.
func (e Envelope[T]) Kind() apperr.Kind { return apperr.FromCode(e.ErrorCode) }

// Unwrap converts the envelope into a value or a classified error. subject
// names the resource in caller-facing messages ("order", "inventory item").
// A successful envelope without data is a contract violation.
func (e Envelope[T]) Unwrap(subject string) (T, error) {
	var zero T
	if !e.OK() {
		return zero, e.failure(subject)
	}
	if e.Data == nil {
		return zero, apperr.Internal(e.Procedure, fmt.Errorf("%s: success without data", e.Procedure))
	}
	return *e.Data, nil
}

// Err returns nil for a successful envelope and the classified failure
// otherwise. Data is not required.
func (e Envelope[T]) Err(subject string) error {
	if e.OK() {
		return nil
	}
	return e.failure(subject)
}

func (e Envelope[T]) failure(subject string) *apperr.Error {
	switch kind := e.Kind(); kind {
	case apperr.KindNotFound:
		return apperr.NotFound(e.Procedure, subject+" not found")
	case apperr.KindConflict:
		return apperr.Conflict(e.Procedure, subject+" conflicts with its current state")
	case apperr.KindForbidden:
		return apperr.Forbidden(e.Procedure, "access to "+subject+" denied")
	case apperr.KindUnauthenticated:
		return apperr.Unauthenticated(e.Procedure, "authentication required")
	case apperr.KindValidationFailed:
		return apperr.Validation(e.Procedure, "invalid "+subject)
	default:
		cause := e.Cause
		if cause == nil {
			cause = fmt.Errorf("%s returned error code %d", e.Procedure, e.ErrorCode)
		}
		return apperr.Internal(e.Procedure, cause)
	}
}

// Failed builds a failed envelope of another payload type, for returning an
// upstream failure unchanged.
func Failed[T, U any](e Envelope[U]) Envelope[T] {
	return Envelope[T]{Procedure: e.Procedure, ErrorCode: e.ErrorCode, Cause: e.Cause}
}

// Check runs validate over the data of a successful envelope. A violation
// means the procedure broke its contract and becomes a 500.
func Check[T any](e Envelope[T], validate func(T) error) Envelope[T] {
	if !e.OK() || e.Data == nil {
		return e
	}
	if err := validate(*e.Data); err != nil {
		return Internal[T](e.Procedure, fmt.Errorf("%s: %w", e.Procedure, err))
	}
	return e
}

// Internal builds a 500 envelope.
func Internal[T any](procedure string, cause error) Envelope[T] {
	return Envelope[T]{Procedure: procedure, ErrorCode: apperr.CodeInternal, Cause: cause}
}

// rawEnvelope reads the result row with normalised field names: errorCode,
// ErrorCode, error_code and ERRORCODE are the same field. A row that spells
// one field twice is rejected.
type rawEnvelope struct {
	code    *int
	data    []byte
	hasData bool
}

func (r *rawEnvelope) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("result row is not an object: %w", err)
	}

	seen := make(map[string]string, 2)
	for key, value := range fields {
		name := normalizeKey(key)
		if name != "errorcode" && name != "data" {
			continue
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("ambiguous result row: %q and %q name the same field", other, key)
		}
		seen[name] = key

		switch name {
		case "errorcode":
			code, err := parseCode(value)
			if err != nil {
				return err
			}
			r.code = code
		case "data":
			data, err := unwrapData(value)
			if err != nil {
				return err
			}
			r.data, r.hasData = data, data != nil
		}
	}
	return nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", ""))
}

func parseCode(value json.RawMessage) (*int, error) {
	var v any
	if err := json.Unmarshal(value, &v); err != nil {
		return nil, fmt.Errorf("decode error code: %w", err)
	}

	switch c := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if c != math.Trunc(c) || math.Abs(c) > math.MaxInt32 {
			return nil, fmt.Errorf("error code %v is not an integer", c)
		}
		code := int(c)
		return &code, nil
	case string:
		code, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("decode error code %q: %w", c, err)
		}
		return &code, nil
	default:
		return nil, fmt.Errorf("unexpected error code type %T", v)
	}
}

// unwrapData returns the JSON document carried by the data field. Procedures
// that build their payload as text hand it over as a JSON string, which is
// unquoted here.
func unwrapData(value json.RawMessage) ([]byte, error) {
	trimmed := strings.TrimSpace(string(value))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if trimmed[0] != '"' {
		return []byte(trimmed), nil
	}

	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return nil, fmt.Errorf("decode data text: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" || text == "null" {
		return nil, nil
	}
	return []byte(text), nil
}

// decode turns a raw result row into an envelope. Any decoding problem is a
// 500 envelope.
func decode[T any](procedure string, row []byte) Envelope[T] {
	env := Envelope[T]{Procedure: procedure}

	if len(row) == 0 || string(row) == "null" {
		return Internal[T](procedure, fmt.Errorf("%s: empty result row", procedure))
	}

	var raw rawEnvelope
	if err := json.Unmarshal(row, &raw); err != nil {
		return Internal[T](procedure, fmt.Errorf("%s: %w", procedure, err))
	}
	if raw.code == nil {
		return Internal[T](procedure, fmt.Errorf("%s: result row has no error code", procedure))
	}

	env.ErrorCode = *raw.code
	if env.ErrorCode != apperr.CodeOK || !raw.hasData {
		return env
	}

	var data T
	if err := json.Unmarshal(raw.data, &data); err != nil {
		return Internal[T](procedure, fmt.Errorf("%s: decode data: %w", procedure, err))
	}
	env.Data = &data
	return env
}
