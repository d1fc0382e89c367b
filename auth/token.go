package auth

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SubjectClaim is the claim holding the numeric user id.
const SubjectClaim = "userId"

// TokenDecodeError reports a token whose shape or claims cannot be read.
type TokenDecodeError struct {
	Reason string
	Err    error
}

func (e *TokenDecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode token: %s: %v", e.Reason, e.Err)
	}

	return "decode token: " + e.Reason
}

func (e *TokenDecodeError) Unwrap() error { return e.Err }

// DecodeSubject reads the userId claim from the payload segment of a JWT.
//
// The signature is NOT verified. This is only sound for a token that was
// just returned by the login call of the candidate being benchmarked, in
// this process. Never use it to trust a token from anywhere else.
func DecodeSubject(token string) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, &TokenDecodeError{
			Reason: fmt.Sprintf("expected 3 segments, got %d", len(parts)),
		}
	}

	payload := parts[1]
	if pad := len(payload) % 4; pad != 0 {
		payload += strings.Repeat("=", 4-pad)
	}

	raw, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return 0, &TokenDecodeError{Reason: "payload is not base64url", Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var claims map[string]any
	if err := dec.Decode(&claims); err != nil {
		return 0, &TokenDecodeError{Reason: "payload is not a JSON object", Err: err}
	}

	value, ok := claims[SubjectClaim]
	if !ok {
		return 0, &TokenDecodeError{Reason: "missing " + SubjectClaim + " claim"}
	}

	id, err := subjectID(value)
	if err != nil {
		return 0, &TokenDecodeError{Reason: SubjectClaim + " claim is not an integer", Err: err}
	}

	return id, nil
}

func subjectID(value any) (int64, error) {
	switch v := value.(type) {
	case json.Number:
		if id, err := v.Int64(); err == nil {
			return id, nil
		}

		// 42.0 is still an integral id.
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}

		if f != float64(int64(f)) {
			return 0, fmt.Errorf("%s has a fractional part", v)
		}

		return int64(f), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, errors.New("unsupported claim type")
	}
}
