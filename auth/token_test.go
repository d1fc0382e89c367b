package auth

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeToken(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))

	return header + "." + body + ".c2lnbmF0dXJl"
}

func TestDecodeSubjectAllPaddingLengths(t *testing.T) {
	// Payload lengths chosen so the unpadded segment needs 0, 2 and 1
	// padding characters; a remainder of 1 is never valid base64.
	payloads := map[string]int64{
		`{"userId":1}`:                    1,
		`{"userId":42,"a":1}`:             42,
		`{"userId":123}`:                  123,
		`{"userId":123456,"role":"user"}`: 123456,
	}

	seen := map[int]bool{}

	for payload, want := range payloads {
		token := makeToken(payload)
		seen[len(strings.Split(token, ".")[1])%4] = true

		got, err := DecodeSubject(token)
		require.NoError(t, err, payload)
		assert.Equal(t, want, got, payload)
	}

	assert.True(t, seen[0], "no payload needing zero padding")
	assert.True(t, seen[2], "no payload needing two padding characters")
	assert.True(t, seen[3], "no payload needing one padding character")
}

func TestDecodeSubjectAlreadyPadded(t *testing.T) {
	body := base64.URLEncoding.EncodeToString([]byte(`{"userId":99}`))
	got, err := DecodeSubject("h." + body + ".s")
	require.NoError(t, err)
	assert.Equal(t, int64(99), got)
}

func TestDecodeSubjectNumericForms(t *testing.T) {
	tests := []struct {
		payload string
		want    int64
	}{
		{`{"userId":5}`, 5},
		{`{"userId":5.0}`, 5},
		{`{"userId":"17"}`, 17},
		{`{"userId":9007199254740993}`, 9007199254740993},
	}

	for _, tt := range tests {
		got, err := DecodeSubject(makeToken(tt.payload))
		require.NoError(t, err, tt.payload)
		assert.Equal(t, tt.want, got, tt.payload)
	}
}

func TestDecodeSubjectErrors(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"two segments", "a.b", "expected 3 segments, got 2"},
		{"four segments", "a.b.c.d", "expected 3 segments, got 4"},
		{"bad base64", "h.!!!!.s", "not base64url"},
		{"not json", makeToken("hello"), "not a JSON object"},
		{"missing claim", makeToken(`{"sub":"1"}`), "missing userId claim"},
		{"fractional", makeToken(`{"userId":1.5}`), "not an integer"},
		{"string", makeToken(`{"userId":"abc"}`), "not an integer"},
		{"bool", makeToken(`{"userId":true}`), "not an integer"},
		{"null", makeToken(`{"userId":null}`), "not an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSubject(tt.token)

			var decErr *TokenDecodeError
			require.ErrorAs(t, err, &decErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
