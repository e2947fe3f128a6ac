package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare array", in: `[{"id":1}]`, want: `[{"id":1}]`},
		{name: "envelope with array", in: `{"data":[{"id":1}]}`, want: `[{"id":1}]`},
		{name: "envelope with object and message", in: `{"data":{"id":1},"message":"ok"}`, want: `{"id":1}`},
		{name: "ad hoc object", in: `{"token":"t","user":{"id":1}}`, want: `{"token":"t","user":{"id":1}}`},
		{name: "null data keeps envelope", in: `{"data":null,"message":"empty"}`, want: `{"data":null,"message":"empty"}`},
		{name: "falsy but present data unwraps", in: `{"data":0}`, want: `0`},
		{name: "scalar", in: `"pong"`, want: `"pong"`},
		{name: "leading whitespace", in: "  \n{\"data\":[]}", want: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(Normalize(json.RawMessage(tt.in))))
		})
	}
}

func TestAPIMessage(t *testing.T) {
	assert.Equal(t, "bad email", apiMessage([]byte(`{"message":"bad email","error":"x"}`)))
	assert.Equal(t, "invalid credentials", apiMessage([]byte(`{"error":"invalid credentials"}`)))
	assert.Equal(t, "", apiMessage([]byte(`{"error":{"code":1}}`)))
	assert.Equal(t, "", apiMessage([]byte(`<html>`)))
}

func TestIsJSON(t *testing.T) {
	assert.True(t, isJSON("application/json"))
	assert.True(t, isJSON("application/json; charset=utf-8"))
	assert.True(t, isJSON("application/problem+json"))
	assert.False(t, isJSON("text/html; charset=utf-8"))
	assert.False(t, isJSON(""))
}

func TestRequestError_Is(t *testing.T) {
	err := &RequestError{Kind: KindAPI, Method: "GET", Path: "/users", Status: 401, Message: "expired"}

	assert.ErrorIs(t, err, ErrAPI)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 401, Status(err))
	assert.Equal(t, "expired", Message(err))
	assert.Equal(t, "GET /users: 401: expired", err.Error())

	ct := &RequestError{Kind: KindUnexpectedContentType, Method: "GET", Path: "/", ContentType: "text/html"}
	assert.ErrorIs(t, ct, ErrUnexpectedContentType)
	assert.Equal(t, 0, Status(ct))
	assert.Contains(t, ct.Error(), `expected JSON response but got "text/html"`)
}
