package tokenlab

import (
	"strings"
	"testing"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{
		// signing algorithm
		"alg": "HS384",
		"typ": "JWT", /* trailing comma below */
	}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"alg": "HS384", "typ": "JWT"}, doc)

	_, err = ParseDocument([]byte(`[1, 2]`))
	require.ErrorIs(t, err, errNotObject)

	_, err = ParseDocument([]byte(`{"alg": `))
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	now := time.Unix(1761545381, 0)

	assert.Equal(t, map[string]any{"alg": "HS256", "typ": "JWT"}, DefaultHeader())
	assert.Equal(t, map[string]any{"sub": "123", "name": "nicolas", "iat": int64(1761545381)}, DefaultPayload(now))

	require.NoError(t, ValidateHeader(DefaultHeader()))
	require.NoError(t, ValidatePayload(DefaultPayload(now)))
}

func TestValidateHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  map[string]any
		wantErr bool
		path    string
	}{
		{name: "hs512", header: map[string]any{"alg": "HS512"}},
		{name: "missing alg", header: map[string]any{"typ": "JWT"}, wantErr: true, path: "/"},
		{name: "rs256", header: map[string]any{"alg": "RS256"}, wantErr: true, path: "/alg"},
		{name: "none", header: map[string]any{"alg": "none"}, wantErr: true, path: "/alg"},
		{name: "numeric typ", header: map[string]any{"alg": "HS256", "typ": 1}, wantErr: true, path: "/typ"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateHeader(tt.header)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, "header", schemaErr.Document)
			require.NotEmpty(t, schemaErr.Violations)
			assert.Equal(t, tt.path, schemaErr.Violations[0].Path)
			assert.NotEmpty(t, schemaErr.Violations[0].Message)
		})
	}
}

func TestValidatePayload(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidatePayload(map[string]any{"exp": 1.7e9, "custom": []any{1, "x"}}))

	err := ValidatePayload(map[string]any{"exp": "tomorrow"})
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "/exp", schemaErr.Violations[0].Path)
	assert.Contains(t, err.Error(), "invalid payload")
}

func TestValidatePayload_RegisteredStringClaims(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload map[string]any
		badPath string
	}{
		{name: "string claims", payload: map[string]any{"sub": "123", "iss": "auth", "jti": "abc", "aud": "api"}},
		{name: "audience list", payload: map[string]any{"aud": []any{"api", "web"}}},
		{name: "numeric subject", payload: map[string]any{"sub": 123}, badPath: "/sub"},
		{name: "numeric audience", payload: map[string]any{"aud": 7}, badPath: "/aud"},
		{name: "mixed audience list", payload: map[string]any{"aud": []any{"api", 1}}, badPath: "/aud/1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidatePayload(tt.payload)
			if tt.badPath == "" {
				require.NoError(t, err)
				return
			}

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.badPath, schemaErr.Violations[0].Path)
		})
	}
}

func TestExpiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(2000, 0)

	assert.Nil(t, Expiry(map[string]any{"sub": "x"}, now))
	assert.Nil(t, Expiry(map[string]any{"exp": "soon"}, now))
	assert.Nil(t, Expiry(map[string]any{"exp": float64(0)}, now))

	past := Expiry(map[string]any{"exp": float64(1999)}, now)
	require.NotNil(t, past)
	assert.True(t, past.Expired)
	assert.Equal(t, time.Unix(1999, 0), past.ExpiresAt)

	boundary := Expiry(map[string]any{"exp": float64(2000)}, now)
	require.NotNil(t, boundary)
	assert.False(t, boundary.Expired)

	future := Expiry(map[string]any{"exp": int64(5000)}, now)
	require.NotNil(t, future)
	assert.False(t, future.Expired)
}

func TestCrossCheck(t *testing.T) {
	t.Parallel()

	claims := map[string]any{"sub": "123", "name": "nicolas", "iat": time.Now().Unix()}

	for _, alg := range AllowedAlgorithms {
		alg := alg
		t.Run(alg, func(t *testing.T) {
			t.Parallel()

			token, err := Sign(alg, "s3cret", claims)
			require.NoError(t, err)
			assert.Equal(t, 2, strings.Count(token, "."))

			ok := CrossCheck(token, "s3cret")
			assert.Equal(t, CrossCheckValid, ok.Status, ok.Detail)
			assert.Equal(t, alg, ok.Algorithm)
			assert.True(t, ok.SignatureValid())

			bad := CrossCheck(token, "other")
			assert.Equal(t, CrossCheckInvalidSignature, bad.Status)
			assert.False(t, bad.SignatureValid())
		})
	}
}

func TestCrossCheck_Rejections(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CrossCheckMalformed, CrossCheck("a.b", "k").Status)
	assert.Equal(t, CrossCheckMalformed, CrossCheck("%%%.b.c", "k").Status)
	assert.Equal(t, CrossCheckMalformed, CrossCheck("e30.e30.c", "k").Status)

	rs := CrossCheck("eyJhbGciOiJSUzI1NiJ9.e30.c2ln", "k")
	assert.Equal(t, CrossCheckUnsupported, rs.Status)
	assert.Equal(t, "RS256", rs.Algorithm)

	_, err := Sign("none", "k", map[string]any{})
	require.Error(t, err)
	assert.False(t, IsAlgorithmAllowed("none"))
	assert.True(t, IsAlgorithmAllowed("HS384"))
}

func TestRenderParseTree(t *testing.T) {
	t.Parallel()

	tree := &backend.ParseNode{
		Symbol: "JWT",
		Children: []*backend.ParseNode{
			{Symbol: "HEADER", Value: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9"},
			{Symbol: "DOT", Value: "."},
			{
				Symbol: "PAYLOAD",
				Children: []*backend.ParseNode{
					{Symbol: "CLAIMS"},
				},
			},
		},
	}

	want := "JWT\n" +
		"  HEADER = \"eyJhbGciOiJIUzI1NiIs...\"\n" +
		"  DOT = \"....\"\n" +
		"  PAYLOAD\n" +
		"    CLAIMS\n"

	assert.Equal(t, want, RenderParseTree(tree, 0))
	assert.Equal(t, "  JWT\n", RenderParseTree(&backend.ParseNode{Symbol: "JWT"}, 1))
	assert.Empty(t, RenderParseTree(nil, 0))
}
