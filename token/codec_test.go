package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-auth/token"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newCodec(t *testing.T, options ...token.CodecOption) (*token.Codec, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	options = append([]token.CodecOption{token.WithNowFunc(clk.Now)}, options...)
	return token.New("global-secret", options...), clk
}

func TestCodec_SignVerifyRoundTrip(t *testing.T) {
	codec, clk := newCodec(t, token.WithIssuer("session-auth"), token.WithAudience("api"))

	raw, err := codec.Sign(token.KindAccess, token.Claims{UserID: 42})
	require.NoError(t, err)

	claims, err := codec.Verify(token.KindAccess, raw)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, "session-auth", claims.Issuer)
	require.Equal(t, jwt.ClaimStrings{"api"}, claims.Audience)
	require.Equal(t, token.KindAccess, claims.Use)
	require.NotEmpty(t, claims.ID)
	require.Equal(t, clk.now.Add(token.DefaultAccessExpiry).Unix(), claims.ExpiresAt.Unix())
}

func TestCodec_TokensAreUnique(t *testing.T) {
	codec, _ := newCodec(t)

	first, err := codec.Sign(token.KindRefresh, token.Claims{UserID: 1})
	require.NoError(t, err)
	second, err := codec.Sign(token.KindRefresh, token.Claims{UserID: 1})
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestCodec_DefaultExpiries(t *testing.T) {
	codec, _ := newCodec(t)
	require.Equal(t, 24*time.Hour, codec.Expiry(token.KindAccess))
	require.Equal(t, 365*24*time.Hour, codec.Expiry(token.KindRefresh))
	require.Equal(t, 15*time.Minute, codec.Expiry(token.KindReset))

	codec, _ = newCodec(t, token.WithExpiry(token.KindAccess, time.Hour), token.WithExpiry(token.KindReset, 0))
	require.Equal(t, time.Hour, codec.Expiry(token.KindAccess))
	require.Equal(t, 15*time.Minute, codec.Expiry(token.KindReset))
}

func TestCodec_VerifyFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, codec *token.Codec, clk *clock) (string, []token.CallOption)
	}{
		{
			name: "expired",
			mutate: func(t *testing.T, codec *token.Codec, clk *clock) (string, []token.CallOption) {
				raw, err := codec.Sign(token.KindAccess, token.Claims{UserID: 1})
				require.NoError(t, err)
				clk.Advance(token.DefaultAccessExpiry + time.Second)
				return raw, nil
			},
		},
		{
			name: "wrong secret",
			mutate: func(t *testing.T, codec *token.Codec, _ *clock) (string, []token.CallOption) {
				raw, err := codec.Sign(token.KindAccess, token.Claims{UserID: 1}, token.WithSecret("other"))
				require.NoError(t, err)
				return raw, nil
			},
		},
		{
			name: "tampered signature",
			mutate: func(t *testing.T, codec *token.Codec, _ *clock) (string, []token.CallOption) {
				raw, err := codec.Sign(token.KindAccess, token.Claims{UserID: 1})
				require.NoError(t, err)
				parts := strings.Split(raw, ".")
				parts[2] = strings.Repeat("A", len(parts[2]))
				return strings.Join(parts, "."), nil
			},
		},
		{
			name: "malformed",
			mutate: func(_ *testing.T, _ *token.Codec, _ *clock) (string, []token.CallOption) {
				return "not-a-token", nil
			},
		},
		{
			name: "wrong kind",
			mutate: func(t *testing.T, codec *token.Codec, _ *clock) (string, []token.CallOption) {
				raw, err := codec.Sign(token.KindRefresh, token.Claims{UserID: 1})
				require.NoError(t, err)
				return raw, nil
			},
		},
		{
			name: "unsigned",
			mutate: func(t *testing.T, _ *token.Codec, clk *clock) (string, []token.CallOption) {
				claims := token.Claims{UserID: 1, Use: token.KindAccess}
				claims.ExpiresAt = jwt.NewNumericDate(clk.now.Add(time.Hour))
				raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return raw, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, clk := newCodec(t)
			raw, opts := tt.mutate(t, codec, clk)

			claims, err := codec.Verify(token.KindAccess, raw, opts...)
			require.ErrorIs(t, err, token.ErrTokenInvalid)
			require.Nil(t, claims)
		})
	}
}

func TestCodec_IssuerAndAudienceMismatch(t *testing.T) {
	signer, _ := newCodec(t, token.WithIssuer("someone-else"), token.WithAudience("api"))
	verifier, _ := newCodec(t, token.WithIssuer("session-auth"), token.WithAudience("api"))

	raw, err := signer.Sign(token.KindAccess, token.Claims{UserID: 1})
	require.NoError(t, err)
	_, err = verifier.Verify(token.KindAccess, raw)
	require.ErrorIs(t, err, token.ErrTokenInvalid)

	signer, _ = newCodec(t, token.WithAudience("web"))
	verifier, _ = newCodec(t, token.WithAudience("api"))
	raw, err = signer.Sign(token.KindAccess, token.Claims{UserID: 1})
	require.NoError(t, err)
	_, err = verifier.Verify(token.KindAccess, raw)
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestCodec_PerCallSecretAndExpiry(t *testing.T) {
	codec, clk := newCodec(t)

	raw, err := codec.Sign(token.KindReset, token.Claims{UserID: 5, Email: "a@b.co"},
		token.WithSecret("derived"), token.WithExpiresIn(time.Minute))
	require.NoError(t, err)

	_, err = codec.Verify(token.KindReset, raw)
	require.ErrorIs(t, err, token.ErrTokenInvalid, "global secret must not verify a derived-secret token")

	claims, err := codec.Verify(token.KindReset, raw, token.WithSecret("derived"))
	require.NoError(t, err)
	require.Equal(t, "a@b.co", claims.Email)

	clk.Advance(2 * time.Minute)
	_, err = codec.Verify(token.KindReset, raw, token.WithSecret("derived"))
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}
