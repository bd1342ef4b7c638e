package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultAccessExpiry  = 24 * time.Hour
	DefaultRefreshExpiry = 365 * 24 * time.Hour
	DefaultResetExpiry   = 15 * time.Minute
)

// Codec signs and verifies tokens. It holds no mutable state and performs no I/O.
type Codec struct {
	signer   Signer
	issuer   string
	audience string
	expiries map[Kind]time.Duration
	nowFunc  func() time.Time
}

type CodecOption func(*Codec)

func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func WithAudience(audience string) CodecOption {
	return func(c *Codec) {
		c.audience = audience
	}
}

// WithExpiry overrides the default lifetime for one kind of token. Non-positive values are ignored.
func WithExpiry(kind Kind, d time.Duration) CodecOption {
	return func(c *Codec) {
		if d > 0 {
			c.expiries[kind] = d
		}
	}
}

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// New creates a Codec that signs with the given global secret.
func New(secret string, options ...CodecOption) *Codec {
	c := &Codec{
		signer: NewHMACSigner(secret),
		expiries: map[Kind]time.Duration{
			KindAccess:  DefaultAccessExpiry,
			KindRefresh: DefaultRefreshExpiry,
			KindReset:   DefaultResetExpiry,
		},
	}

	for _, opt := range options {
		opt(c)
	}

	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c
}

type callOptions struct {
	signer    Signer
	expiresIn time.Duration
}

// CallOption adjusts a single Sign or Verify call.
type CallOption func(*callOptions)

// WithSecret signs or verifies with secret instead of the global one.
func WithSecret(secret string) CallOption {
	return func(o *callOptions) {
		o.signer = NewHMACSigner(secret)
	}
}

// WithExpiresIn sets the lifetime of a single token.
func WithExpiresIn(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.expiresIn = d
	}
}

func (c *Codec) resolve(kind Kind, opts []CallOption) callOptions {
	o := callOptions{
		signer:    c.signer,
		expiresIn: c.expiries[kind],
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Expiry returns the configured lifetime for kind.
func (c *Codec) Expiry(kind Kind) time.Duration {
	return c.expiries[kind]
}

// Sign fills in the registered claims and returns the signed token.
func (c *Codec) Sign(kind Kind, claims Claims, opts ...CallOption) (string, error) {
	o := c.resolve(kind, opts)
	if o.expiresIn <= 0 {
		return "", errors.Errorf("[Codec.Sign] no expiry configured for %q tokens", kind)
	}

	now := c.nowFunc()
	claims.Use = kind
	claims.Subject = strconv.FormatInt(claims.UserID, 10)
	claims.ID = uuid.New().String()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(o.expiresIn))
	if c.issuer != "" {
		claims.Issuer = c.issuer
	}
	if c.audience != "" {
		claims.Audience = jwt.ClaimStrings{c.audience}
	}

	signed, err := o.signer.Sign(&claims)
	if err != nil {
		return "", errors.Wrapf(err, "[Codec.Sign] %s token", kind)
	}
	return signed, nil
}

// Verify parses raw and checks its signature, issuer, audience, expiry and kind.
// Every failure wraps ErrTokenInvalid.
func (c *Codec) Verify(kind Kind, raw string, opts ...CallOption) (*Claims, error) {
	o := c.resolve(kind, opts)

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{o.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.nowFunc),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(c.audience))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(raw, claims, o.signer.GetVerificationKey, parserOpts...); err != nil {
		return nil, errors.Wrap(ErrTokenInvalid, err.Error())
	}
	if claims.Use != kind {
		return nil, errors.Wrapf(ErrTokenInvalid, "expected %s token, got %q", kind, claims.Use)
	}
	return claims, nil
}
