package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/quotagate/quotagate/internal/core/ports"
)

// JWTProvider is the in-process client for the external identity provider:
// it accepts the provider's signed bearer tokens and extracts the opaque
// subject and claims. Token issuance and account authentication live with
// the provider, not here.
type JWTProvider struct {
	secret []byte
	issuer string
	logger *logrus.Logger
}

func NewJWTProvider(secret, issuer string, logger *logrus.Logger) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), issuer: issuer, logger: logger}
}

func (p *JWTProvider) Resolve(ctx context.Context, credential string) (*ports.Subject, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		if p.logger != nil {
			p.logger.WithError(err).Debug("identity token rejected")
		}
		return nil, fmt.Errorf("invalid identity token: %w", err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("identity token has no subject")
	}

	return &ports.Subject{ID: subject, Claims: map[string]any(claims)}, nil
}
