package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/pkg/mylogger"
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"go.uber.org/zap"
)

type Provider interface {
	VerifyToken(ctx context.Context, token string) (string, error)
	UpdateAddress(ctx context.Context, userID string, address domain.Address) error
}

type clerkProvider struct {
	users  *user.Client
	logger *zap.Logger
}

func NewClerkProvider(secretKey string, logger *zap.Logger) Provider {
	// jwt.Verify resolves signing keys through the global backend.
	clerk.SetKey(secretKey)

	config := &clerk.ClientConfig{}
	config.Key = clerk.String(secretKey)

	return &clerkProvider{
		users:  user.NewClient(config),
		logger: logger,
	}
}

func (p *clerkProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	return claims.Subject, nil
}

// UpdateAddress persists the address into the user's public metadata.
func (p *clerkProvider) UpdateAddress(ctx context.Context, userID string, address domain.Address) error {
	raw, err := json.Marshal(map[string]domain.Address{"address": address})
	if err != nil {
		return fmt.Errorf("failed to marshal address: %w", err)
	}

	metadata := json.RawMessage(raw)
	if _, err := p.users.UpdateMetadata(ctx, userID, &user.UpdateMetadataParams{
		PublicMetadata: &metadata,
	}); err != nil {
		mylogger.Error(
			ctx,
			p.logger,
			"Error updating address",
			zap.String("user_id", userID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to update address: %w", err)
	}

	mylogger.Info(
		ctx,
		p.logger,
		"Address updated",
		zap.String("user_id", userID),
	)

	return nil
}
