package repository

import (
	"context"

	"schedcore/internal/infra/db"
	"schedcore/internal/usecase/shared"
)

type CredentialRepository struct {
	db db.DBTX
}

func NewCredentialRepository(dbtx db.DBTX) *CredentialRepository {
	return &CredentialRepository{db: dbtx}
}

func (r *CredentialRepository) FindByID(ctx context.Context, id int64) (*shared.Credential, error) {
	var c shared.Credential
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, type, access_token, refresh_token, expiry
		 FROM credentials WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserID, &c.Type, &c.AccessToken, &c.RefreshToken, &c.Expiry)
	if err != nil {
		return nil, classifyErr("failed to find credential", err)
	}
	return &c, nil
}

// FindForUser returns the user's calendar credential for the given provider
// type, preferring the most recently created grant.
func (r *CredentialRepository) FindForUser(ctx context.Context, userID int64, credType string) (*shared.Credential, error) {
	var c shared.Credential
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, type, access_token, refresh_token, expiry
		 FROM credentials WHERE user_id = $1 AND type = $2
		 ORDER BY id DESC LIMIT 1`, userID, credType,
	).Scan(&c.ID, &c.UserID, &c.Type, &c.AccessToken, &c.RefreshToken, &c.Expiry)
	if err != nil {
		return nil, classifyErr("failed to find credential for user", err)
	}
	return &c, nil
}

// SaveTokens persists a refreshed token pair so later calls skip the refresh
// round trip.
func (r *CredentialRepository) SaveTokens(ctx context.Context, c *shared.Credential) error {
	_, err := r.db.Exec(ctx,
		`UPDATE credentials SET access_token = $2, refresh_token = $3, expiry = $4 WHERE id = $1`,
		c.ID, c.AccessToken, c.RefreshToken, c.Expiry)
	if err != nil {
		return classifyErr("failed to save credential tokens", err)
	}
	return nil
}
