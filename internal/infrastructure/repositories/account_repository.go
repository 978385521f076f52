package repositories

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/quotagate/quotagate/internal/core/domain/security"
	"github.com/quotagate/quotagate/internal/core/ports"
	"github.com/quotagate/quotagate/internal/infrastructure/db"
)

type accountRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewAccountRepository creates the Postgres-backed account lookup used by
// the security context resolver.
func NewAccountRepository(database *db.Database, logger *logrus.Logger) ports.AccountRepository {
	return &accountRepository{db: database, logger: logger}
}

func (r *accountRepository) GetBySubject(ctx context.Context, subject string) (*security.Account, error) {
	var account security.Account
	err := r.db.DB.GetContext(ctx, &account, `
		SELECT id, subject, tenant_id, role, active, created_at, updated_at
		FROM accounts WHERE subject = $1`, subject)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if r.logger != nil {
			r.logger.WithField("subject", subject).WithError(err).Error("db: failed to load account")
		}
		return nil, err
	}
	return &account, nil
}
