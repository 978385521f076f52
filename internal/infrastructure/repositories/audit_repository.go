package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quotagate/quotagate/internal/core/domain/audit"
	"github.com/quotagate/quotagate/internal/core/ports"
	"github.com/quotagate/quotagate/internal/infrastructure/db"
)

type auditRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewAuditRepository creates a new instance of AuditRepository.
func NewAuditRepository(database *db.Database, logger *logrus.Logger) ports.AuditRepository {
	return &auditRepository{db: database, logger: logger}
}

// Create inserts a new audit record. Records are write-once; nothing in this
// layer ever updates or deletes them.
func (r *auditRepository) Create(ctx context.Context, rec *audit.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	var detailsJSON []byte
	var err error
	if rec.Details != nil {
		detailsJSON, err = json.Marshal(rec.Details)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_records (
			id, tenant_id, user_id, identity_key, operation, allowed,
			reason, tokens_remaining, ip_address, details, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err = r.db.DB.ExecContext(ctx, query,
		rec.ID,
		rec.TenantID,
		rec.UserID,
		rec.IdentityKey,
		rec.Operation,
		rec.Allowed,
		rec.Reason,
		rec.TokensRemaining,
		rec.IPAddress,
		detailsJSON,
		rec.Timestamp,
	)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"operation": rec.Operation, "allowed": rec.Allowed}).WithError(err).Error("db: failed to insert audit record")
		}
		return err
	}
	return nil
}

// List retrieves audit records based on the provided filter.
func (r *auditRepository) List(ctx context.Context, filter *audit.Filter) ([]*audit.Record, error) {
	query, args := r.buildListQuery(filter, false)
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"query": query}).WithError(err).Error("db: failed to execute audit list query")
		}
		return nil, err
	}
	defer rows.Close()

	var records []*audit.Record
	for rows.Next() {
		rec := &audit.Record{}
		var detailsJSON sql.NullString

		err := rows.Scan(
			&rec.ID,
			&rec.TenantID,
			&rec.UserID,
			&rec.IdentityKey,
			&rec.Operation,
			&rec.Allowed,
			&rec.Reason,
			&rec.TokensRemaining,
			&rec.IPAddress,
			&detailsJSON,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, err
		}

		if detailsJSON.Valid && detailsJSON.String != "" {
			var details interface{}
			if err := json.Unmarshal([]byte(detailsJSON.String), &details); err == nil {
				rec.Details = details
			}
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the total number of audit records matching the filter.
func (r *auditRepository) Count(ctx context.Context, filter *audit.Filter) (int, error) {
	query, args := r.buildListQuery(filter, true)

	var count int
	err := r.db.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"query": query}).WithError(err).Error("db: failed to execute audit count query")
		}
		return 0, err
	}
	return count, nil
}

// buildListQuery constructs the SQL query and arguments for listing/counting
// audit records.
func (r *auditRepository) buildListQuery(filter *audit.Filter, isCount bool) (string, []interface{}) {
	var selectClause string
	if isCount {
		selectClause = "SELECT COUNT(*)"
	} else {
		selectClause = `SELECT
			id, tenant_id, user_id, identity_key, operation, allowed,
			reason, tokens_remaining, ip_address, details, timestamp`
	}

	query := selectClause + " FROM audit_records"
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter != nil {
		if filter.TenantID != nil {
			conditions = append(conditions, "tenant_id = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.TenantID)
			argIndex++
		}

		if filter.UserID != nil {
			conditions = append(conditions, "user_id = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.UserID)
			argIndex++
		}

		if filter.Operation != nil {
			conditions = append(conditions, "operation = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.Operation)
			argIndex++
		}

		if filter.Allowed != nil {
			conditions = append(conditions, "allowed = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.Allowed)
			argIndex++
		}

		if filter.Reason != nil {
			conditions = append(conditions, "reason = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.Reason)
			argIndex++
		}

		if filter.StartTime != nil {
			conditions = append(conditions, "timestamp >= $"+strconv.Itoa(argIndex))
			args = append(args, *filter.StartTime)
			argIndex++
		}

		if filter.EndTime != nil {
			conditions = append(conditions, "timestamp <= $"+strconv.Itoa(argIndex))
			args = append(args, *filter.EndTime)
			argIndex++
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if !isCount {
		query += " ORDER BY timestamp DESC"

		if filter != nil {
			if filter.Limit > 0 {
				query += " LIMIT $" + strconv.Itoa(argIndex)
				args = append(args, filter.Limit)
				argIndex++
			}

			if filter.Offset > 0 {
				query += " OFFSET $" + strconv.Itoa(argIndex)
				args = append(args, filter.Offset)
				argIndex++
			}
		}
	}

	return query, args
}
