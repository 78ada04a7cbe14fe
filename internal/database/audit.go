package database

import (
	"context"
	"database/sql"

	"subdel/internal/model"
)

func (db *DB) LogAudit(ctx context.Context, entry model.AuditEntry) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO audit_log (subdomain, action, record_name, record_type, detail, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.Subdomain, entry.Action, entry.RecordName,
		entry.RecordType, entry.Detail, entry.IPAddress,
	)
	return err
}

// ListAuditLog returns the most recent audit entries for one
// subdomain, newest first.
func (db *DB) ListAuditLog(ctx context.Context, subdomain string, limit int) ([]model.AuditEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, subdomain, action, record_name, record_type, detail, ip_address, created_at
		 FROM audit_log
		 WHERE subdomain = $1
		 ORDER BY created_at DESC LIMIT $2`, subdomain, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var recordName, recordType, detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Subdomain, &e.Action, &recordName,
			&recordType, &detail, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.RecordName = recordName.String
		e.RecordType = recordType.String
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
