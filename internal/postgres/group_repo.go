package postgres

import (
	"context"

	"github.com/alumni-hub/messaging-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GroupRepository is the connection registry: it owns the persisted
// membership of transport connections in conversation groups.
type GroupRepository struct {
	db *pgxpool.Pool
}

func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: db}
}

// AddConnection registers conn under the named group, creating the group row
// on first join. Both writes happen in one transaction so a cancelled join
// never leaves a connection without its group.
func (r *GroupRepository) AddConnection(ctx context.Context, groupName string, conn domain.Connection) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO message_groups (name)
		VALUES ($1)
		ON CONFLICT DO NOTHING
	`, groupName); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO group_connections (id, username, group_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, conn.ID, conn.Username, groupName); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RemoveConnection deletes the connection's membership row. A row that is
// already gone is success: disconnects can race.
func (r *GroupRepository) RemoveConnection(ctx context.Context, connID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM group_connections WHERE id=$1`, connID)
	return err
}

func (r *GroupRepository) Connections(ctx context.Context, groupName string) ([]domain.Connection, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, username, group_name FROM group_connections WHERE group_name=$1`,
		groupName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Connection
	for rows.Next() {
		var c domain.Connection
		if err := rows.Scan(&c.ID, &c.Username, &c.GroupName); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
