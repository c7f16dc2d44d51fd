package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DivisionRepoPG reads and seeds the division tree in the divisions,
// districts and thanas tables created by migrations/001_locations.sql.
type DivisionRepoPG struct {
	pool       *pgxpool.Pool
	divisionID string
}

func NewDivisionRepoPG(pool *pgxpool.Pool, divisionID string) *DivisionRepoPG {
	return &DivisionRepoPG{pool: pool, divisionID: divisionID}
}

func (r *DivisionRepoPG) LoadDivision(ctx context.Context) (*Division, error) {
	d := &Division{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM divisions WHERE id = $1`, r.divisionID,
	).Scan(&d.ID, &d.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: division %q not seeded", ErrInvalidDataset, r.divisionID)
	}
	if err != nil {
		return nil, fmt.Errorf("query division: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.name, t.id, t.name
		FROM districts d
		LEFT JOIN thanas t ON t.division_id = d.division_id AND t.district_id = d.id
		WHERE d.division_id = $1
		ORDER BY d.position, t.position`, r.divisionID)
	if err != nil {
		return nil, fmt.Errorf("query districts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			distID, distName   string
			thanaID, thanaName *string
		)
		if err := rows.Scan(&distID, &distName, &thanaID, &thanaName); err != nil {
			return nil, fmt.Errorf("scan district row: %w", err)
		}
		n := len(d.Districts)
		if n == 0 || d.Districts[n-1].ID != distID {
			d.Districts = append(d.Districts, District{ID: distID, Name: distName, Thanas: []Thana{}})
			n++
		}
		if thanaID != nil {
			dist := &d.Districts[n-1]
			dist.Thanas = append(dist.Thanas, Thana{ID: *thanaID, Name: derefString(thanaName)})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate districts: %w", err)
	}
	return d, nil
}

// Seed replaces the stored tree for d.ID with d in a single transaction.
func (r *DivisionRepoPG) Seed(ctx context.Context, d *Division) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM divisions WHERE id = $1`, d.ID); err != nil {
		return fmt.Errorf("clear division: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO divisions (id, name) VALUES ($1, $2)`, d.ID, d.Name); err != nil {
		return fmt.Errorf("insert division: %w", err)
	}

	batch := &pgx.Batch{}
	for i, dist := range d.Districts {
		batch.Queue(`INSERT INTO districts (division_id, id, name, position) VALUES ($1, $2, $3, $4)`,
			d.ID, dist.ID, dist.Name, i)
		for j, th := range dist.Thanas {
			batch.Queue(`INSERT INTO thanas (division_id, district_id, id, name, position) VALUES ($1, $2, $3, $4, $5)`,
				d.ID, dist.ID, th.ID, th.Name, j)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert districts and thanas: %w", err)
	}

	return tx.Commit(ctx)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
