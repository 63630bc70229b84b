package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/observability"
	"solana-token-feed/internal/storage"
)

// DecisionStore implements storage.DecisionStore using PostgreSQL.
type DecisionStore struct {
	pool *Pool
}

// NewDecisionStore creates a new DecisionStore.
func NewDecisionStore(pool *Pool) *DecisionStore {
	return &DecisionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

const insertDecisionQuery = `
	INSERT INTO moderation_decisions (
		decision_id, mint, safe, stage, scan_key, decided_at
	) VALUES ($1, $2, $3, $4, $5, $6)
`

// Insert adds a new decision. Returns ErrDuplicateKey if decision_id exists.
func (s *DecisionStore) Insert(ctx context.Context, d *domain.ModerationDecision) (err error) {
	defer observeQuery("insert", time.Now(), &err)

	if d == nil || d.DecisionID == "" {
		return storage.ErrInvalidInput
	}

	_, err = s.pool.Exec(ctx, insertDecisionQuery,
		d.DecisionID,
		d.Mint,
		d.Safe,
		string(d.Stage),
		d.ScanKey,
		d.DecidedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert moderation decision: %w", err)
	}
	return nil
}

// InsertBulk adds multiple decisions atomically. Fails entire batch on any duplicate.
func (s *DecisionStore) InsertBulk(ctx context.Context, decisions []*domain.ModerationDecision) (err error) {
	if len(decisions) == 0 {
		return nil
	}
	defer observeQuery("insert_bulk", time.Now(), &err)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, d := range decisions {
		if d == nil || d.DecisionID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertDecisionQuery,
			d.DecisionID,
			d.Mint,
			d.Safe,
			string(d.Stage),
			d.ScanKey,
			d.DecidedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert moderation decision in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMint retrieves all decisions for a mint, ordered by decided_at DESC.
func (s *DecisionStore) GetByMint(ctx context.Context, mint string) ([]*domain.ModerationDecision, error) {
	query := `
		SELECT decision_id, mint, safe, stage, scan_key, decided_at, created_at
		FROM moderation_decisions
		WHERE mint = $1
		ORDER BY decided_at DESC, decision_id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get decisions by mint: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// GetByTimeRange retrieves decisions within [start, end], ordered by decided_at ASC.
func (s *DecisionStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.ModerationDecision, error) {
	query := `
		SELECT decision_id, mint, safe, stage, scan_key, decided_at, created_at
		FROM moderation_decisions
		WHERE decided_at >= $1 AND decided_at <= $2
		ORDER BY decided_at ASC, decision_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get decisions by time range: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// CountByStage counts decisions within [start, end] per stage.
func (s *DecisionStore) CountByStage(ctx context.Context, start, end int64) (map[domain.ModerationStage]int64, error) {
	query := `
		SELECT stage, COUNT(*)
		FROM moderation_decisions
		WHERE decided_at >= $1 AND decided_at <= $2
		GROUP BY stage
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("count decisions by stage: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ModerationStage]int64)
	for rows.Next() {
		var stage string
		var n int64
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("scan stage count: %w", err)
		}
		counts[domain.ModerationStage(stage)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage counts: %w", err)
	}
	return counts, nil
}

// scanDecision scans a single row into ModerationDecision.
func scanDecision(row pgx.Row) (*domain.ModerationDecision, error) {
	var d domain.ModerationDecision
	var stage string

	err := row.Scan(
		&d.DecisionID,
		&d.Mint,
		&d.Safe,
		&stage,
		&d.ScanKey,
		&d.DecidedAt,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Stage = domain.ModerationStage(stage)
	return &d, nil
}

// scanDecisions scans multiple rows into a slice of ModerationDecision.
func scanDecisions(rows pgx.Rows) ([]*domain.ModerationDecision, error) {
	var decisions []*domain.ModerationDecision

	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision rows: %w", err)
	}

	return decisions, nil
}

func observeQuery(op string, start time.Time, err *error) {
	observability.RecordDBQuery("postgres", op, time.Since(start).Seconds(), *err)
}
