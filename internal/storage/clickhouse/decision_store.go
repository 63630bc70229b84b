package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/observability"
	"solana-token-feed/internal/storage"
)

// DecisionStore implements storage.DecisionStore using ClickHouse.
type DecisionStore struct {
	conn *Conn
}

// NewDecisionStore creates a new DecisionStore.
func NewDecisionStore(conn *Conn) *DecisionStore {
	return &DecisionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

const selectDecisionColumns = `
	SELECT decision_id, mint, safe, stage, scan_key, decided_at, created_at
	FROM moderation_decisions FINAL
`

// Insert adds a new decision. Returns ErrDuplicateKey if decision_id exists.
func (s *DecisionStore) Insert(ctx context.Context, d *domain.ModerationDecision) (err error) {
	defer observeQuery("insert", time.Now(), &err)

	if d == nil || d.DecisionID == "" {
		return storage.ErrInvalidInput
	}

	// ReplacingMergeTree would collapse the row, keep append-only semantics
	exists, err := s.exists(ctx, d.DecisionID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO moderation_decisions (
			decision_id, mint, safe, stage, scan_key, decided_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`, d.DecisionID, d.Mint, boolToUInt8(d.Safe), string(d.Stage), d.ScanKey, d.DecidedAt)
	if err != nil {
		return fmt.Errorf("insert moderation decision: %w", err)
	}
	return nil
}

// InsertBulk adds multiple decisions in one batch. Fails entire batch on any duplicate.
func (s *DecisionStore) InsertBulk(ctx context.Context, decisions []*domain.ModerationDecision) (err error) {
	if len(decisions) == 0 {
		return nil
	}
	defer observeQuery("insert_bulk", time.Now(), &err)

	seen := make(map[string]struct{}, len(decisions))
	for _, d := range decisions {
		if d == nil || d.DecisionID == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[d.DecisionID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[d.DecisionID] = struct{}{}

		exists, err := s.exists(ctx, d.DecisionID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO moderation_decisions (
			decision_id, mint, safe, stage, scan_key, decided_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, d := range decisions {
		err = batch.Append(d.DecisionID, d.Mint, boolToUInt8(d.Safe), string(d.Stage), d.ScanKey, d.DecidedAt)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByMint retrieves all decisions for a mint, ordered by decided_at DESC.
func (s *DecisionStore) GetByMint(ctx context.Context, mint string) ([]*domain.ModerationDecision, error) {
	rows, err := s.conn.Query(ctx, selectDecisionColumns+`
		WHERE mint = ?
		ORDER BY decided_at DESC, decision_id ASC
	`, mint)
	if err != nil {
		return nil, fmt.Errorf("query by mint: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// GetByTimeRange retrieves decisions within [start, end], ordered by decided_at ASC.
func (s *DecisionStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.ModerationDecision, error) {
	rows, err := s.conn.Query(ctx, selectDecisionColumns+`
		WHERE decided_at >= ? AND decided_at <= ?
		ORDER BY decided_at ASC, decision_id ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// CountByStage counts decisions within [start, end] per stage.
func (s *DecisionStore) CountByStage(ctx context.Context, start, end int64) (map[domain.ModerationStage]int64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT stage, count() AS n
		FROM moderation_decisions FINAL
		WHERE decided_at >= ? AND decided_at <= ?
		GROUP BY stage
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("count by stage: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ModerationStage]int64)
	for rows.Next() {
		var stage string
		var n uint64
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("scan stage count: %w", err)
		}
		counts[domain.ModerationStage(stage)] = int64(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage counts: %w", err)
	}
	return counts, nil
}

func (s *DecisionStore) exists(ctx context.Context, decisionID string) (bool, error) {
	var n uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM moderation_decisions WHERE decision_id = ?`, decisionID)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanDecisions(rows driver.Rows) ([]*domain.ModerationDecision, error) {
	var decisions []*domain.ModerationDecision

	for rows.Next() {
		var (
			d         domain.ModerationDecision
			safe      uint8
			stage     string
			createdAt time.Time
		)
		if err := rows.Scan(&d.DecisionID, &d.Mint, &safe, &stage, &d.ScanKey, &d.DecidedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		d.Safe = safe == 1
		d.Stage = domain.ModerationStage(stage)
		d.CreatedAt = createdAt.UnixMilli()
		decisions = append(decisions, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision rows: %w", err)
	}
	return decisions, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func observeQuery(op string, start time.Time, err *error) {
	observability.RecordDBQuery("clickhouse", op, time.Since(start).Seconds(), *err)
}
