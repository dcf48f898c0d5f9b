package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kitquirurgico-api/internal/domain"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/entity"
	"github.com/jhoicas/kitquirurgico-api/internal/domain/repository"
)

var _ repository.KitRepository = (*KitRepo)(nil)

// KitRepo registro de kits sobre PostgreSQL. Las fases (fecha y actor por estado) viven en una
// columna JSONB.
type KitRepo struct {
	q Querier
}

// NewKitRepository construye el adaptador. Pasar pool o tx (Querier).
func NewKitRepository(q Querier) *KitRepo {
	return &KitRepo{q: q}
}

const kitColumns = `id, code, case_id, case_number, status, qr_token, source_location_id, location_id,
	courier_id, notes, cancel_reason, phases, created_at, updated_at`

type phaseJSON struct {
	At    *time.Time `json:"at,omitempty"`
	Actor string     `json:"actor,omitempty"`
}

func encodePhases(phases map[entity.KitStatus]entity.PhaseStamp) ([]byte, error) {
	out := make(map[string]phaseJSON, len(phases))
	for s, p := range phases {
		out[string(s)] = phaseJSON{At: p.At, Actor: p.Actor}
	}
	return json.Marshal(out)
}

func decodePhases(raw []byte) (map[entity.KitStatus]entity.PhaseStamp, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var in map[string]phaseJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	out := make(map[entity.KitStatus]entity.PhaseStamp, len(in))
	for s, p := range in {
		out[entity.KitStatus(s)] = entity.PhaseStamp{At: p.At, Actor: p.Actor}
	}
	return out, nil
}

func scanKit(row pgx.Row) (*entity.Kit, error) {
	var (
		k                     entity.Kit
		qr, location, courier *string
		phases                []byte
	)
	err := row.Scan(&k.ID, &k.Code, &k.CaseID, &k.CaseNumber, &k.Status, &qr, &k.SourceLocationID, &location,
		&courier, &k.Notes, &k.CancelReason, &phases, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, err
	}
	k.QRToken, k.LocationID, k.CourierID = deref(qr), deref(location), deref(courier)
	if k.Phases, err = decodePhases(phases); err != nil {
		return nil, fmt.Errorf("decode phases: %w", err)
	}
	return &k, nil
}

// Create persiste un kit nuevo.
func (r *KitRepo) Create(ctx context.Context, k *entity.Kit) error {
	phases, err := encodePhases(k.Phases)
	if err != nil {
		return fmt.Errorf("encode phases: %w", err)
	}
	query := `
		INSERT INTO kits (` + kitColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.q.Exec(ctx, query,
		k.ID, k.Code, k.CaseID, k.CaseNumber, k.Status, nullable(k.QRToken), k.SourceLocationID,
		nullable(k.LocationID), nullable(k.CourierID), k.Notes, k.CancelReason, phases, k.CreatedAt, k.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert kit: %w", err)
	}
	return nil
}

// GetByID obtiene un kit por ID.
func (r *KitRepo) GetByID(ctx context.Context, id string) (*entity.Kit, error) {
	return r.getOne(ctx, `SELECT `+kitColumns+` FROM kits WHERE id = $1`, id)
}

// GetByQRToken obtiene el kit al que se emitió el token.
func (r *KitRepo) GetByQRToken(ctx context.Context, token string) (*entity.Kit, error) {
	if token == "" {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+kitColumns+` FROM kits WHERE qr_token = $1`, token)
}

// LockByID obtiene el kit y bloquea su fila (SELECT FOR UPDATE) hasta el fin de la transacción.
func (r *KitRepo) LockByID(ctx context.Context, id string) (*entity.Kit, error) {
	return r.getOne(ctx, `SELECT `+kitColumns+` FROM kits WHERE id = $1 FOR UPDATE`, id)
}

func (r *KitRepo) getOne(ctx context.Context, query, arg string) (*entity.Kit, error) {
	k, err := scanKit(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get kit: %w", err)
	}
	return k, nil
}

// List lista kits del más reciente al más antiguo.
func (r *KitRepo) List(ctx context.Context, f repository.KitFilter) ([]*entity.Kit, error) {
	query := `SELECT ` + kitColumns + ` FROM kits WHERE 1=1`
	args := []any{}
	pos := 1
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	if f.CaseID != "" {
		query += fmt.Sprintf(" AND case_id = $%d", pos)
		args = append(args, f.CaseID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitOrAll(f.Limit), f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list kits: %w", err)
	}
	defer rows.Close()
	var list []*entity.Kit
	for rows.Next() {
		k, err := scanKit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kit: %w", err)
		}
		list = append(list, k)
	}
	return list, rows.Err()
}

// UpdateState persiste el kit con un UPDATE condicionado al estado esperado. Si ninguna fila
// coincide, otro actor lo movió primero: domain.ErrStaleState.
func (r *KitRepo) UpdateState(ctx context.Context, k *entity.Kit, expected entity.KitStatus) error {
	phases, err := encodePhases(k.Phases)
	if err != nil {
		return fmt.Errorf("encode phases: %w", err)
	}
	query := `
		UPDATE kits SET status = $3, qr_token = $4, location_id = $5, courier_id = $6,
			notes = $7, cancel_reason = $8, phases = $9, updated_at = $10
		WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(ctx, query,
		k.ID, expected, k.Status, nullable(k.QRToken), nullable(k.LocationID), nullable(k.CourierID),
		k.Notes, k.CancelReason, phases, k.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update kit state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var current entity.KitStatus
		err := r.q.QueryRow(ctx, `SELECT status FROM kits WHERE id = $1`, k.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read kit state: %w", err)
		}
		return fmt.Errorf("%w: kit %s está en %s", domain.ErrStaleState, k.ID, current)
	}
	return nil
}
