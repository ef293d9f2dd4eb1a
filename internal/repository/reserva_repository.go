package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/pizzariabella/reservas-api/internal/model"
)

// ReservaRepo provides CRUD operations for reservation rows and the shared
// reservation-number sequence.  Rows sharing a numero_reserva form one
// logical booking; batch operations on a group always run inside a caller
// supplied transaction so that partial failures never leave the group
// inconsistent.  All timestamps are stored in UTC.
type ReservaRepo struct {
	db *sql.DB
}

// NewReservaRepo returns a new ReservaRepo bound to the given database.
func NewReservaRepo(db *sql.DB) *ReservaRepo { return &ReservaRepo{db: db} }

// DB exposes the underlying pool so the service layer can open transactions.
func (r *ReservaRepo) DB() *sql.DB { return r.db }

// WithTx runs fn inside a transaction.  The transaction is rolled back
// whenever fn returns an error or the commit fails.
func (r *ReservaRepo) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const reservaColumns = `id, created_at, id_mesa, id_mesa_historico, nome_cliente,
	telefone_cliente, data_reserva, horario_reserva, observacoes, status, numero_reserva`

// rowScanner abstracts *sql.Row and *sql.Rows for scanReserva.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReserva(s rowScanner) (model.Reserva, error) {
	var res model.Reserva
	var mesa, mesaHist sql.NullInt64
	var numero sql.NullInt64
	var data time.Time
	err := s.Scan(&res.ID, &res.CreatedAt, &mesa, &mesaHist, &res.NomeCliente,
		&res.TelefoneCliente, &data, &res.HorarioReserva, &res.Observacoes,
		&res.Status, &numero)
	if err != nil {
		return model.Reserva{}, err
	}
	res.DataReserva = data.Format("2006-01-02")
	if mesa.Valid {
		m := int(mesa.Int64)
		res.IDMesa = &m
	}
	if mesaHist.Valid {
		m := int(mesaHist.Int64)
		res.IDMesaHistorico = &m
	}
	if numero.Valid {
		n := numero.Int64
		res.NumeroReserva = &n
	}
	return res, nil
}

// statusIn builds an "status IN (...)" fragment plus its arguments.
func statusIn(statuses []string) (string, []interface{}) {
	placeholders := make([]string, len(statuses))
	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = s
	}
	return "status IN (" + strings.Join(placeholders, ",") + ")", args
}

// Filtro holds the optional predicates accepted by List.  Zero values mean
// "no filter".  Statuses defaults to the active set at the service layer.
type Filtro struct {
	DataReserva     string
	NomeCliente     string
	TelefoneCliente string
	Mesa            int
	Statuses        []string
	NumeroReserva   int64
}

// List returns the rows matching the filter, ordered by time slot.  Client
// name matches are substring and case-insensitive; phone matches are
// substring over the stored digits.
func (r *ReservaRepo) List(ctx context.Context, f Filtro) ([]model.Reserva, error) {
	query := `SELECT ` + reservaColumns + ` FROM reservas`
	var where []string
	var args []interface{}
	if f.DataReserva != "" {
		where = append(where, "data_reserva = ?")
		args = append(args, f.DataReserva)
	}
	if f.NomeCliente != "" {
		where = append(where, "LOWER(nome_cliente) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.NomeCliente)+"%")
	}
	if f.TelefoneCliente != "" {
		where = append(where, "telefone_cliente LIKE ?")
		args = append(args, "%"+soDigitos(f.TelefoneCliente)+"%")
	}
	if f.Mesa > 0 {
		where = append(where, "id_mesa = ?")
		args = append(args, f.Mesa)
	}
	if f.NumeroReserva > 0 {
		where = append(where, "numero_reserva = ?")
		args = append(args, f.NumeroReserva)
	}
	if len(f.Statuses) > 0 {
		frag, stArgs := statusIn(f.Statuses)
		where = append(where, frag)
		args = append(args, stArgs...)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY horario_reserva ASC, created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reserva, 0)
	for rows.Next() {
		res, err := scanReserva(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// soDigitos strips everything but digits, mirroring how phone numbers are
// normalized before storage.
func soDigitos(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// GetByID returns a single row or ErrReservaNotFound.
func (r *ReservaRepo) GetByID(ctx context.Context, id string) (*model.Reserva, error) {
	const q = `SELECT ` + reservaColumns + ` FROM reservas WHERE id = ?`
	res, err := scanReserva(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrReservaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByIDTx is GetByID inside an open transaction; used to resolve the
// anchor row of a group before mutating it.
func (r *ReservaRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Reserva, error) {
	const q = `SELECT ` + reservaColumns + ` FROM reservas WHERE id = ?`
	res, err := scanReserva(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrReservaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GrupoByNumeroTx returns every row of a group, ordered by table number so
// output is deterministic.
func (r *ReservaRepo) GrupoByNumeroTx(ctx context.Context, tx *sql.Tx, numero int64) ([]model.Reserva, error) {
	const q = `SELECT ` + reservaColumns + ` FROM reservas WHERE numero_reserva = ? ORDER BY id_mesa ASC`
	rows, err := tx.QueryContext(ctx, q, numero)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reserva, 0)
	for rows.Next() {
		res, err := scanReserva(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// CountAtivasTx counts the active rows on a date.  Evaluated inside the same
// transaction as the insert so the capacity check and the write are not
// interleaved with concurrent creates.
func (r *ReservaRepo) CountAtivasTx(ctx context.Context, tx *sql.Tx, data string) (int, error) {
	frag, args := statusIn(model.StatusAtivos)
	q := `SELECT COUNT(*) FROM reservas WHERE data_reserva = ? AND ` + frag
	var n int
	err := tx.QueryRowContext(ctx, q, append([]interface{}{data}, args...)...).Scan(&n)
	return n, err
}

// MesasOcupadasTx returns the table numbers held by active rows on a date.
func (r *ReservaRepo) MesasOcupadasTx(ctx context.Context, tx *sql.Tx, data string) ([]int, error) {
	frag, args := statusIn(model.StatusAtivos)
	q := `SELECT id_mesa FROM reservas WHERE data_reserva = ? AND id_mesa IS NOT NULL AND ` + frag
	rows, err := tx.QueryContext(ctx, q, append([]interface{}{data}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMesas(rows)
}

// MesasOcupadas is MesasOcupadasTx outside a transaction, used by the
// read-only availability query.
func (r *ReservaRepo) MesasOcupadas(ctx context.Context, data string) ([]int, error) {
	frag, args := statusIn(model.StatusAtivos)
	q := `SELECT id_mesa FROM reservas WHERE data_reserva = ? AND id_mesa IS NOT NULL AND ` + frag
	rows, err := r.db.QueryContext(ctx, q, append([]interface{}{data}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMesas(rows)
}

// MesasOcupadasOutrosGruposTx returns the tables held on a date by active
// rows outside the given group.  Rows without a numero_reserva count as
// "other": a legacy row must still block a reassignment onto its table.
func (r *ReservaRepo) MesasOcupadasOutrosGruposTx(ctx context.Context, tx *sql.Tx, data string, numero int64) ([]int, error) {
	frag, args := statusIn(model.StatusAtivos)
	q := `SELECT id_mesa FROM reservas
	      WHERE data_reserva = ? AND id_mesa IS NOT NULL
	        AND (numero_reserva IS NULL OR numero_reserva <> ?) AND ` + frag
	rows, err := tx.QueryContext(ctx, q, append([]interface{}{data, numero}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMesas(rows)
}

func scanMesas(rows *sql.Rows) ([]int, error) {
	mesas := make([]int, 0)
	for rows.Next() {
		var m int
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		mesas = append(mesas, m)
	}
	return mesas, rows.Err()
}

// InsertGrupoTx inserts the rows of a new or extended group in a single
// multi-row statement.  Passing an empty slice has no effect and returns nil.
func (r *ReservaRepo) InsertGrupoTx(ctx context.Context, tx *sql.Tx, reservas []model.Reserva) error {
	if len(reservas) == 0 {
		return nil
	}
	query := `INSERT INTO reservas (id, created_at, id_mesa, nome_cliente, telefone_cliente,
		data_reserva, horario_reserva, observacoes, status, numero_reserva) VALUES `
	args := make([]interface{}, 0, len(reservas)*10)
	for i, res := range reservas {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, res.ID, res.CreatedAt, res.IDMesa, res.NomeCliente,
			res.TelefoneCliente, res.DataReserva, res.HorarioReserva,
			res.Observacoes, res.Status, res.NumeroReserva)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// UpdateRowTx applies a partial field update to one row.  campos maps column
// names to values; the caller is responsible for restricting it to writable
// columns.  Returns ErrReservaNotFound when the row does not exist.
func (r *ReservaRepo) UpdateRowTx(ctx context.Context, tx *sql.Tx, id string, campos map[string]interface{}) error {
	if len(campos) == 0 {
		return nil
	}
	sets, args := setClause(campos)
	q := `UPDATE reservas SET ` + sets + ` WHERE id = ?`
	result, err := tx.ExecContext(ctx, q, append(args, id)...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op update,
		// so confirm existence before reporting not found.
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservas WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrReservaNotFound
		}
	}
	return nil
}

// UpdateGrupoTx applies a partial field update to every row of a group.
func (r *ReservaRepo) UpdateGrupoTx(ctx context.Context, tx *sql.Tx, numero int64, campos map[string]interface{}) error {
	if len(campos) == 0 {
		return nil
	}
	sets, args := setClause(campos)
	q := `UPDATE reservas SET ` + sets + ` WHERE numero_reserva = ?`
	_, err := tx.ExecContext(ctx, q, append(args, numero)...)
	return err
}

// setClause renders campos as "col1 = ?, col2 = ?" with a deterministic
// column order so queries are stable across runs.
func setClause(campos map[string]interface{}) (string, []interface{}) {
	cols := make([]string, 0, len(campos))
	for col := range campos {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	sets := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
		args[i] = campos[col]
	}
	return strings.Join(sets, ", "), args
}

// DeleteMesasTx removes specific tables from a group.  Used by the diff-based
// reassignment; whole-group deletion is never performed.
func (r *ReservaRepo) DeleteMesasTx(ctx context.Context, tx *sql.Tx, numero int64, mesas []int) error {
	if len(mesas) == 0 {
		return nil
	}
	placeholders := make([]string, len(mesas))
	args := make([]interface{}, 0, len(mesas)+1)
	args = append(args, numero)
	for i, m := range mesas {
		placeholders[i] = "?"
		args = append(args, m)
	}
	q := `DELETE FROM reservas WHERE numero_reserva = ? AND id_mesa IN (` + strings.Join(placeholders, ",") + `)`
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// CancelarGrupoTx soft-cancels every row of a group: the status flips to
// cancelada and each row's table moves into the historical column in the
// same statement, so no row ever loses track of the table it held.
func (r *ReservaRepo) CancelarGrupoTx(ctx context.Context, tx *sql.Tx, numero int64) error {
	const q = `UPDATE reservas
	           SET status = ?, id_mesa_historico = COALESCE(id_mesa, id_mesa_historico), id_mesa = NULL
	           WHERE numero_reserva = ?`
	_, err := tx.ExecContext(ctx, q, model.StatusCancelada, numero)
	return err
}

// CancelarRowTx soft-cancels a single active row.  Returns ErrReservaNotFound
// when the row is absent or already inactive.
func (r *ReservaRepo) CancelarRowTx(ctx context.Context, tx *sql.Tx, id string) error {
	frag, stArgs := statusIn(model.StatusAtivos)
	q := `UPDATE reservas
	      SET status = ?, id_mesa_historico = COALESCE(id_mesa, id_mesa_historico), id_mesa = NULL
	      WHERE id = ? AND ` + frag
	result, err := tx.ExecContext(ctx, q, append([]interface{}{model.StatusCancelada, id}, stArgs...)...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservaNotFound
	}
	return nil
}

// NextNumeroTx allocates a fresh shared reservation number from the
// numeros_reserva sequence table.
func (r *ReservaRepo) NextNumeroTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	result, err := tx.ExecContext(ctx, `INSERT INTO numeros_reserva () VALUES ()`)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
