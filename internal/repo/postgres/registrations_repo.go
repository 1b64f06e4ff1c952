package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuktifest/yukti-backend/internal/domain/registration"
	"github.com/yuktifest/yukti-backend/internal/observability"
)

type RegistrationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationsRepo {
	return &RegistrationsRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *RegistrationsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *RegistrationsRepo) BeginTx(ctx context.Context) (Tx, error) {
	return repo.pool.BeginTx(ctx, pgx.TxOptions{})
}

// ConflictProbe carries the identity facts the duplicate checks need,
// built from the incoming request before the row exists.
type ConflictProbe struct {
	Event         string
	Email         string
	USNs          []string
	TransactionID string
	IsGroup       bool
	GroupName     string
}

// CheckConflictsTx runs the read side of the validation pipeline inside
// the insert transaction: duplicate identity for the event, duplicate
// transaction id anywhere, and duplicate group name for the event.
// The matching unique constraints catch whatever races past these.
func (repo *RegistrationsRepo) CheckConflictsTx(ctx context.Context, tx Tx, probe ConflictProbe) (err error) {
	ptx, err := pgxTx(tx)

	if err != nil {
		return
	}

	var exists bool

	err = repo.observe("registrations.check.duplicate_identity", func() error {
		return ptx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM registrations r
			LEFT JOIN registration_members m ON m.registration_id = r.id
			WHERE r.event = $1
			  AND (r.email = $2
			       OR (r.usn <> '' AND r.usn = ANY($3))
			       OR m.usn = ANY($3))
		)`, probe.Event, probe.Email, probe.USNs).Scan(&exists)
	})

	if err != nil {
		return
	}

	if exists {
		err = registration.ErrAlreadyRegistered
		return
	}

	err = repo.observe("registrations.check.duplicate_transaction", func() error {
		return ptx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM registrations WHERE transaction_id = $1
		)`, probe.TransactionID).Scan(&exists)
	})

	if err != nil {
		return
	}

	if exists {
		err = registration.ErrDuplicateTransaction
		return
	}

	if probe.IsGroup {
		err = repo.observe("registrations.check.duplicate_group_name", func() error {
			return ptx.QueryRow(ctx, `SELECT EXISTS(
				SELECT 1 FROM registrations
				WHERE event = $1 AND is_group AND LOWER(name) = LOWER($2)
			)`, probe.Event, probe.GroupName).Scan(&exists)
		})

		if err != nil {
			return
		}

		if exists {
			err = registration.ErrDuplicateGroupName
			return
		}
	}

	return
}

// UniqueIDForEmail returns the id minted by this email's first
// registration, if any. Looked up inside the tx so a concurrent first
// registration for the same email cannot mint a second id unseen.
func (repo *RegistrationsRepo) UniqueIDForEmail(ctx context.Context, tx Tx, email string) (uid string, found bool, err error) {
	ptx, err := pgxTx(tx)

	if err != nil {
		return
	}

	err = repo.observe("registrations.unique_id_for_email", func() error {
		return ptx.QueryRow(ctx, `
			SELECT unique_id FROM registrations
			WHERE email = $1 AND unique_id <> ''
			ORDER BY created_at ASC
			LIMIT 1
		`, email).Scan(&uid)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return
	}

	found = true
	return
}

// UniqueIDByEmail is the pool-backed lookup the backfill uses: an
// email that already minted an id on any row keeps that id.
func (repo *RegistrationsRepo) UniqueIDByEmail(ctx context.Context, email string) (uid string, found bool, err error) {
	err = repo.observe("registrations.unique_id_by_email", func() error {
		return repo.pool.QueryRow(ctx, `
			SELECT unique_id FROM registrations
			WHERE email = $1 AND unique_id <> ''
			ORDER BY created_at ASC
			LIMIT 1
		`, email).Scan(&uid)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return
	}

	found = true
	return
}

func (repo *RegistrationsRepo) InsertTx(ctx context.Context, tx Tx, reg registration.Registration) (err error) {
	ptx, err := pgxTx(tx)

	if err != nil {
		return
	}

	err = repo.observe("registrations.insert", func() error {
		_, e := ptx.Exec(ctx, `
			INSERT INTO registrations (
				id, unique_id, event, name, usn, college, department, year,
				email, phone, is_group, transaction_id, amount, payment_method, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`,
			reg.ID, reg.UniqueID, reg.Event, reg.Name, reg.USN, reg.College,
			reg.Department, reg.Year, reg.Email, reg.Phone, reg.IsGroup,
			reg.Payment.TransactionID, reg.Payment.Amount, reg.Payment.Method, reg.CreatedAt,
		)
		return e
	})

	if err != nil {
		err = mapInsertError(err)
		return
	}

	for i, m := range reg.Members {
		pos := i

		err = repo.observe("registrations.insert_member", func() error {
			_, e := ptx.Exec(ctx, `
				INSERT INTO registration_members (id, registration_id, event, position, name, usn)
				VALUES ($1,$2,$3,$4,$5,$6)
			`, uuid.NewString(), reg.ID, reg.Event, pos, m.Name, m.USN)
			return e
		})

		if err != nil {
			err = mapInsertError(err)
			return
		}
	}

	return
}

// mapInsertError turns constraint violations into the same domain
// errors the pre-checks raise, so a race loses cleanly instead of
// surfacing a 500.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError

	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}

	switch pgErr.ConstraintName {
	case "registrations_txn_uniq":
		return registration.ErrDuplicateTransaction
	case "registrations_group_name_uniq":
		return registration.ErrDuplicateGroupName
	case "registrations_event_email_uniq",
		"registrations_event_usn_uniq",
		"registration_members_event_usn_uniq":
		return registration.ErrAlreadyRegistered
	default:
		return err
	}
}

func (repo *RegistrationsRepo) ListAll(ctx context.Context) (regs []registration.Registration, err error) {
	var rows pgx.Rows

	err = repo.observe("registrations.list_all", func() error {
		rows, err = repo.pool.Query(ctx, `
			SELECT id, unique_id, event, name, usn, college, department, year,
			       email, phone, is_group, transaction_id, amount, payment_method, created_at
			FROM registrations
			ORDER BY created_at DESC, id DESC
		`)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	regs = make([]registration.Registration, 0)
	ids := make([]string, 0)

	for rows.Next() {
		var r registration.Registration

		e := rows.Scan(
			&r.ID, &r.UniqueID, &r.Event, &r.Name, &r.USN, &r.College,
			&r.Department, &r.Year, &r.Email, &r.Phone, &r.IsGroup,
			&r.Payment.TransactionID, &r.Payment.Amount, &r.Payment.Method, &r.CreatedAt,
		)

		if e != nil {
			err = e
			return
		}

		regs = append(regs, r)
		ids = append(ids, r.ID)
	}

	e := rows.Err()

	if e != nil {
		err = e
		return
	}

	if len(regs) == 0 {
		return
	}

	members, err := repo.membersFor(ctx, ids)

	if err != nil {
		return
	}

	for i := range regs {
		regs[i].Members = members[regs[i].ID]
	}

	return
}

func (repo *RegistrationsRepo) GetByID(ctx context.Context, id string) (reg registration.Registration, err error) {
	err = repo.observe("registrations.get_by_id", func() error {
		return repo.pool.QueryRow(ctx, `
			SELECT id, unique_id, event, name, usn, college, department, year,
			       email, phone, is_group, transaction_id, amount, payment_method, created_at
			FROM registrations
			WHERE id = $1
		`, id).Scan(
			&reg.ID, &reg.UniqueID, &reg.Event, &reg.Name, &reg.USN, &reg.College,
			&reg.Department, &reg.Year, &reg.Email, &reg.Phone, &reg.IsGroup,
			&reg.Payment.TransactionID, &reg.Payment.Amount, &reg.Payment.Method, &reg.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = registration.ErrNotFound
		}
		return
	}

	if !reg.IsGroup {
		return
	}

	members, err := repo.membersFor(ctx, []string{reg.ID})

	if err != nil {
		return
	}

	reg.Members = members[reg.ID]
	return
}

func (repo *RegistrationsRepo) membersFor(ctx context.Context, registrationIDs []string) (map[string][]registration.Member, error) {
	var rows pgx.Rows
	var err error

	err = repo.observe("registrations.members_for", func() error {
		rows, err = repo.pool.Query(ctx, `
			SELECT registration_id, name, usn
			FROM registration_members
			WHERE registration_id = ANY($1)
			ORDER BY registration_id, position
		`, registrationIDs)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make(map[string][]registration.Member)

	for rows.Next() {
		var regID string
		var m registration.Member

		if e := rows.Scan(&regID, &m.Name, &m.USN); e != nil {
			return nil, e
		}

		out[regID] = append(out[regID], m)
	}

	return out, rows.Err()
}

// Backfill support: legacy rows imported without a unique id.

type MissingUniqueID struct {
	ID    string
	Email string
}

func (repo *RegistrationsRepo) ListMissingUniqueID(ctx context.Context) (rowsOut []MissingUniqueID, err error) {
	var rows pgx.Rows

	err = repo.observe("registrations.list_missing_unique_id", func() error {
		rows, err = repo.pool.Query(ctx, `
			SELECT id, email FROM registrations
			WHERE unique_id = ''
			ORDER BY created_at ASC
		`)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	for rows.Next() {
		var r MissingUniqueID

		if e := rows.Scan(&r.ID, &r.Email); e != nil {
			err = e
			return
		}

		rowsOut = append(rowsOut, r)
	}

	err = rows.Err()
	return
}

func (repo *RegistrationsRepo) SetUniqueID(ctx context.Context, id, uniqueID string) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe("registrations.set_unique_id", func() error {
		var e error
		tag, e = repo.pool.Exec(ctx, `
			UPDATE registrations SET unique_id = $2 WHERE id = $1
		`, id, uniqueID)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = registration.ErrNotFound
	}

	return
}
