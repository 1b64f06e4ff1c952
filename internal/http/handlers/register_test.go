package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yuktifest/yukti-backend/internal/domain/job"
	"github.com/yuktifest/yukti-backend/internal/domain/registration"
	"github.com/yuktifest/yukti-backend/internal/repo/postgres"
	"github.com/yuktifest/yukti-backend/internal/uniqueid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeStore struct {
	tx *fakeTx

	checkConflicts   func(probe postgres.ConflictProbe) error
	uniqueIDForEmail func(email string) (string, bool, error)
	insert           func(reg registration.Registration) error
	listAll          func() ([]registration.Registration, error)

	inserted []registration.Registration
}

func (s *fakeStore) BeginTx(ctx context.Context) (postgres.Tx, error) {
	if s.tx == nil {
		s.tx = &fakeTx{}
	}
	return s.tx, nil
}

func (s *fakeStore) CheckConflictsTx(ctx context.Context, tx postgres.Tx, probe postgres.ConflictProbe) error {
	if s.checkConflicts != nil {
		return s.checkConflicts(probe)
	}
	return nil
}

func (s *fakeStore) UniqueIDForEmail(ctx context.Context, tx postgres.Tx, email string) (string, bool, error) {
	if s.uniqueIDForEmail != nil {
		return s.uniqueIDForEmail(email)
	}
	return "", false, nil
}

func (s *fakeStore) InsertTx(ctx context.Context, tx postgres.Tx, reg registration.Registration) error {
	if s.insert != nil {
		if err := s.insert(reg); err != nil {
			return err
		}
	}
	s.inserted = append(s.inserted, reg)
	return nil
}

func (s *fakeStore) ListAll(ctx context.Context) ([]registration.Registration, error) {
	if s.listAll != nil {
		return s.listAll()
	}
	return nil, nil
}

type fakeQueue struct {
	createTx func(req job.CreateRequest) (job.Job, error)
	created  []job.CreateRequest
}

func (q *fakeQueue) CreateTx(ctx context.Context, tx postgres.Tx, req job.CreateRequest) (job.Job, error) {
	q.created = append(q.created, req)

	if q.createTx != nil {
		return q.createTx(req)
	}
	return job.New(req), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func soloBody() map[string]any {
	return map[string]any{
		"event":      "coding",
		"name":       "Asha",
		"USN":        "1XX22CS001",
		"college":    "GEC",
		"department": "CSE",
		"year":       "3",
		"email":      "asha@example.com",
		"phone":      "9999999999",
		"payment": map[string]any{
			"transactionId": "TXN-1",
			"amount":        100,
			"paymentMethod": "upi",
		},
	}
}

func roadiesBody(memberCount int) map[string]any {
	members := make([]map[string]any, 0, memberCount)

	for i := 0; i < memberCount; i++ {
		members = append(members, map[string]any{
			"name": fmt.Sprintf("M%d", i+1),
			"usn":  fmt.Sprintf("1XX22CS10%d", i+1),
		})
	}

	return map[string]any{
		"event":      "roadies",
		"groupName":  "Trailblazers",
		"college":    "GEC",
		"department": "CSE",
		"year":       "2",
		"email":      "lead@example.com",
		"phone":      "8888888888",
		"members":    members,
		"payment": map[string]any{
			"transactionId": "TXN-2",
			"amount":        300,
			"paymentMethod": "upi",
		},
	}
}

func doRegister(t *testing.T, h *RegisterHandler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)

	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	r := gin.New()
	r.POST("/api/register", h.Register)

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any

	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

var uniqueIDPattern = regexp.MustCompile(`^YUKTI-\d{4}-[A-HJ-NP-Z2-9]{8}$`)

func TestRegisterSoloSuccess(t *testing.T) {
	store := &fakeStore{}
	queue := &fakeQueue{}

	h := NewRegisterHandler(store, queue, uniqueid.New(), discardLogger())

	w := doRegister(t, h, soloBody())

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)

	uid, _ := body["uniqueId"].(string)

	if !uniqueIDPattern.MatchString(uid) {
		t.Fatalf("uniqueId %q does not match expected shape", uid)
	}

	if body["event"] != "coding" {
		t.Fatalf("event = %v", body["event"])
	}

	if body["emailSent"] != true {
		t.Fatalf("emailSent = %v", body["emailSent"])
	}

	if !store.tx.committed {
		t.Fatal("transaction was not committed")
	}

	if len(store.inserted) != 1 || store.inserted[0].IsGroup {
		t.Fatalf("inserted = %+v", store.inserted)
	}

	if len(queue.created) != 2 {
		t.Fatalf("enqueued %d jobs, want export + confirmation", len(queue.created))
	}
}

func TestRegisterReusesUniqueIDForSameEmail(t *testing.T) {
	const existing = "YUKTI-2026-KXQW7M2P"

	store := &fakeStore{
		uniqueIDForEmail: func(email string) (string, bool, error) {
			if email != "asha@example.com" {
				t.Fatalf("looked up %q", email)
			}
			return existing, true, nil
		},
	}

	h := NewRegisterHandler(store, &fakeQueue{}, uniqueid.New(), discardLogger())

	w := doRegister(t, h, soloBody())

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	if got := decodeBody(t, w)["uniqueId"]; got != existing {
		t.Fatalf("uniqueId = %v, want reuse of %s", got, existing)
	}
}

func TestRegisterValidationMessages(t *testing.T) {
	missingName := soloBody()
	delete(missingName, "name")

	// event carries a binding tag; the bind step must let the validator
	// failure through so the pipeline message still wins
	missingEvent := soloBody()
	delete(missingEvent, "event")

	missingPayment := soloBody()
	missingPayment["payment"] = map[string]any{"transactionId": "", "amount": 0, "paymentMethod": ""}

	missingUSN := soloBody()
	delete(missingUSN, "USN")

	cases := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing required field", missingName, "All required fields must be filled!"},
		{"missing tagged field", missingEvent, "All required fields must be filled!"},
		{"missing payment details", missingPayment, "All payment details are required!"},
		{"solo without usn", missingUSN, "USN is required for solo events!"},
		{"group below minimum", roadiesBody(2), "roadies requires between 3 and 3 members."},
		{"group above maximum", roadiesBody(4), "roadies requires between 3 and 3 members."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRegisterHandler(&fakeStore{}, &fakeQueue{}, uniqueid.New(), discardLogger())

			w := doRegister(t, h, tc.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}

			if got := decodeBody(t, w)["error"]; got != tc.want {
				t.Fatalf("error = %v, want %q", got, tc.want)
			}
		})
	}
}

func TestRegisterGroupAtExactLimitSucceeds(t *testing.T) {
	store := &fakeStore{}

	h := NewRegisterHandler(store, &fakeQueue{}, uniqueid.New(), discardLogger())

	w := doRegister(t, h, roadiesBody(3))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	reg := store.inserted[0]

	if !reg.IsGroup || len(reg.Members) != 3 {
		t.Fatalf("inserted = %+v", reg)
	}

	if reg.Name != "Trailblazers" {
		t.Fatalf("group stored under name %q", reg.Name)
	}

	if reg.USN != "" {
		t.Fatalf("group registration kept solo USN %q", reg.USN)
	}
}

func TestRegisterGroupMemberMissingUSN(t *testing.T) {
	body := roadiesBody(3)
	body["members"].([]map[string]any)[1]["usn"] = ""

	h := NewRegisterHandler(&fakeStore{}, &fakeQueue{}, uniqueid.New(), discardLogger())

	w := doRegister(t, h, body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	if got := decodeBody(t, w)["error"]; got != "Each group member must have a name and USN." {
		t.Fatalf("error = %v", got)
	}
}

func TestRegisterDuplicateErrors(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
		err  error
		want string
	}{
		{
			"already registered",
			soloBody(),
			registration.ErrAlreadyRegistered,
			"You have already registered for coding.",
		},
		{
			"duplicate transaction",
			soloBody(),
			registration.ErrDuplicateTransaction,
			`Transaction ID "TXN-1" is already used for another registration.`,
		},
		{
			"duplicate group name",
			roadiesBody(3),
			registration.ErrDuplicateGroupName,
			`Group "Trailblazers" has already registered for roadies.`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{
				checkConflicts: func(probe postgres.ConflictProbe) error {
					return tc.err
				},
			}

			h := NewRegisterHandler(store, &fakeQueue{}, uniqueid.New(), discardLogger())

			w := doRegister(t, h, tc.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}

			if got := decodeBody(t, w)["error"]; got != tc.want {
				t.Fatalf("error = %v, want %q", got, tc.want)
			}

			if store.tx.committed {
				t.Fatal("rejected registration must not commit")
			}
		})
	}
}

// A duplicate that races past the pre-checks surfaces from the insert
// via the unique constraints and must map to the same message.
func TestRegisterInsertRaceMapsToDuplicate(t *testing.T) {
	store := &fakeStore{
		insert: func(reg registration.Registration) error {
			return registration.ErrAlreadyRegistered
		},
	}

	h := NewRegisterHandler(store, &fakeQueue{}, uniqueid.New(), discardLogger())

	w := doRegister(t, h, soloBody())

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	if got := decodeBody(t, w)["error"]; got != "You have already registered for coding." {
		t.Fatalf("error = %v", got)
	}
}

func TestRegisterQueueFailureIsServerError(t *testing.T) {
	queue := &fakeQueue{
		createTx: func(req job.CreateRequest) (job.Job, error) {
			return job.Job{}, fmt.Errorf("jobs table unavailable")
		},
	}

	store := &fakeStore{}

	h := NewRegisterHandler(store, queue, uniqueid.New(), discardLogger())

	w := doRegister(t, h, soloBody())

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}

	if got := decodeBody(t, w)["error"]; got != "Server error. Registration failed" {
		t.Fatalf("error = %v", got)
	}

	if store.tx.committed {
		t.Fatal("failed enqueue must not commit")
	}
}

// A unique violation on an idempotency key aborts the pgx transaction,
// so it must fail the request rather than be swallowed mid-tx.
func TestRegisterIdempotencyKeyClashIsServerError(t *testing.T) {
	queue := &fakeQueue{
		createTx: func(req job.CreateRequest) (job.Job, error) {
			return job.Job{}, &pgconn.PgError{Code: "23505", ConstraintName: "jobs_idempotency_key_key"}
		},
	}

	store := &fakeStore{}

	h := NewRegisterHandler(store, queue, uniqueid.New(), discardLogger())

	w := doRegister(t, h, soloBody())

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	if store.tx.committed {
		t.Fatal("aborted transaction must not commit")
	}
}

func TestRegisterMalformedJSON(t *testing.T) {
	h := NewRegisterHandler(&fakeStore{}, &fakeQueue{}, uniqueid.New(), discardLogger())

	r := gin.New()
	r.POST("/api/register", h.Register)

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
