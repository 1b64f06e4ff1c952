package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuktifest/yukti-backend/internal/domain/event"
	"github.com/yuktifest/yukti-backend/internal/domain/job"
	"github.com/yuktifest/yukti-backend/internal/domain/registration"
	"github.com/yuktifest/yukti-backend/internal/jobs"
	"github.com/yuktifest/yukti-backend/internal/repo/postgres"
	"github.com/yuktifest/yukti-backend/internal/validate"
)

type RegistrationStore interface {
	BeginTx(ctx context.Context) (postgres.Tx, error)
	CheckConflictsTx(ctx context.Context, tx postgres.Tx, probe postgres.ConflictProbe) error
	UniqueIDForEmail(ctx context.Context, tx postgres.Tx, email string) (string, bool, error)
	InsertTx(ctx context.Context, tx postgres.Tx, reg registration.Registration) error
	ListAll(ctx context.Context) ([]registration.Registration, error)
}

type JobEnqueuer interface {
	CreateTx(ctx context.Context, tx postgres.Tx, req job.CreateRequest) (job.Job, error)
}

type IDGenerator interface {
	Generate() (string, error)
}

type RegisterHandler struct {
	store RegistrationStore
	queue JobEnqueuer
	ids   IDGenerator
	log   *slog.Logger
}

func NewRegisterHandler(store RegistrationStore, queue JobEnqueuer, ids IDGenerator, log *slog.Logger) *RegisterHandler {
	return &RegisterHandler{
		store: store,
		queue: queue,
		ids:   ids,
		log:   log,
	}
}

const enqueueMaxAttempts = 10

// Register accepts a solo or group registration. Validation, duplicate
// checks, the insert and the follow-up job enqueues all happen in one
// transaction, so a registrant either gets a durable registration with
// export and mail queued, or a clean error.
func (h *RegisterHandler) Register(ctx *gin.Context) {
	var req registration.CreateRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	isGroup := event.IsGroup(req.Event)

	if v := validate.Request(req); v != nil {
		RespondBadRequest(ctx, v.Message)
		return
	}

	rctx := ctx.Request.Context()

	tx, err := h.store.BeginTx(rctx)

	if err != nil {
		h.serverError(ctx, "begin tx", err)
		return
	}

	defer func() {
		_ = tx.Rollback(rctx)
	}()

	probe := postgres.ConflictProbe{
		Event:         req.Event,
		Email:         req.Email,
		USNs:          req.CandidateUSNs(isGroup),
		TransactionID: req.Payment.TransactionID,
		IsGroup:       isGroup,
		GroupName:     req.DisplayName(isGroup),
	}

	if err := h.store.CheckConflictsTx(rctx, tx, probe); err != nil {
		h.respondStoreError(ctx, req, isGroup, err)
		return
	}

	// count and member-field checks come after the duplicate checks,
	// matching the order the registration form relies on
	if v := validate.Group(req); v != nil {
		RespondBadRequest(ctx, v.Message)
		return
	}

	uid, found, err := h.store.UniqueIDForEmail(rctx, tx, req.Email)

	if err != nil {
		h.serverError(ctx, "unique id lookup", err)
		return
	}

	if !found {
		uid, err = h.ids.Generate()

		if err != nil {
			h.serverError(ctx, "unique id generate", err)
			return
		}
	}

	reg := registration.NewFromCreateRequest(req, isGroup)
	reg.UniqueID = uid

	if err := h.store.InsertTx(rctx, tx, reg); err != nil {
		h.respondStoreError(ctx, req, isGroup, err)
		return
	}

	emailQueued, err := h.enqueueFollowUps(rctx, tx, reg)

	if err != nil {
		h.serverError(ctx, "enqueue jobs", err)
		return
	}

	if err := tx.Commit(rctx); err != nil {
		h.serverError(ctx, "commit", err)
		return
	}

	h.log.InfoContext(rctx, "registration.accepted",
		"event", reg.Event,
		"unique_id", reg.UniqueID,
		"is_group", reg.IsGroup,
		"members", len(reg.Members),
	)

	ctx.JSON(http.StatusCreated, gin.H{
		"message":   "Registration successful!",
		"uniqueId":  reg.UniqueID,
		"event":     reg.Event,
		"emailSent": emailQueued,
	})
}

// enqueueFollowUps queues the export and confirmation jobs inside the
// registration tx. The registration id is fresh, so the idempotency
// keys cannot collide here; they guard against operational requeues
// (manual inserts, replays) at the schema level. Any enqueue error
// fails the whole transaction.
func (h *RegisterHandler) enqueueFollowUps(ctx context.Context, tx postgres.Tx, reg registration.Registration) (bool, error) {
	now := time.Now().UTC()

	exportPayload, err := jobs.ExportRegistrationPayload{
		RegistrationID: reg.ID,
		RequestedAt:    now,
	}.JSON()

	if err != nil {
		return false, err
	}

	exportKey := "registration:export:" + reg.ID

	_, err = h.queue.CreateTx(ctx, tx, job.CreateRequest{
		Type:           string(jobs.JobExportRegistration),
		Payload:        exportPayload,
		MaxAttempts:    enqueueMaxAttempts,
		IdempotencyKey: &exportKey,
	})

	if err != nil {
		return false, err
	}

	confirmPayload, err := jobs.SendConfirmationPayload{
		RegistrationID: reg.ID,
		RequestedAt:    now,
	}.JSON()

	if err != nil {
		return false, err
	}

	confirmKey := "registration:confirm:" + reg.ID

	_, err = h.queue.CreateTx(ctx, tx, job.CreateRequest{
		Type:           string(jobs.JobSendConfirmation),
		Payload:        confirmPayload,
		MaxAttempts:    enqueueMaxAttempts,
		IdempotencyKey: &confirmKey,
	})

	if err != nil {
		return false, err
	}

	// reported as emailSent: the mail is durably queued, not yet delivered
	return true, nil
}

func (h *RegisterHandler) respondStoreError(ctx *gin.Context, req registration.CreateRegistrationRequest, isGroup bool, err error) {
	switch {
	case errors.Is(err, registration.ErrAlreadyRegistered):
		RespondBadRequest(ctx, fmt.Sprintf("You have already registered for %s.", req.Event))
	case errors.Is(err, registration.ErrDuplicateTransaction):
		RespondBadRequest(ctx, fmt.Sprintf("Transaction ID %q is already used for another registration.", req.Payment.TransactionID))
	case errors.Is(err, registration.ErrDuplicateGroupName):
		RespondBadRequest(ctx, fmt.Sprintf("Group %q has already registered for %s.", req.DisplayName(isGroup), req.Event))
	default:
		h.serverError(ctx, "store", err)
	}
}

func (h *RegisterHandler) serverError(ctx *gin.Context, stage string, err error) {
	h.log.ErrorContext(ctx.Request.Context(), "registration.failed",
		"stage", stage,
		"error", err,
	)

	RespondInternal(ctx, "Server error. Registration failed")
}
