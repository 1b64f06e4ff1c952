package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yuktifest/yukti-backend/internal/domain/job"
	"github.com/yuktifest/yukti-backend/internal/repo/postgres"
)

type AdminJobsRepo interface {
	ListRecent(ctx context.Context, status *string, limit int) ([]job.Job, error)
	GetByID(ctx context.Context, id string) (job.Job, error)
	Retry(ctx context.Context, id string) error
}

type AdminJobsHandler struct {
	repo AdminJobsRepo
}

func NewAdminJobsHandler(repo AdminJobsRepo) *AdminJobsHandler {
	return &AdminJobsHandler{repo: repo}
}

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}

	n, err := strconv.Atoi(s)

	if err != nil {
		return fallback
	}

	return n
}

// GET /api/admin/jobs?status=failed&limit=50
func (h *AdminJobsHandler) List(ctx *gin.Context) {
	limit := parseIntDefault(ctx.Query("limit"), 20)

	if limit < 1 || limit > 100 {
		RespondBadRequest(ctx, "limit must be between 1 and 100")
		return
	}

	var statusPtr *string

	if s := ctx.Query("status"); s != "" {
		switch job.Status(s) {
		case job.StatusPending, job.StatusProcessing, job.StatusDone, job.StatusFailed:
			statusPtr = &s
		default:
			RespondBadRequest(ctx, "unknown status filter")
			return
		}
	}

	items, err := h.repo.ListRecent(ctx.Request.Context(), statusPtr, limit)

	if err != nil {
		RespondInternal(ctx, "Could not list jobs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"limit": limit,
		"count": len(items),
		"items": items,
	})
}

// POST /api/admin/jobs/:id/retry
func (h *AdminJobsHandler) Retry(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.repo.Retry(ctx.Request.Context(), id)

	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			RespondError(ctx, http.StatusNotFound, "Job not found")
		case errors.Is(err, postgres.ErrJobNotFailed):
			RespondConflict(ctx, "Only failed jobs can be retried")
		default:
			RespondInternal(ctx, "Could not retry job")
		}
		return
	}

	j, err := h.repo.GetByID(ctx.Request.Context(), id)

	if err != nil {
		// the retry went through; report it even if the re-read failed
		ctx.JSON(http.StatusOK, gin.H{"id": id, "status": job.StatusPending})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"id": j.ID, "status": j.Status})
}
