package handlers

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yuktifest/yukti-backend/internal/domain/registration"
	"github.com/yuktifest/yukti-backend/internal/export"
	"github.com/yuktifest/yukti-backend/internal/security"
)

type TokenIssuer interface {
	GenerateAccessToken(username, role string) (string, error)
}

type AdminHandler struct {
	username     string // stored lowercase
	passwordHash string
	tokens       TokenIssuer
	store        RegistrationStore
	exportDir    string
	log          *slog.Logger
}

// NewAdminHandler hashes the configured password up front so the
// plaintext never sits in the handler.
func NewAdminHandler(username, password string, tokens TokenIssuer, store RegistrationStore, exportDir string, log *slog.Logger) (*AdminHandler, error) {
	hash, err := security.HashPassword(strings.TrimSpace(password))

	if err != nil {
		return nil, err
	}

	return &AdminHandler{
		username:     strings.ToLower(strings.TrimSpace(username)),
		passwordHash: hash,
		tokens:       tokens,
		store:        store,
		exportDir:    exportDir,
		log:          log,
	}, nil
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges the shared admin credentials for a bearer token.
// The username compares case-insensitively, both fields trimmed.
func (h *AdminHandler) Login(ctx *gin.Context) {
	var req loginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	password := strings.TrimSpace(req.Password)

	if username == "" || password == "" {
		RespondBadRequest(ctx, "Username and password are required")
		return
	}

	if username != h.username || security.CheckPassword(h.passwordHash, password) != nil {
		h.log.WarnContext(ctx.Request.Context(), "admin.login_rejected", "username", username)

		RespondError(ctx, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.GenerateAccessToken(h.username, "admin")

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "admin.token_issue_failed", "error", err)

		RespondInternal(ctx, "Server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// ListRegistrations returns every registration, newest first, members
// inlined for group rows.
func (h *AdminHandler) ListRegistrations(ctx *gin.Context) {
	regs, err := h.store.ListAll(ctx.Request.Context())

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "admin.list_registrations_failed", "error", err)

		RespondInternal(ctx, "Server error")
		return
	}

	if regs == nil {
		regs = []registration.Registration{}
	}

	ctx.JSON(http.StatusOK, regs)
}

// DownloadExport streams one of the xlsx hand-outs the worker keeps
// appended. kind is "solo" or "group".
func (h *AdminHandler) DownloadExport(ctx *gin.Context) {
	var file string

	switch ctx.Param("kind") {
	case "solo":
		file = export.SoloFile
	case "group":
		file = export.GroupFile
	default:
		RespondBadRequest(ctx, "Unknown export kind")
		return
	}

	path := filepath.Join(h.exportDir, file)

	if _, err := os.Stat(path); err != nil {
		RespondError(ctx, http.StatusNotFound, "No export generated yet")
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+file+`"`)
	ctx.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.File(path)
}
