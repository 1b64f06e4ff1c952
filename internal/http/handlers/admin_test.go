package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuktifest/yukti-backend/internal/auth"
	"github.com/yuktifest/yukti-backend/internal/domain/registration"
)

func newAdminHandler(t *testing.T, store RegistrationStore) (*AdminHandler, *auth.Manager) {
	t.Helper()

	tokens := auth.NewManager("test-secret", time.Hour)

	h, err := NewAdminHandler("Admin", "s3cret", tokens, store, t.TempDir(), discardLogger())

	if err != nil {
		t.Fatalf("NewAdminHandler: %v", err)
	}

	return h, tokens
}

func doLogin(t *testing.T, h *AdminHandler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)

	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	r := gin.New()
	r.POST("/api/admin/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminLogin(t *testing.T) {
	h, tokens := newAdminHandler(t, &fakeStore{})

	cases := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantErr    string
	}{
		{
			"missing fields",
			map[string]any{"username": "", "password": ""},
			http.StatusBadRequest,
			"Username and password are required",
		},
		{
			"wrong password",
			map[string]any{"username": "admin", "password": "nope"},
			http.StatusUnauthorized,
			"Invalid credentials",
		},
		{
			"wrong username",
			map[string]any{"username": "root", "password": "s3cret"},
			http.StatusUnauthorized,
			"Invalid credentials",
		},
		{
			"exact credentials",
			map[string]any{"username": "Admin", "password": "s3cret"},
			http.StatusOK,
			"",
		},
		{
			"case-insensitive username with padding",
			map[string]any{"username": "  ADMIN  ", "password": " s3cret "},
			http.StatusOK,
			"",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doLogin(t, h, tc.body)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}

			body := decodeBody(t, w)

			if tc.wantErr != "" {
				if body["error"] != tc.wantErr {
					t.Fatalf("error = %v, want %q", body["error"], tc.wantErr)
				}
				return
			}

			tokenStr, _ := body["token"].(string)

			if tokenStr == "" {
				t.Fatal("missing token in success response")
			}

			claims, err := tokens.VerifyAccessToken(tokenStr)

			if err != nil {
				t.Fatalf("issued token does not verify: %v", err)
			}

			if claims.Role != "admin" || claims.Username != "admin" {
				t.Fatalf("claims = %+v", claims)
			}
		})
	}
}

func TestAdminListRegistrations(t *testing.T) {
	regs := []registration.Registration{
		{ID: "r2", Event: "mime", UniqueID: "YUKTI-2026-BCDF2345"},
		{ID: "r1", Event: "coding", UniqueID: "YUKTI-2026-ABCD2345"},
	}

	store := &fakeStore{
		listAll: func() ([]registration.Registration, error) {
			return regs, nil
		},
	}

	h, _ := newAdminHandler(t, store)

	r := gin.New()
	r.GET("/api/admin/registrations", h.ListRegistrations)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/registrations", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	// the response is the bare array the frontend table iterates over
	var got []registration.Registration

	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not an array: %v (body %s)", err, w.Body.String())
	}

	if len(got) != 2 || got[0].ID != "r2" || got[1].ID != "r1" {
		t.Fatalf("got %+v", got)
	}
}

func TestAdminListRegistrationsEmpty(t *testing.T) {
	h, _ := newAdminHandler(t, &fakeStore{})

	r := gin.New()
	r.GET("/api/admin/registrations", h.ListRegistrations)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/registrations", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if body := w.Body.String(); body != "[]" {
		t.Fatalf("empty store must serialize as [], got %s", body)
	}
}

func TestDownloadExportUnknownKind(t *testing.T) {
	h, _ := newAdminHandler(t, &fakeStore{})

	r := gin.New()
	r.GET("/api/admin/exports/:kind", h.DownloadExport)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/exports/pdf", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDownloadExportMissingFile(t *testing.T) {
	h, _ := newAdminHandler(t, &fakeStore{})

	r := gin.New()
	r.GET("/api/admin/exports/:kind", h.DownloadExport)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/exports/solo", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}
