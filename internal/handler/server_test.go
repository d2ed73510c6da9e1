package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/config"
	"github.com/noah-isme/scientia-api/internal/database"
	"github.com/noah-isme/scientia-api/internal/handler"
	"github.com/noah-isme/scientia-api/internal/middleware"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/repository"
	"github.com/noah-isme/scientia-api/internal/router"
	"github.com/noah-isme/scientia-api/internal/service"
)

const testSecret = "handler-test-secret"

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	logger := zerolog.Nop()
	db, dialect, err := database.Open(filepath.Join(t.TempDir(), "api.db"), database.Options{Logger: logger})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, db, dialect, logger))
	require.NoError(t, database.Seed(ctx, db, logger))

	validate := validator.New()
	identity := repository.NewIdentityRepository(db)
	students := repository.NewStudentRepository(db)
	profiles := repository.NewProfileRepository(db)
	users := repository.NewUserRepository(db)

	roster, err := service.NewRosterService(students, profiles, users, validate, 5, logger)
	require.NoError(t, err)

	cfg := config.Config{AppName: "Scientia API", AppEnv: "test"}
	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger, RequestTimeout: 5 * time.Second})
	router.Register(app, cfg, router.Dependencies{
		Health:            handler.HealthCheck(cfg, dialect.Name, sqlDB),
		AuthHandler:       handler.NewAuthHandler(service.NewAuthService(users, validate, service.AuthConfig{Secret: testSecret, TTL: time.Hour}, logger), logger),
		ProfileHandler:    handler.NewProfileHandler(service.NewProfileService(students, profiles, logger), logger),
		CatalogHandler:    handler.NewCatalogHandler(service.NewCatalogService(identity, students, validate, logger), logger),
		RosterHandler:     handler.NewRosterHandler(roster, 1<<20, logger),
		AttendanceHandler: handler.NewAttendanceHandler(service.NewAttendanceService(repository.NewAttendanceRepository(db), identity, students, validate, logger), logger),
		MarkHandler:       handler.NewMarkHandler(service.NewMarkService(repository.NewMarkRepository(db), identity, students, validate, 5, logger), logger),
		FeeHandler:        handler.NewFeeHandler(service.NewFeeService(repository.NewFeeRepository(db), students, validate, logger), logger),
		TimetableHandler:  handler.NewTimetableHandler(service.NewTimetableService(repository.NewTimetableRepository(db), identity, validate, logger), logger),
		RemovalHandler:    handler.NewRemovalHandler(service.NewRemovalService(repository.NewRemovalRepository(db), logger), logger),
		JWTMiddleware:     middleware.JWTProtected(testSecret),
	})

	return testServer{app: app, db: db}
}

// token signs a bearer token for an existing account.
func (s testServer) token(t *testing.T, username string) string {
	t.Helper()
	var user models.User
	require.NoError(t, s.db.Where("username = ?", username).First(&user).Error)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"role":     string(user.Role),
		"username": user.Username,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s testServer) class(t *testing.T, name, section string) models.Class {
	t.Helper()
	var class models.Class
	require.NoError(t, s.db.Where("class_name = ? AND section = ?", name, section).First(&class).Error)
	return class
}

func (s testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return s.send(t, req, token)
}

func (s testServer) upload(t *testing.T, path, token, filename string, content []byte) (*http.Response, envelope) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return s.send(t, req, token)
}

func (s testServer) send(t *testing.T, req *http.Request, token string) (*http.Response, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	var payload envelope
	if json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}

func decodeData(t *testing.T, payload envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, target))
}
