package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adeelraza/income-backoffice/internal/api"
	"github.com/adeelraza/income-backoffice/internal/config"
	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/adeelraza/income-backoffice/internal/repository"
	"github.com/adeelraza/income-backoffice/internal/service"
	"github.com/adeelraza/income-backoffice/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	JWTSecret  []byte
	DB         *sqlx.DB

	// Seeded fixtures: one branch, one user per role
	BranchID        string
	UserID          string
	UserToken       string
	AdminID         string
	AdminToken      string
	SuperadminID    string
	SuperadminToken string
}

// SetupTestContext creates a new test context with initialized dependencies
func SetupTestContext(t *testing.T) *TestContext {
	cfg := config.LoadConfig()

	// Always run against the dedicated test database
	if cfg.Database.TestDBName != "" {
		cfg.Database.DBName = cfg.Database.TestDBName
	} else {
		cfg.Database.DBName = "incomeoffice_test"
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "test-secret-key"
	}

	db, err := config.SetupDatabase(cfg)
	assert.NoError(t, err, "Failed to set up test database")

	repo := repository.NewPostgresRepository(db)
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret)
	handler := api.NewHandler(svc, utils.NewLogger())

	gin.SetMode(gin.TestMode)
	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})
	handler.SetupRoutes(router)

	testCtx := &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		DB:         db,
	}

	seedFixtures(t, testCtx, cfg.Auth.JWTSecret)

	return testCtx
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(t *TestContext) {
	if t.DB != nil {
		cleanupTestDatabase(nil, t.Repository)
		t.DB.Close()
	}
}

// cleanupTestDatabase removes any existing test data
func cleanupTestDatabase(t *testing.T, repo repository.Repository) {
	if pgRepo, ok := repo.(*repository.PostgresRepository); ok {
		db := pgRepo.GetDB()

		_, err := db.Exec("DELETE FROM incomes")
		if t != nil && err != nil {
			t.Logf("Warning: Failed to clean incomes: %v", err)
		}

		_, err = db.Exec("DELETE FROM users")
		if t != nil && err != nil {
			t.Logf("Warning: Failed to clean users: %v", err)
		}

		_, err = db.Exec("DELETE FROM branches")
		if t != nil && err != nil {
			t.Logf("Warning: Failed to clean branches: %v", err)
		}
	}
}

// seedFixtures creates a branch plus one active user per role and mints
// a token for each of them.
func seedFixtures(t *testing.T, testCtx *TestContext, jwtSecret string) {
	cleanupTestDatabase(t, testCtx.Repository)

	ctx := context.Background()

	branch := &models.Branch{
		ID:       uuid.New().String(),
		Name:     "Test Branch",
		Code:     "TST",
		IsActive: true,
	}
	err := testCtx.Repository.CreateBranch(ctx, branch)
	assert.NoError(t, err, "Failed to create test branch")
	testCtx.BranchID = branch.ID

	testCtx.UserID, testCtx.UserToken = createTestUser(
		t, testCtx.Repository, jwtSecret, "testuser@example.com", models.RoleUser, &branch.ID)
	testCtx.AdminID, testCtx.AdminToken = createTestUser(
		t, testCtx.Repository, jwtSecret, "testadmin@example.com", models.RoleAdmin, &branch.ID)
	testCtx.SuperadminID, testCtx.SuperadminToken = createTestUser(
		t, testCtx.Repository, jwtSecret, "testroot@example.com", models.RoleSuperadmin, nil)
}

func createTestUser(t *testing.T, repo repository.Repository, jwtSecret, email string, role models.Role, branchID *string) (string, string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		ID:        uuid.New().String(),
		Name:      "Test " + string(role),
		Email:     email,
		Password:  string(hashedPassword),
		Role:      role,
		BranchID:  branchID,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	err := repo.CreateUser(context.Background(), user)
	assert.NoError(t, err, "Failed to create test user")

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"exp":   time.Now().Add(20 * time.Minute).Unix(),
		"iat":   time.Now().Unix(),
	}
	if branchID != nil {
		claims["branch"] = *branchID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(jwtSecret))
	assert.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
