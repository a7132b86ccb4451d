package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

const testSecret = "test_secret"

func signToken(t *testing.T, role models.UserRole, subject string, expiry time.Duration) string {
	t.Helper()
	claims := &models.AccessClaims{
		Role: role,
		Name: "Test User",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func buildProtectedRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("")
	group.Use(JWT(testSecret))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/protected", func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.AccessClaims)
		c.JSON(http.StatusOK, gin.H{"subject": claims.Subject})
	})
	return router
}

func performRequest(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	router := buildProtectedRouter()
	resp := performRequest(router, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestJWTRejectsMalformedToken(t *testing.T) {
	router := buildProtectedRouter()
	resp := performRequest(router, "not-a-token")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	router := buildProtectedRouter()
	token := signToken(t, models.RoleSupervisor, "user-1", -time.Hour)
	resp := performRequest(router, token)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestJWTAcceptsValidToken(t *testing.T) {
	router := buildProtectedRouter()
	token := signToken(t, models.RoleInstructor, "user-1", time.Hour)
	resp := performRequest(router, token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "user-1")
}

func TestRequireRolesBlocksOtherRole(t *testing.T) {
	router := buildProtectedRouter(models.RoleSupervisor)
	token := signToken(t, models.RoleInstructor, "user-1", time.Hour)
	resp := performRequest(router, token)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	router := buildProtectedRouter(models.RoleSupervisor)
	token := signToken(t, models.RoleSupervisor, "user-2", time.Hour)
	resp := performRequest(router, token)
	require.Equal(t, http.StatusOK, resp.Code)
}
