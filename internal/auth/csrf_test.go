package auth

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperpaper/catalog/internal/config"
	"github.com/paperpaper/catalog/internal/entities"
)

var testCSRFSecret = []byte("0123456789abcdef0123456789abcdef")

func newCSRFRouter(svc *Service) *gin.Engine {
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, svc))
	router.GET("/token", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": GetCSRFToken(c)})
	})
	router.POST("/change", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestCSRF_SkipsRequestsWithoutSessionCookie(t *testing.T) {
	router := newCSRFRouter(nil)

	rec := doJSON(t, router, http.MethodPost, "/change", gin.H{}, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_RejectsCookieRequestWithoutToken(t *testing.T) {
	router := newCSRFRouter(nil)
	session := &http.Cookie{Name: sessionCookieName, Value: "s"}

	rec := doJSON(t, router, http.MethodPost, "/change", gin.H{}, []*http.Cookie{session}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF")
	assert.NotContains(t, rec.Body.String(), `"ok"`, "handler must not run")
}

func TestCSRF_AcceptsIssuedToken(t *testing.T) {
	router := newCSRFRouter(nil)
	session := &http.Cookie{Name: sessionCookieName, Value: "s"}

	rec := doJSON(t, router, http.MethodGet, "/token", nil, []*http.Cookie{session}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	cookies := append([]*http.Cookie{session}, rec.Result().Cookies()...)
	rec = doJSON(t, router, http.MethodPost, "/change", gin.H{}, cookies, map[string]string{CSRFTokenHeader: token})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_SkipsValidBearer(t *testing.T) {
	svc, _ := newTestService(t, config.Auth{})
	user, err := svc.CreateUser("admin", "admin@example.com", testPassword, entities.UserRoleAdmin)
	require.NoError(t, err)
	token, err := svc.GenerateToken(user.ID)
	require.NoError(t, err)

	router := newCSRFRouter(svc)
	session := &http.Cookie{Name: sessionCookieName, Value: "s"}

	rec := doJSON(t, router, http.MethodPost, "/change", gin.H{}, []*http.Cookie{session},
		map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/change", gin.H{}, []*http.Cookie{session},
		map[string]string{"Authorization": "Bearer pp_forged"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
