package interceptors

import (
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/bidtounsi/go-bidtounsi-server/global"
)

func setupCapabilityKeys(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	global.CapabilityPublicKey = pub
	global.CapabilityPrivateKey = priv
}

func capabilityRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", CapabilityMiddleware(), func(c *gin.Context) {
		identity, _ := AssertedIdentity(c)
		c.JSON(http.StatusOK, gin.H{"identity": identity})
	})
	return router
}

func TestCapabilityTokenRoundTrip(t *testing.T) {
	setupCapabilityKeys(t)
	router := capabilityRouter()

	token, err := GenerateCapabilityToken(global.CapabilityPrivateKey, "boss@example.com")
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "boss@example.com")
}

func TestCapabilityMissingHeader(t *testing.T) {
	setupCapabilityKeys(t)
	router := capabilityRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCapabilityGarbageToken(t *testing.T) {
	setupCapabilityKeys(t)
	router := capabilityRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "not-a-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCapabilitySignedByWrongKey(t *testing.T) {
	setupCapabilityKeys(t)
	router := capabilityRouter()

	// token signed with a key the server does not trust
	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	assert.NoError(t, err)
	token, err := GenerateCapabilityToken(otherPriv, "boss@example.com")
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
