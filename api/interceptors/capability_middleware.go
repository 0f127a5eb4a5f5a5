package interceptors

import (
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-jose/go-jose/v3"
	"github.com/google/uuid"

	"github.com/bidtounsi/go-bidtounsi-server/global"
)

const (
	capabilityAudience  = "admin-capability"
	capabilityExpiry    = 15 * time.Minute
	assertedIdentityKey = "assertedIdentity"
)

// GenerateCapabilityToken signs a short-lived capability for the asserted
// identity. The token only proves that the server verified the privileged
// identity moments ago; it carries no other rights.
func GenerateCapabilityToken(serverPrivateKey ed25519.PrivateKey, email string) (string, error) {
	now := time.Now()
	pl := map[string]interface{}{
		"iss": "bidtounsi",
		"sub": email,
		"aud": capabilityAudience,
		"iat": now.Unix(),
		"exp": now.Add(capabilityExpiry).Unix(),
		"jti": uuid.NewString(),
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: serverPrivateKey}, nil)
	if err != nil {
		return "", err
	}
	plBytes, plErr := json.Marshal(pl)
	if plErr != nil {
		return "", plErr
	}
	object, err := signer.Sign(plBytes)
	if err != nil {
		return "", err
	}
	return object.CompactSerialize()
}

// CapabilityMiddleware verifies the capability token from the Authorization
// header and stores the asserted identity in the context.
func CapabilityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}

		object, err := jose.ParseSigned(auth)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid capability token"})
			return
		}
		payload, err := object.Verify(global.CapabilityPublicKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Failed to verify capability token"})
			return
		}

		var claims struct {
			Sub string `json:"sub"`
			Aud string `json:"aud"`
			Exp int64  `json:"exp"`
		}
		if uErr := json.Unmarshal(payload, &claims); uErr != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to parse capability token"})
			return
		}
		if claims.Aud != capabilityAudience {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Capability token audience mismatch"})
			return
		}
		if claims.Exp < time.Now().Unix() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Capability token expired"})
			return
		}
		if claims.Sub == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Capability token subject missing"})
			return
		}

		c.Set(assertedIdentityKey, claims.Sub)
		c.Next()
	}
}

// AssertedIdentity returns the identity the capability middleware verified
func AssertedIdentity(c *gin.Context) (string, bool) {
	v, ok := c.Get(assertedIdentityKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
