package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/bidtounsi/go-bidtounsi-server/api/interceptors"
	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

const (
	googleIssuer  = "https://accounts.google.com"
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

	capabilityTTL = 15 * time.Minute
)

// IdentityApi turns a Google ID token into a short-lived capability when the
// token belongs to the configured privileged identity. The trust decision
// never leaves the server.
type IdentityApi struct {
	jwksCache *jwk.Cache
	validate  *validator.Validate
}

func NewIdentityApi(ctx context.Context) (*IdentityApi, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(googleJWKSURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, err
	}
	return &IdentityApi{
		jwksCache: cache,
		validate:  validator.New(),
	}, nil
}

// Verify a privileged identity
// @Summary Verify a privileged identity
// @Description Verifies a Google ID token against Google's signing keys and, when it belongs to the privileged identity, returns a short-lived capability token
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body types.InputVerifyIdentity true "google id token"
// @Success 200 {object} types.OutputIdentityAssertion
// @Failure 400 {object} api.ApiError "invalid input"
// @Failure 401 {object} api.ApiError "token verification failed"
// @Failure 403 {object} api.ApiError "not the privileged identity"
// @Failure 500 {object} api.ApiError "internal server error"
// @Router /api/v1/admin/identity/verify [post]
func (ia *IdentityApi) VerifyIdentity(c *gin.Context) {
	var input types.InputVerifyIdentity
	if err := c.ShouldBindJSON(&input); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid input")
		return
	}
	if err := ia.validate.Struct(input); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, "%s", msg)
		return
	}

	keySet, ksErr := ia.jwksCache.Get(c.Request.Context(), googleJWKSURL)
	if ksErr != nil {
		global.Logger.Log("level", "error", "msg", "failed to fetch google signing keys", "err", ksErr.Error())
		ApiErrorf(c, http.StatusInternalServerError, "identity verification unavailable")
		return
	}

	token, pErr := jwt.Parse([]byte(input.IDToken),
		jwt.WithKeySet(keySet),
		jwt.WithIssuer(googleIssuer),
		jwt.WithAudience(global.Conf.Admin.GoogleClientID),
		jwt.WithValidate(true),
	)
	if pErr != nil {
		ApiErrorf(c, http.StatusUnauthorized, "identity token verification failed")
		return
	}

	emailClaim, ok := token.Get("email")
	email, isStr := emailClaim.(string)
	if !ok || !isStr || email == "" {
		ApiErrorf(c, http.StatusUnauthorized, "identity token carries no email")
		return
	}
	if verified, vOk := token.Get("email_verified"); vOk {
		if vb, isBool := verified.(bool); isBool && !vb {
			ApiErrorf(c, http.StatusUnauthorized, "identity email not verified")
			return
		}
	}

	if !strings.EqualFold(email, global.Conf.Admin.PrivilegedEmail) {
		ApiErrorf(c, http.StatusForbidden, "identity is not authorized for admin provisioning")
		return
	}

	capability, cErr := interceptors.GenerateCapabilityToken(global.CapabilityPrivateKey, strings.ToLower(email))
	if cErr != nil {
		global.Logger.Log("level", "error", "msg", "failed to sign capability token", "err", cErr.Error())
		ApiErrorf(c, http.StatusInternalServerError, "failed to issue capability")
		return
	}

	c.JSON(http.StatusOK, types.OutputIdentityAssertion{
		Capability: capability,
		Email:      strings.ToLower(email),
		ExpiresAt:  time.Now().Add(capabilityTTL).UTC().UnixMilli(),
	})
}
