package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bidtounsi/go-bidtounsi-server/metrics"
	"github.com/bidtounsi/go-bidtounsi-server/services"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

type AdminKeyApi struct {
	adminKeyService     *services.AdminKeyService
	userService         *services.UserService
	notificationService *services.NotificationService
	validate            *validator.Validate
}

func NewAdminKeyApi(adminKeyService *services.AdminKeyService, userService *services.UserService, notificationService *services.NotificationService) *AdminKeyApi {
	return &AdminKeyApi{
		adminKeyService:     adminKeyService,
		userService:         userService,
		notificationService: notificationService,
		validate:            validator.New(),
	}
}

// Request a new short-lived admin key
// @Summary Request a new short-lived admin key
// @Description Mints a single-use request key bound to the given email and mails it to the trusted mailbox. The response never carries the key.
// @Tags Admin Keys
// @Accept json
// @Produce json
// @Param request body types.InputRequestKey true "key request"
// @Success 200 {object} types.OutputKeyRequest
// @Failure 400 {object} api.ApiError "invalid input"
// @Failure 401 {object} api.ApiError "missing or invalid capability"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "internal server error"
// @Router /api/v1/admin/keys/request [post]
func (aka *AdminKeyApi) RequestKey(c *gin.Context) {
	var input types.InputRequestKey
	if err := c.ShouldBindJSON(&input); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid input")
		return
	}
	if err := aka.validate.Struct(input); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, "%s", msg)
		return
	}

	key, err := aka.adminKeyService.CreateKey(c.Request.Context(), input.Email, "", types.KeyKindRequest)
	if err != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to issue key")
		return
	}
	metrics.KeysIssued.WithLabelValues("request").Inc()

	delivered := aka.notificationService.SendRequestKeyMail(c.Request.Context(), input.Email, key.Key)
	if delivered {
		metrics.MailsSent.Inc()
	} else {
		metrics.MailsFailed.Inc()
	}

	// the key value travels only over the out-of-band mail channel
	c.JSON(http.StatusOK, types.OutputKeyRequest{Status: "ok", Delivered: delivered})
}

// Key status for an email identity
// @Summary Key status for an email identity
// @Description Reports whether a live key exists for the email, without revealing the key
// @Tags Admin Keys
// @Produce json
// @Param email path string true "email identity"
// @Success 200 {object} types.OutputKeyStatus
// @Failure 400 {object} api.ApiError "invalid email"
// @Failure 500 {object} api.ApiError "internal server error"
// @Router /api/v1/admin/keys/status/{email} [get]
func (aka *AdminKeyApi) KeyStatus(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	if err := aka.validate.Var(email, "required,email"); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid email")
		return
	}

	out := types.OutputKeyStatus{Email: email}
	key, err := aka.adminKeyService.GetActiveKeyByEmail(c.Request.Context(), email)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			ApiErrorf(c, http.StatusInternalServerError, "failed to check key status")
			return
		}
	} else {
		out.HasActiveKey = true
		out.KeyExpiresAt = key.ExpiresAt
	}
	c.JSON(http.StatusOK, out)
}

// Re-issue a long-lived key to an existing admin
// @Summary Re-issue a long-lived key to an existing admin
// @Description Supersedes any live key for the admin and mails a fresh long-lived key to them
// @Tags Admin Keys
// @Accept json
// @Produce json
// @Param request body types.InputResendKey true "resend request"
// @Success 200 {object} types.OutputKeyRequest
// @Failure 400 {object} api.ApiError "invalid input"
// @Failure 401 {object} api.ApiError "missing or invalid capability"
// @Failure 404 {object} api.ApiError "no such admin"
// @Failure 500 {object} api.ApiError "internal server error"
// @Router /api/v1/admin/keys/resend [post]
func (aka *AdminKeyApi) ResendKey(c *gin.Context) {
	var input types.InputResendKey
	if err := c.ShouldBindJSON(&input); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid input")
		return
	}
	if err := aka.validate.Struct(input); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, "%s", msg)
		return
	}

	admin, err := aka.userService.GetAdminByEmail(c.Request.Context(), input.Email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			ApiErrorf(c, http.StatusNotFound, "no admin account for this email")
			return
		}
		ApiErrorf(c, http.StatusInternalServerError, "failed to load admin account")
		return
	}

	key, kErr := aka.adminKeyService.CreateKey(c.Request.Context(), admin.Email, admin.Name, types.KeyKindAdmin)
	if kErr != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to issue key")
		return
	}
	metrics.KeysIssued.WithLabelValues("admin").Inc()

	delivered := aka.notificationService.SendAdminKeyMail(c.Request.Context(), admin.Email, admin.Name, key.Key)
	if delivered {
		metrics.MailsSent.Inc()
	} else {
		metrics.MailsFailed.Inc()
	}
	c.JSON(http.StatusOK, types.OutputKeyRequest{Status: "ok", Delivered: delivered})
}
