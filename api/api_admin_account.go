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
	"github.com/bidtounsi/go-bidtounsi-server/util"
)

type AdminAccountApi struct {
	adminKeyService     *services.AdminKeyService
	userService         *services.UserService
	notificationService *services.NotificationService
	validate            *validator.Validate
}

func NewAdminAccountApi(adminKeyService *services.AdminKeyService, userService *services.UserService, notificationService *services.NotificationService) *AdminAccountApi {
	return &AdminAccountApi{
		adminKeyService:     adminKeyService,
		userService:         userService,
		notificationService: notificationService,
		validate:            validator.New(),
	}
}

// Register a new administrator
// @Summary Register a new administrator
// @Description Consumes a live request key bound to the email and creates the admin account. A fresh long-lived key is mailed to the new admin.
// @Tags Admin Account
// @Accept json
// @Produce json
// @Param request body types.InputRegisterAdmin true "registration"
// @Success 201 {object} types.OutputAdminCreated
// @Failure 400 {object} api.ApiError "invalid input or malformed key"
// @Failure 401 {object} api.ApiError "missing or invalid capability"
// @Failure 409 {object} api.ApiError "account already exists"
// @Failure 422 {object} api.ApiError "invalid or expired key"
// @Failure 500 {object} api.ApiError "internal server error"
// @Router /api/v1/admin/register [post]
func (aa *AdminAccountApi) RegisterAdmin(c *gin.Context) {
	var input types.InputRegisterAdmin
	if err := c.ShouldBindJSON(&input); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid input")
		return
	}
	if err := aa.validate.Struct(input); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, "%s", msg)
		return
	}
	if !util.IsKeyFormat(input.Key) {
		ApiErrorf(c, http.StatusBadRequest, "malformed key")
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	// existing accounts are reported before the key is consumed, so a typo
	// doesn't burn a valid key
	exists, eErr := aa.userService.Exists(c.Request.Context(), email)
	if eErr != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to check account")
		return
	}
	if exists {
		ApiErrorf(c, http.StatusConflict, "an account already exists for this email")
		return
	}

	redeemed, rErr := aa.adminKeyService.RedeemKey(c.Request.Context(), input.Key, email)
	if rErr != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to verify key")
		return
	}
	if !redeemed {
		metrics.KeyRedeemFailures.Inc()
		// one message for every rejection reason
		ApiErrorf(c, http.StatusUnprocessableEntity, "invalid or expired key")
		return
	}
	metrics.KeysRedeemed.Inc()

	user, uErr := aa.userService.CreateAdminUser(c.Request.Context(), email, input.Password, input.Name, input.PhoneNumber)
	if uErr != nil {
		if errors.Is(uErr, types.ErrUserExists) {
			ApiErrorf(c, http.StatusConflict, "an account already exists for this email")
			return
		}
		ApiErrorf(c, http.StatusInternalServerError, "failed to create account")
		return
	}

	adminKey, kErr := aa.adminKeyService.CreateKey(c.Request.Context(), email, input.Name, types.KeyKindAdmin)
	if kErr != nil {
		ApiErrorf(c, http.StatusInternalServerError, "account created but key issuance failed")
		return
	}
	metrics.KeysIssued.WithLabelValues("admin").Inc()

	emailSent := aa.notificationService.SendAdminKeyMail(c.Request.Context(), email, input.Name, adminKey.Key)
	if emailSent {
		metrics.MailsSent.Inc()
	} else {
		metrics.MailsFailed.Inc()
	}

	c.JSON(http.StatusCreated, types.OutputAdminCreated{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		AdminKey:  adminKey.Key,
		EmailSent: emailSent,
	})
}
