package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

type ContactApi struct {
	env      *types.Environment
	validate *validator.Validate
}

func NewContactApi(env *types.Environment) *ContactApi {
	return &ContactApi{
		env:      env,
		validate: validator.New(),
	}
}

// Submit a contact message
// @Summary Submit a contact message
// @Description Queues a contact form message for delivery to the trusted mailbox
// @Tags Contact
// @Accept json
// @Produce json
// @Param request body types.InputContact true "contact message"
// @Success 202 {object} map[string]string
// @Failure 400 {object} api.ApiError "invalid input"
// @Failure 500 {object} api.ApiError "internal server error"
// @Router /api/v1/contact [post]
func (ca *ContactApi) SubmitContact(c *gin.Context) {
	var input types.InputContact
	if err := c.ShouldBindJSON(&input); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid input")
		return
	}
	if err := ca.validate.Struct(input); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, "%s", msg)
		return
	}

	if len(global.Conf.SmtpServers) == 0 || ca.env.TaskClient == nil {
		ApiErrorf(c, http.StatusInternalServerError, "contact channel unavailable")
		return
	}
	from := global.Conf.SmtpServers[0].From

	html := fmt.Sprintf(`<div><h3>Message de contact</h3>
		<p><strong>Nom :</strong> %s</p>
		<p><strong>Email :</strong> %s</p>
		<p><strong>Téléphone :</strong> %s</p>
		<p><strong>Sujet :</strong> %s</p>
		<p>%s</p></div>`, input.Name, input.Email, input.Phone, input.Subject, input.Message)

	task, tErr := types.NewEmailSendTask(&types.EmailTask{
		ID:      uuid.NewString(),
		From:    from,
		To:      global.Conf.Admin.TrustedEmail,
		Subject: fmt.Sprintf("BidTounsi - Contact : %s", input.Subject),
		Html:    html,
		Text:    fmt.Sprintf("%s (%s): %s", input.Name, input.Email, input.Message),
	})
	if tErr != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to queue message")
		return
	}
	if _, qErr := ca.env.TaskClient.Enqueue(task); qErr != nil {
		global.Logger.Log("level", "error", "msg", "failed to enqueue contact mail", "err", qErr.Error())
		ApiErrorf(c, http.StatusInternalServerError, "failed to queue message")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
