package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/bidtounsi/go-bidtounsi-server/email"
	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/repository"
	"github.com/bidtounsi/go-bidtounsi-server/services"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

var testURL = "http://localhost:5689"

type fakeMailHandler struct {
	fail   bool
	lastTo string
	body   string
}

func (f *fakeMailHandler) SendMail(ctx context.Context, from string, to string, subject string, htmlBody string, textBody string) (string, error) {
	if f.fail {
		return "", fmt.Errorf("provider unavailable")
	}
	f.lastTo = to
	f.body = htmlBody
	return "msg-1", nil
}

type testEnv struct {
	router  *gin.Engine
	mail    *fakeMailHandler
	keyApi  *AdminKeyApi
	acctApi *AdminAccountApi
}

func setupApiTest(t *testing.T) *testEnv {
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	ok, _ := httpmock.NewJsonResponder(201, types.OK{IsOK: true})
	for _, db := range []string{repository.AdminKeys, repository.Users} {
		httpmock.RegisterResponder("HEAD", fmt.Sprintf("%s/%s", testURL, db), ok)
		httpmock.RegisterResponder("PUT", fmt.Sprintf("%s/%s", testURL, db), ok)
	}

	keyRepo, kErr := repository.NewCouchDBRepository(testURL, repository.AdminKeys, "test", "test", true)
	userRepo, uErr := repository.NewCouchDBRepository(testURL, repository.Users, "test", "test", true)
	if kErr != nil || uErr != nil {
		t.Fatal(kErr, uErr)
	}
	selector := repository.NewCouchDBSelector()
	selector.AddDB(keyRepo)
	selector.AddDB(userRepo)

	global.Conf.SmtpServers = []*global.SmtpServerConfig{
		{Provider: "fake", Domain: "mail.bidtounsi.test", From: "noreply@bidtounsi.test"},
	}
	global.Conf.Admin.TrustedEmail = "trusted@bidtounsi.test"
	mail := &fakeMailHandler{}
	email.Register("mail.bidtounsi.test", mail)
	t.Cleanup(email.UnregisterAllHandlers)

	adminKeyService := services.NewAdminKeyService(selector)
	userService := services.NewUserService(selector)
	notificationService := services.NewNotificationService(nil)

	keyApi := NewAdminKeyApi(adminKeyService, userService, notificationService)
	acctApi := NewAdminAccountApi(adminKeyService, userService, notificationService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/admin/keys/request", keyApi.RequestKey)
	router.GET("/api/v1/admin/keys/status/:email", keyApi.KeyStatus)
	router.POST("/api/v1/admin/register", acctApi.RegisterAdmin)

	return &testEnv{router: router, mail: mail, keyApi: keyApi, acctApi: acctApi}
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func registerEmptyFind(db string) {
	r, _ := httpmock.NewJsonResponder(200, types.FindResult[types.AdminKey]{Docs: []types.AdminKey{}})
	httpmock.RegisterResponder("POST", fmt.Sprintf("%s/%s/_find", testURL, db), r)
}

func TestRequestKeyNeverEchoesKey(t *testing.T) {
	env := setupApiTest(t)

	registerEmptyFind(repository.AdminKeys)
	ok, _ := httpmock.NewJsonResponder(201, types.OK{IsOK: true})
	httpmock.RegisterResponder("PUT", fmt.Sprintf(`=~^%s/%s/.+`, testURL, repository.AdminKeys), ok)

	w := postJSON(env.router, "/api/v1/admin/keys/request", types.InputRequestKey{Email: "someone@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	var out types.OutputKeyRequest
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "ok", out.Status)
	assert.True(t, out.Delivered)

	// the key reaches only the trusted mailbox, never the HTTP response
	assert.Equal(t, "trusted@bidtounsi.test", env.mail.lastTo)
	assert.NotContains(t, w.Body.String(), "BIDTOUNSI_")
}

func TestRequestKeyInvalidEmail(t *testing.T) {
	env := setupApiTest(t)

	w := postJSON(env.router, "/api/v1/admin/keys/request", types.InputRequestKey{Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestKeyReportsFailedDelivery(t *testing.T) {
	env := setupApiTest(t)
	env.mail.fail = true

	registerEmptyFind(repository.AdminKeys)
	ok, _ := httpmock.NewJsonResponder(201, types.OK{IsOK: true})
	httpmock.RegisterResponder("PUT", fmt.Sprintf(`=~^%s/%s/.+`, testURL, repository.AdminKeys), ok)

	w := postJSON(env.router, "/api/v1/admin/keys/request", types.InputRequestKey{Email: "someone@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	var out types.OutputKeyRequest
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.False(t, out.Delivered)
}

func TestKeyStatus(t *testing.T) {
	env := setupApiTest(t)

	live := types.AdminKey{
		BaseDocument: types.BaseDocument{ID: "BT-ABCDEF12-01234567-89ABCDEF", Rev: "1-a"},
		Key:          "BT-ABCDEF12-01234567-89ABCDEF",
		Email:        "admin@example.com",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}
	found, _ := httpmock.NewJsonResponder(200, types.FindResult[types.AdminKey]{Docs: []types.AdminKey{live}})
	httpmock.RegisterResponder("POST", fmt.Sprintf("%s/%s/_find", testURL, repository.AdminKeys), found)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/admin/keys/status/admin@example.com", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var out types.OutputKeyStatus
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.HasActiveKey)
	assert.Equal(t, live.ExpiresAt, out.KeyExpiresAt)
	// the key value itself stays hidden
	assert.NotContains(t, w.Body.String(), live.Key)
}

func TestKeyStatusNoKey(t *testing.T) {
	env := setupApiTest(t)

	registerEmptyFind(repository.AdminKeys)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/admin/keys/status/nobody@example.com", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var out types.OutputKeyStatus
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.False(t, out.HasActiveKey)
}
