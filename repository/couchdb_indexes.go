package repository

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

// CreateAdminKeyEmailIndex creates the index serving the live-key-by-email lookup
// (supersede-on-issue and the key status endpoint both select on these fields)
func CreateAdminKeyEmailIndex(keyRepo Repository) error {
	emailIndex := map[string]interface{}{
		"index": map[string]interface{}{
			"fields": []string{"email", "isUsed", "expiresAt"},
		},
		"name": "adminkey-email-index",
		"type": "json",
		"ddoc": "adminkey-email-index",
	}
	c := keyRepo.GetClient().(*resty.Client)
	resp, rErr := c.R().SetBody(emailIndex).Post(fmt.Sprintf("%s/%s", keyRepo.GetDBName(), "_index"))
	if rErr != nil {
		return rErr
	}
	if resp.IsError() {
		return handleError(resp)
	}
	return nil
}
