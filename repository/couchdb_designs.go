package repository

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

func createDesignAndView(databaseName string, designName string, viewName string, mapFunction string, reduceFunction string) error {
	client := resty.New().SetTimeout(time.Second*10).SetBasicAuth(global.Conf.CouchDB.Username, global.Conf.CouchDB.Password)

	host := ""
	scheme := global.Conf.CouchDB.Scheme
	if scheme == "" {
		scheme = "http"
	}
	if global.Conf.CouchDB.Port != 0 {
		host = fmt.Sprintf("%s://%s:%d", scheme, global.Conf.CouchDB.Host, global.Conf.CouchDB.Port)
	} else {
		host = fmt.Sprintf("%s://%s", scheme, global.Conf.CouchDB.Host)
	}

	// check if the view already exists
	url := fmt.Sprintf("%s/%s/_design/%s/_view/%s", host, databaseName, designName, viewName)
	existingResponse, eErr := client.R().Head(url)
	if eErr != nil {
		return eErr
	}
	if existingResponse.StatusCode() == 200 {
		return nil // view already exists
	}
	if existingResponse.IsError() && existingResponse.StatusCode() != 404 {
		return fmt.Errorf("failed to check design %s view %s: %s", designName, viewName, existingResponse.Body())
	}

	// create a design document and a view
	ddoc := &types.DesignDocument{
		Language: "javascript",
		Views: map[string]types.MapFunction{
			viewName: {
				Map: mapFunction,
			},
		},
	}
	if reduceFunction != "" {
		temp := ddoc.Views[viewName]
		temp.Reduce = reduceFunction
		ddoc.Views[viewName] = temp
	}
	url = fmt.Sprintf("%s/%s/_design/%s", host, databaseName, designName)
	resp, err := client.R().SetBody(ddoc).Put(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return handleError(resp)
	}

	return nil
}

// CreateDesign_ExpiredKeysByExpiry indexes admin keys by their expiry timestamp so
// the sweep can page through everything with expiresAt in the past. Live rows never
// fall below the sweep's endkey, so they are never selected.
func CreateDesign_ExpiredKeysByExpiry(databaseName string, designName string, viewName string) error {
	mapFunction := `function(doc)
						{
							if (doc.key && doc.expiresAt) {
								emit(doc.expiresAt, doc._rev);
							}
						}`
	return createDesignAndView(databaseName, designName, viewName, mapFunction, "")
}
