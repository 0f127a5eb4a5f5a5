package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
)

// implements Repository interface using CouchDB
type CouchDBRepository struct {
	client *resty.Client
	dbName string
}

func NewCouchDBRepository(url, dbName string, username string, password string, mock bool) (Repository, error) {
	cl := resty.New().SetBaseURL(url).SetTimeout(time.Second * 10)
	cl.SetHeader("Content-Type", "application/json")
	cl.SetHeader("Accept", "application/json")
	cl.SetBasicAuth(username, password)

	if mock {
		httpmock.ActivateNonDefault(cl.GetClient())
	}

	existsRes, existsErr := cl.R().Head(dbName)
	if existsErr != nil {
		return nil, fmt.Errorf("failed to check if database exists: %s", existsErr.Error())
	}
	if existsRes.StatusCode() == 200 {
		return &CouchDBRepository{cl, dbName}, nil
	}

	// create DB since it doesn't exist
	createRes, createErr := cl.R().Put(dbName)
	if createErr != nil {
		return nil, fmt.Errorf("failed to create database %s: %s", dbName, createErr.Error())
	}
	if createRes.IsError() {
		return nil, fmt.Errorf("failed to create database %s: %s", dbName, createRes.Body())
	}
	return &CouchDBRepository{cl, dbName}, nil
}

// GetByID returns the raw response for a document by its ID (mapped with MapToObject)
func (c *CouchDBRepository) GetByID(ctx context.Context, id string) (interface{}, error) {
	response, err := c.client.R().SetContext(ctx).Get(fmt.Sprintf("%s/%s", c.dbName, id))
	if err != nil {
		return nil, err
	}
	if response.IsError() {
		return nil, handleError(response)
	}
	return response, nil
}

// Find runs a Mango _find query against the database
func (c *CouchDBRepository) Find(ctx context.Context, query map[string]interface{}) (interface{}, error) {
	response, err := c.client.R().SetContext(ctx).SetBody(query).Post(fmt.Sprintf("%s/_find", c.dbName))
	if err != nil {
		return nil, err
	}
	if response.IsError() {
		return nil, handleError(response)
	}
	return response, nil
}

// Save creates a new doc or updates an existing one (body must carry _rev for updates)
func (c *CouchDBRepository) Save(ctx context.Context, docID string, data interface{}) error {
	response, err := c.client.R().SetContext(ctx).SetBody(data).Put(fmt.Sprintf("%s/%s", c.dbName, docID))
	if err != nil {
		return err
	}
	if response.IsError() {
		return handleError(response)
	}
	return nil
}

// Update updates an existing document. The body carries the fetched _rev, so a
// concurrent writer on the same revision gets ErrConflict — this is the
// compare-and-set the redeem path relies on.
func (c *CouchDBRepository) Update(ctx context.Context, docID string, data interface{}) error {
	response, err := c.client.R().SetContext(ctx).SetBody(data).Put(fmt.Sprintf("%s/%s", c.dbName, docID))
	if err != nil {
		return err
	}
	if response.IsError() {
		return handleError(response)
	}
	return nil
}

// BulkDelete removes documents through _bulk_docs (docs must carry _id, _rev, _deleted)
func (c *CouchDBRepository) BulkDelete(ctx context.Context, docs interface{}) error {
	body := map[string]interface{}{
		"docs": docs,
	}
	response, err := c.client.R().SetContext(ctx).SetBody(body).Post(fmt.Sprintf("%s/_bulk_docs", c.dbName))
	if err != nil {
		return err
	}
	if response.IsError() {
		return handleError(response)
	}
	return nil
}

// return name of the database
func (c *CouchDBRepository) GetDBName() string {
	return c.dbName
}

// returns a resty client
func (c *CouchDBRepository) GetClient() interface{} {
	return c.client
}
