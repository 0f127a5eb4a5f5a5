package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/bidtounsi/go-bidtounsi-server/types"
)

var url = "http://localhost:5689"

func InitMockDatabase(dbName string) (Repository, error) {
	httpmock.Activate()

	mr, mErr := httpmock.NewJsonResponder(201, types.OK{IsOK: true})
	if mErr != nil {
		return nil, mErr
	}
	httpmock.RegisterResponder("PUT", fmt.Sprintf("%s/%s", url, dbName), mr)
	httpmock.RegisterResponder("HEAD", fmt.Sprintf("%s/%s", url, dbName), mr)

	db, err := NewCouchDBRepository(url, dbName, "test", "test", true)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func deactivateMock() {
	httpmock.DeactivateAndReset()
}

func TestInitNewDatabase(t *testing.T) {
	db, err := InitMockDatabase("test")
	defer deactivateMock()
	if err != nil {
		t.Fatal(err)
	}
	if db == nil {
		t.Fatal("db is nil")
	}
}

func TestSaveAndGetByID(t *testing.T) {
	db, _ := InitMockDatabase("test")
	defer deactivateMock()

	mk, _ := httpmock.NewJsonResponder(201, types.OK{IsOK: true})
	httpmock.RegisterResponder("PUT", fmt.Sprintf("%s/%s/%s", url, "test", "doc1"), mk)

	mk, _ = httpmock.NewJsonResponder(200, types.BaseDocument{ID: "doc1", Rev: "1-abc"})
	httpmock.RegisterResponder("GET", fmt.Sprintf("%s/%s/%s", url, "test", "doc1"), mk)

	sErr := db.Save(context.Background(), "doc1", &types.BaseDocument{ID: "doc1"})
	assert.NoError(t, sErr)

	res, err := db.GetByID(context.Background(), "doc1")
	if err != nil {
		t.Fatal(err)
	}
	var doc types.BaseDocument
	mapErr := MapToObject(res.(*resty.Response), &doc)
	assert.NoError(t, mapErr)
	assert.Equal(t, "doc1", doc.ID)
	assert.Equal(t, "1-abc", doc.Rev)
}

func TestGetByIDNotFound(t *testing.T) {
	db, _ := InitMockDatabase("test")
	defer deactivateMock()

	mk, _ := httpmock.NewJsonResponder(404, types.CouchDBError{Error: "not_found", Reason: "missing"})
	httpmock.RegisterResponder("GET", fmt.Sprintf("%s/%s/%s", url, "test", "missing"), mk)

	_, err := db.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdateConflict(t *testing.T) {
	db, _ := InitMockDatabase("test")
	defer deactivateMock()

	mk, _ := httpmock.NewJsonResponder(409, types.CouchDBError{Error: "conflict", Reason: "Document update conflict."})
	httpmock.RegisterResponder("PUT", fmt.Sprintf("%s/%s/%s", url, "test", "doc1"), mk)

	err := db.Update(context.Background(), "doc1", &types.BaseDocument{ID: "doc1", Rev: "1-stale"})
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestFind(t *testing.T) {
	db, _ := InitMockDatabase("test")
	defer deactivateMock()

	result := types.FindResult[types.AdminKey]{
		Docs: []types.AdminKey{{Key: "BT-ABCDEF12-01234567-89ABCDEF", Email: "a@b.com"}},
	}
	mk, _ := httpmock.NewJsonResponder(200, result)
	httpmock.RegisterResponder("POST", fmt.Sprintf("%s/%s/_find", url, "test"), mk)

	res, err := db.Find(context.Background(), map[string]interface{}{
		"selector": map[string]interface{}{"email": "a@b.com"},
	})
	assert.NoError(t, err)

	var mapped types.FindResult[types.AdminKey]
	assert.NoError(t, MapToObject(res.(*resty.Response), &mapped))
	assert.Len(t, mapped.Docs, 1)
	assert.Equal(t, "a@b.com", mapped.Docs[0].Email)
}

func TestBulkDelete(t *testing.T) {
	db, _ := InitMockDatabase("test")
	defer deactivateMock()

	mk, _ := httpmock.NewJsonResponder(201, []types.OK{{IsOK: true}})
	httpmock.RegisterResponder("POST", fmt.Sprintf("%s/%s/_bulk_docs", url, "test"), mk)

	err := db.BulkDelete(context.Background(), []types.BaseDocument{
		{ID: "doc1", Rev: "1-abc", Deleted: true},
	})
	assert.NoError(t, err)
}

func TestChooseDB(t *testing.T) {
	db, _ := InitMockDatabase(AdminKeys)
	defer deactivateMock()

	selector := NewCouchDBSelector()
	selector.AddDB(db)

	chosen, err := selector.ChooseDB(AdminKeys)
	assert.NoError(t, err)
	assert.Equal(t, AdminKeys, chosen.GetDBName())

	_, missErr := selector.ChooseDB(Users)
	assert.ErrorIs(t, missErr, types.ErrNotFound)
}
