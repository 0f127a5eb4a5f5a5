package repository

import (
	"context"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (interface{}, error)
	Find(ctx context.Context, query map[string]interface{}) (interface{}, error)
	Save(ctx context.Context, docID string, data interface{}) error
	Update(ctx context.Context, docID string, data interface{}) error
	BulkDelete(ctx context.Context, docs interface{}) error
	GetDBName() string
	GetClient() interface{}
}

type DBSelector interface {
	ChooseDB(dbName string) (Repository, error)
}
