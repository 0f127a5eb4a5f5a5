package types

type OK struct {
	IsOK bool `json:"ok"`
}

type CouchDBError struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// BaseDocument carries the CouchDB document envelope fields
type BaseDocument struct {
	ID      string `json:"_id,omitempty"`
	Rev     string `json:"_rev,omitempty"`
	Deleted bool   `json:"_deleted,omitempty"`
}

type DesignDocument struct {
	Language string                 `json:"language"`
	Views    map[string]MapFunction `json:"views"`
}

type MapFunction struct {
	Map    string `json:"map"`
	Reduce string `json:"reduce,omitempty"`
}

// FindResult is the envelope of a Mango _find response
type FindResult[T any] struct {
	Docs     []T    `json:"docs"`
	Bookmark string `json:"bookmark,omitempty"`
	Warning  string `json:"warning,omitempty"`
}
