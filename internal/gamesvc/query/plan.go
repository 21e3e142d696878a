// Package query turns listing criteria into a storage-neutral Plan: a list of
// filter descriptors, ordered sort keys and a page window. Each catalog
// backend interprets the same Plan (SQL, MongoDB, in-memory).
package query

import (
	"github.com/avvvet/game-manager/internal/gamesvc/models"
)

const (
	DefaultOffset = 0
	DefaultLimit  = 10
	MinLimit      = 1
	MaxLimit      = 100
)

type Field string

const (
	FieldID          Field = "id"
	FieldTitle       Field = "title"
	FieldPlatform    Field = "platform"
	FieldGenre       Field = "genre"
	FieldDeveloper   Field = "developer"
	FieldReleaseDate Field = "releaseDate"
	FieldCreatedAt   Field = "createdAt"
)

type Operator string

const (
	// OpIn matches when the field equals one of Value ([]string).
	OpIn Operator = "in"
	// OpContains is a case-insensitive substring match on Value (string).
	OpContains Operator = "contains"
	// OpOn matches rows falling on the calendar day Value (models.Date).
	OpOn Operator = "on"
	// OpFrom matches rows on or after the start of day Value.
	OpFrom Operator = "from"
	// OpUntil matches rows on or before the end of day Value.
	OpUntil Operator = "until"
)

type Filter struct {
	Field Field
	Op    Operator
	Value any
}

type Sort struct {
	Field Field
	Desc  bool
}

// Plan is the translated form of a listing request. Filters are ANDed.
type Plan struct {
	Filters []Filter
	Sorts   []Sort
	Offset  int
	Limit   int
}

func (f Filter) strings() []string {
	v, _ := f.Value.([]string)
	return v
}

func (f Filter) str() string {
	v, _ := f.Value.(string)
	return v
}

func (f Filter) date() models.Date {
	v, _ := f.Value.(models.Date)
	return v
}
