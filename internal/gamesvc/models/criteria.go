package models

import (
	"fmt"
	"strings"
)

type OrderBy string

const (
	OrderByTitle     OrderBy = "title"
	OrderByPlatform  OrderBy = "platform"
	OrderByGenre     OrderBy = "genre"
	OrderByCreatedAt OrderBy = "createdAt"
)

var orderByNames = map[string]OrderBy{
	"title":      OrderByTitle,
	"platform":   OrderByPlatform,
	"genre":      OrderByGenre,
	"createdat":  OrderByCreatedAt,
	"created_at": OrderByCreatedAt,
}

// ParseOrderBy accepts either the enum name (CREATED_AT) or the value (createdAt).
func ParseOrderBy(s string) (OrderBy, error) {
	if o, ok := orderByNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return o, nil
	}
	return "", fmt.Errorf("invalid orderBy %q", s)
}

type OrderDirection string

const (
	OrderAsc  OrderDirection = "ascending"
	OrderDesc OrderDirection = "descending"
)

func ParseOrderDirection(s string) (OrderDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return OrderAsc, nil
	case "desc", "descending":
		return OrderDesc, nil
	}
	return "", fmt.Errorf("invalid orderDirection %q", s)
}

// ListCriteria is the full set of listing inputs. Nil pointers and empty
// strings mean "not supplied".
type ListCriteria struct {
	Offset             *int
	Limit              *int
	IDs                []string
	Title              string
	Platform           string
	Genre              string
	Developer          string
	ReleaseDate        *Date
	CreatedAt          *Date
	From               *Date
	To                 *Date
	OrderByList        []OrderBy
	OrderDirectionList []OrderDirection
}
