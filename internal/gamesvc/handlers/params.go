package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
	"github.com/avvvet/game-manager/internal/gamesvc/validation"
)

// parseListCriteria reads the listing query parameters. Range checks on
// offset and limit are left to the translator, which clamps them.
func parseListCriteria(q url.Values) (models.ListCriteria, error) {
	var (
		c   models.ListCriteria
		err error
	)

	if c.Offset, err = intParam(q, "offset"); err != nil {
		return c, err
	}
	if c.Limit, err = intParam(q, "limit"); err != nil {
		return c, err
	}
	if raw := q.Get("ids"); raw != "" {
		if c.IDs, err = validation.IDList(raw); err != nil {
			return c, err
		}
	}

	for name, dst := range map[string]*string{
		"title":     &c.Title,
		"platform":  &c.Platform,
		"genre":     &c.Genre,
		"developer": &c.Developer,
	} {
		*dst = q.Get(name)
		if err = validation.Pattern(name, *dst); err != nil {
			return c, err
		}
	}

	for name, dst := range map[string]**models.Date{
		"releaseDate": &c.ReleaseDate,
		"createdAt":   &c.CreatedAt,
		"from":        &c.From,
		"to":          &c.To,
	} {
		if *dst, err = dateParam(q, name); err != nil {
			return c, err
		}
	}

	orderBy := listParam(q, "orderBy")
	orderDirection := listParam(q, "orderDirection")
	if len(orderBy) == 0 {
		orderBy = []string{"TITLE"}
	}
	if len(orderDirection) == 0 {
		orderDirection = []string{"ASC"}
	}
	for _, raw := range orderBy {
		by, err := models.ParseOrderBy(raw)
		if err != nil {
			return c, apperr.ParameterInvalid("Invalid orderBy value '%s'.", raw)
		}
		c.OrderByList = append(c.OrderByList, by)
	}
	for _, raw := range orderDirection {
		dir, err := models.ParseOrderDirection(raw)
		if err != nil {
			return c, apperr.ParameterInvalid("Invalid orderDirection value '%s'.", raw)
		}
		c.OrderDirectionList = append(c.OrderDirectionList, dir)
	}
	return c, nil
}

func intParam(q url.Values, name string) (*int, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.ParameterInvalid("'%s' must be an integer.", name)
	}
	return &v, nil
}

func dateParam(q url.Values, name string) (*models.Date, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, apperr.ParameterInvalid("'%s' must be a date in the format %s.", name, models.DateLayout)
	}
	return &d, nil
}

// listParam accepts both repeated parameters and comma separated values.
func listParam(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
