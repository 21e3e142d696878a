package query

import (
	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
)

var sortable = map[models.OrderBy]Field{
	models.OrderByTitle:     FieldTitle,
	models.OrderByPlatform:  FieldPlatform,
	models.OrderByGenre:     FieldGenre,
	models.OrderByCreatedAt: FieldCreatedAt,
}

// Normalize validates c and resolves the createdAt / from-to exclusivity.
// It never touches a store, so callers run it before any remote call.
func Normalize(c models.ListCriteria) (models.ListCriteria, error) {
	if len(c.OrderByList) != len(c.OrderDirectionList) {
		return c, apperr.ParameterInvalid(
			"Invalid orderBy and orderDirection pair. 'orderBy' size is %d and orderDirection size is %d. Both sizes must match",
			len(c.OrderByList), len(c.OrderDirectionList))
	}
	for _, by := range c.OrderByList {
		if _, ok := sortable[by]; !ok {
			return c, apperr.ParameterInvalid("Invalid orderBy value '%s'.", by)
		}
	}
	for _, dir := range c.OrderDirectionList {
		if dir != models.OrderAsc && dir != models.OrderDesc {
			return c, apperr.ParameterInvalid("Invalid orderDirection value '%s'.", dir)
		}
	}

	if c.CreatedAt != nil {
		c.From = nil
		c.To = nil
	}
	if c.From != nil && c.To != nil && c.To.Before(*c.From) {
		return c, apperr.ParameterInvalid("Invalid dates input: 'to' must be later than 'from'.")
	}
	return c, nil
}

// Translate builds the Plan for c. A nil c.IDs imposes no id constraint; a
// non-nil empty c.IDs matches nothing.
func Translate(c models.ListCriteria) (Plan, error) {
	c, err := Normalize(c)
	if err != nil {
		return Plan{}, err
	}

	p := Plan{
		Offset: clampOffset(c.Offset),
		Limit:  clampLimit(c.Limit),
	}

	if c.IDs != nil {
		ids := make([]string, len(c.IDs))
		copy(ids, c.IDs)
		p.Filters = append(p.Filters, Filter{Field: FieldID, Op: OpIn, Value: ids})
	}
	p.addContains(FieldTitle, c.Title)
	p.addContains(FieldPlatform, c.Platform)
	p.addContains(FieldGenre, c.Genre)
	p.addContains(FieldDeveloper, c.Developer)
	if c.ReleaseDate != nil {
		p.Filters = append(p.Filters, Filter{Field: FieldReleaseDate, Op: OpOn, Value: *c.ReleaseDate})
	}
	if c.CreatedAt != nil {
		p.Filters = append(p.Filters, Filter{Field: FieldCreatedAt, Op: OpOn, Value: *c.CreatedAt})
	}
	if c.From != nil {
		p.Filters = append(p.Filters, Filter{Field: FieldCreatedAt, Op: OpFrom, Value: *c.From})
	}
	if c.To != nil {
		p.Filters = append(p.Filters, Filter{Field: FieldCreatedAt, Op: OpUntil, Value: *c.To})
	}

	seen := map[Field]bool{}
	for i, by := range c.OrderByList {
		field := sortable[by]
		if seen[field] {
			continue
		}
		seen[field] = true
		p.Sorts = append(p.Sorts, Sort{Field: field, Desc: c.OrderDirectionList[i] == models.OrderDesc})
	}
	if len(p.Sorts) == 0 {
		p.Sorts = append(p.Sorts, Sort{Field: FieldTitle})
	}
	// id breaks ties so pages never overlap
	p.Sorts = append(p.Sorts, Sort{Field: FieldID})

	return p, nil
}

func (p *Plan) addContains(field Field, v string) {
	if v == "" {
		return
	}
	p.Filters = append(p.Filters, Filter{Field: field, Op: OpContains, Value: v})
}

func clampOffset(offset *int) int {
	if offset == nil || *offset < 0 {
		return DefaultOffset
	}
	return *offset
}

func clampLimit(limit *int) int {
	if limit == nil {
		return DefaultLimit
	}
	if *limit < MinLimit {
		return MinLimit
	}
	if *limit > MaxLimit {
		return MaxLimit
	}
	return *limit
}
