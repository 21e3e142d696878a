package query

import (
	"sort"
	"strings"

	"github.com/avvvet/game-manager/internal/gamesvc/models"
)

// Match reports whether g satisfies every filter of p.
func (p Plan) Match(g *models.Game) bool {
	for _, f := range p.Filters {
		if !matchFilter(f, g) {
			return false
		}
	}
	return true
}

func matchFilter(f Filter, g *models.Game) bool {
	switch f.Op {
	case OpIn:
		for _, id := range f.strings() {
			if id == g.ID {
				return true
			}
		}
		return false
	case OpContains:
		return strings.Contains(strings.ToLower(textField(f.Field, g)), strings.ToLower(f.str()))
	case OpOn:
		d := f.date()
		if f.Field == FieldReleaseDate {
			return g.ReleaseDate != nil && g.ReleaseDate.Equal(d)
		}
		return !g.CreatedAt.Before(d.Start()) && g.CreatedAt.Before(d.End())
	case OpFrom:
		return !g.CreatedAt.Before(f.date().Start())
	case OpUntil:
		return g.CreatedAt.Before(f.date().End())
	}
	return false
}

func textField(field Field, g *models.Game) string {
	switch field {
	case FieldID:
		return g.ID
	case FieldTitle:
		return g.Title
	case FieldPlatform:
		return g.Platform
	case FieldGenre:
		return g.Genre
	case FieldDeveloper:
		return g.Developer
	}
	return ""
}

// Less orders a before b according to the sort keys of p.
func (p Plan) Less(a, b *models.Game) bool {
	for _, s := range p.Sorts {
		c := compare(s.Field, a, b)
		if c == 0 {
			continue
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compare(field Field, a, b *models.Game) int {
	if field == FieldCreatedAt {
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return strings.Compare(textField(field, a), textField(field, b))
}

// Apply filters, sorts and pages games in memory. The input is not modified.
func (p Plan) Apply(games []*models.Game) []*models.Game {
	matched := make([]*models.Game, 0, len(games))
	for _, g := range games {
		if p.Match(g) {
			matched = append(matched, g)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return p.Less(matched[i], matched[j])
	})

	if p.Offset >= len(matched) {
		return []*models.Game{}
	}
	end := p.Offset + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[p.Offset:end]
}
