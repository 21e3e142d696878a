package query

import (
	"fmt"
	"strings"
)

var sqlColumns = map[Field]string{
	FieldID:          "id",
	FieldTitle:       "title",
	FieldPlatform:    "platform",
	FieldGenre:       "genre",
	FieldDeveloper:   "developer",
	FieldReleaseDate: "release_date",
	FieldCreatedAt:   "created_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SQL renders p as a PostgreSQL SELECT over table using positional
// parameters. Text sort keys use the C collation so ordering is byte-wise.
func (p Plan) SQL(table, columns string) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range p.Filters {
		col := sqlColumns[f.Field]
		switch f.Op {
		case OpIn:
			where = append(where, fmt.Sprintf("%s = ANY(%s)", col, arg(f.strings())))
		case OpContains:
			where = append(where, fmt.Sprintf("%s ILIKE %s", col, arg("%"+likeEscaper.Replace(f.str())+"%")))
		case OpOn:
			d := f.date()
			if f.Field == FieldReleaseDate {
				where = append(where, fmt.Sprintf("%s = %s", col, arg(d.Start())))
				continue
			}
			where = append(where, fmt.Sprintf("%s >= %s AND %s < %s", col, arg(d.Start()), col, arg(d.End())))
		case OpFrom:
			where = append(where, fmt.Sprintf("%s >= %s", col, arg(f.date().Start())))
		case OpUntil:
			where = append(where, fmt.Sprintf("%s < %s", col, arg(f.date().End())))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", columns, table)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	order := make([]string, 0, len(p.Sorts))
	for _, s := range p.Sorts {
		col := sqlColumns[s.Field]
		if s.Field != FieldCreatedAt {
			col += ` COLLATE "C"`
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		order = append(order, col+" "+dir)
	}
	if len(order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(order, ", "))
	}

	fmt.Fprintf(&sb, " OFFSET %s LIMIT %s", arg(p.Offset), arg(p.Limit))
	return sb.String(), args
}
