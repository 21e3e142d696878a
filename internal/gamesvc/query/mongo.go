package query

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoKeys = map[Field]string{
	FieldID:          "id",
	FieldTitle:       "title",
	FieldPlatform:    "platform",
	FieldGenre:       "genre",
	FieldDeveloper:   "developer",
	FieldReleaseDate: "release_date",
	FieldCreatedAt:   "created_at",
}

// Mongo renders p as a find filter plus sort/skip/limit options.
func (p Plan) Mongo() (bson.D, *options.FindOptions) {
	conds := bson.A{}
	for _, f := range p.Filters {
		key := mongoKeys[f.Field]
		switch f.Op {
		case OpIn:
			conds = append(conds, bson.D{{Key: key, Value: bson.D{{Key: "$in", Value: f.strings()}}}})
		case OpContains:
			rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.str()), Options: "i"}
			conds = append(conds, bson.D{{Key: key, Value: rx}})
		case OpOn:
			d := f.date()
			if f.Field == FieldReleaseDate {
				conds = append(conds, bson.D{{Key: key, Value: d.Start()}})
				continue
			}
			conds = append(conds, bson.D{{Key: key, Value: bson.D{
				{Key: "$gte", Value: d.Start()},
				{Key: "$lt", Value: d.End()},
			}}})
		case OpFrom:
			conds = append(conds, bson.D{{Key: key, Value: bson.D{{Key: "$gte", Value: f.date().Start()}}}})
		case OpUntil:
			conds = append(conds, bson.D{{Key: key, Value: bson.D{{Key: "$lt", Value: f.date().End()}}}})
		}
	}

	filter := bson.D{}
	if len(conds) > 0 {
		filter = bson.D{{Key: "$and", Value: conds}}
	}

	sort := bson.D{}
	for _, s := range p.Sorts {
		dir := 1
		if s.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: mongoKeys[s.Field], Value: dir})
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64(p.Offset)).
		SetLimit(int64(p.Limit))
	return filter, opts
}
