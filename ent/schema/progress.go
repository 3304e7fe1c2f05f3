package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Progress holds one cycle of a learner's walk through a category or an
// exam. The record itself is an opaque JSON blob.
type Progress struct {
	ent.Schema
}

func (Progress) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "progress"},
	}
}

func (Progress) Fields() []ent.Field {
	return []ent.Field{
		field.String("learner_id").
			NotEmpty().
			Immutable(),
		field.String("quiz_type").
			NotEmpty().
			Immutable(),
		field.String("scope").
			NotEmpty().
			Immutable().
			Comment("Category for drills, exam session id for exams"),
		field.Int("cycle").
			Positive().
			Immutable(),
		field.String("session_id").
			Default(""),
		field.Bool("completed").
			Default(false),
		field.Text("data").
			Comment("Serialized progress record"),
		field.Int64("created_at"),
		field.Int64("updated_at"),
	}
}

func (Progress) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_id", "quiz_type", "scope", "cycle").
			Unique(),
		index.Fields("learner_id", "quiz_type", "scope", "completed"),
	}
}
