package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
)

// ExamSession is one attempt at a mock exam.
type ExamSession struct {
	ent.Schema
}

func (ExamSession) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "exam_sessions"},
	}
}

func (ExamSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			NotEmpty().
			Immutable(),
		field.String("learner_id").
			NotEmpty(),
		field.String("quiz_type").
			NotEmpty(),
		field.Int64("start_time").
			Comment("Unix milliseconds; the countdown is derived from it"),
		field.Text("question_ids").
			Comment("JSON array in exam order"),
		field.Bool("timer_enabled").
			Default(true),
	}
}
