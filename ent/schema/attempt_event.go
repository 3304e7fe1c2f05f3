package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AttemptEvent records the latest verdict for one question or sub-question.
type AttemptEvent struct {
	ent.Schema
}

func (AttemptEvent) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "attempt_events"},
	}
}

func (AttemptEvent) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("sequence").
			Comment("Taken afresh on every write; orders replaced entries"),
		field.Int64("timestamp").
			Comment("Unix milliseconds of the latest write"),
		field.String("learner_id").
			NotEmpty(),
		field.String("quiz_type").
			NotEmpty(),
		field.String("category").
			NotEmpty(),
		field.Int("cycle"),
		field.String("question_id").
			NotEmpty(),
		field.String("sub_question_id").
			Default("").
			Comment("Empty for standalone questions"),
		field.Bool("correct"),
		field.String("submitted_answer").
			Default(""),
	}
}

func (AttemptEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_id", "quiz_type", "category", "question_id", "sub_question_id").
			Unique(),
		index.Fields("sequence"),
	}
}
