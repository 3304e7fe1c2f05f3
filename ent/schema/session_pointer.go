package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SessionPointer remembers the last session a learner touched per open
// drill or exam.
type SessionPointer struct {
	ent.Schema
}

func (SessionPointer) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "session_pointers"},
	}
}

func (SessionPointer) Fields() []ent.Field {
	return []ent.Field{
		field.String("learner_id").
			NotEmpty(),
		field.String("open_session").
			NotEmpty().
			Comment("drill:<quiz-type>/<category> or exam:<exam-id>"),
		field.String("session_id").
			Default(""),
		field.Int64("last_modified"),
	}
}

func (SessionPointer) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_id", "open_session").
			Unique(),
		index.Fields("learner_id", "last_modified"),
	}
}
