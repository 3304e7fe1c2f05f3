package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// ProgressColumns holds the columns for the "progress" table.
	ProgressColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString},
		{Name: "quiz_type", Type: field.TypeString},
		{Name: "scope", Type: field.TypeString},
		{Name: "cycle", Type: field.TypeInt},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "completed", Type: field.TypeBool, Default: false},
		{Name: "data", Type: field.TypeString, Size: 2147483647},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	// ProgressTable holds the schema information for the "progress" table.
	// Rows are keyed by (learner_id, quiz_type, scope, cycle).
	ProgressTable = &schema.Table{
		Name:       "progress",
		Columns:    ProgressColumns,
		PrimaryKey: []*schema.Column{ProgressColumns[0], ProgressColumns[1], ProgressColumns[2], ProgressColumns[3]},
		Indexes: []*schema.Index{
			{
				Name:    "progress_learner_id_quiz_type_scope_completed",
				Unique:  false,
				Columns: []*schema.Column{ProgressColumns[0], ProgressColumns[1], ProgressColumns[2], ProgressColumns[5]},
			},
		},
	}

	// SessionPointersColumns holds the columns for the "session_pointers" table.
	SessionPointersColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString},
		{Name: "open_session", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "last_modified", Type: field.TypeInt64},
	}
	// SessionPointersTable holds the schema information for the "session_pointers" table.
	SessionPointersTable = &schema.Table{
		Name:       "session_pointers",
		Columns:    SessionPointersColumns,
		PrimaryKey: []*schema.Column{SessionPointersColumns[0], SessionPointersColumns[1]},
		Indexes: []*schema.Index{
			{
				Name:    "sessionpointer_learner_id_last_modified",
				Unique:  false,
				Columns: []*schema.Column{SessionPointersColumns[0], SessionPointersColumns[3]},
			},
		},
	}

	// AttemptEventsColumns holds the columns for the "attempt_events" table.
	AttemptEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "quiz_type", Type: field.TypeString},
		{Name: "category", Type: field.TypeString},
		{Name: "cycle", Type: field.TypeInt},
		{Name: "question_id", Type: field.TypeString},
		{Name: "sub_question_id", Type: field.TypeString, Default: ""},
		{Name: "correct", Type: field.TypeBool},
		{Name: "submitted_answer", Type: field.TypeString, Default: ""},
	}
	// AttemptEventsTable holds the schema information for the "attempt_events" table.
	AttemptEventsTable = &schema.Table{
		Name:       "attempt_events",
		Columns:    AttemptEventsColumns,
		PrimaryKey: []*schema.Column{AttemptEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "attemptevent_learner_id_quiz_type_category_question_id_sub_question_id",
				Unique:  true,
				Columns: []*schema.Column{AttemptEventsColumns[3], AttemptEventsColumns[4], AttemptEventsColumns[5], AttemptEventsColumns[7], AttemptEventsColumns[8]},
			},
			{
				Name:    "attemptevent_sequence",
				Unique:  false,
				Columns: []*schema.Column{AttemptEventsColumns[1]},
			},
		},
	}

	// ExamSessionsColumns holds the columns for the "exam_sessions" table.
	ExamSessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "quiz_type", Type: field.TypeString},
		{Name: "start_time", Type: field.TypeInt64},
		{Name: "question_ids", Type: field.TypeString, Size: 2147483647},
		{Name: "timer_enabled", Type: field.TypeBool, Default: true},
	}
	// ExamSessionsTable holds the schema information for the "exam_sessions" table.
	ExamSessionsTable = &schema.Table{
		Name:       "exam_sessions",
		Columns:    ExamSessionsColumns,
		PrimaryKey: []*schema.Column{ExamSessionsColumns[0]},
	}

	// SequencesColumns holds the columns for the "sequences" table.
	SequencesColumns = []*schema.Column{
		{Name: "name", Type: field.TypeString},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	// SequencesTable holds named counters handed out by nextValue.
	SequencesTable = &schema.Table{
		Name:       "sequences",
		Columns:    SequencesColumns,
		PrimaryKey: []*schema.Column{SequencesColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ProgressTable,
		SessionPointersTable,
		AttemptEventsTable,
		ExamSessionsTable,
		SequencesTable,
	}
)
