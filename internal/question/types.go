package question

// Type describes how a question is answered.
type Type string

const (
	// TypeSingle is answered with exactly one option letter.
	TypeSingle Type = "single"

	// TypeMultiple is answered with a set of option letters.
	TypeMultiple Type = "multiple"

	// TypeComposite is answered through its ordered sub-questions.
	TypeComposite Type = "composite"
)

// Valid reports whether t is a known question type.
func (t Type) Valid() bool {
	switch t {
	case TypeSingle, TypeMultiple, TypeComposite:
		return true
	}
	return false
}

// Question is a single exam-style question as fetched from the bank.
// Questions are immutable once fetched.
type Question struct {
	ID       string
	QuizType string
	Category string
	Type     Type
	Text     string

	// Options holds the ordered option texts for single and multiple
	// questions. Option i is addressed by letter 'A'+i.
	Options []string

	// CorrectAnswer is either comma-joined option letters ("A,C") or a
	// JSON array of letters (["A","C"]). Empty for composite questions.
	CorrectAnswer string

	Explanation string

	// SubQuestions is populated for composite questions, in display order.
	SubQuestions []SubQuestion
}

// SubQuestion is one ordered part of a composite question.
type SubQuestion struct {
	ID             string
	ParentID       string
	Text           string
	ExpectedAnswer string
	Explanation    string
}

// OptionLetter returns the letter addressing option i ("A" for 0).
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// IDs returns the ids of qs in order.
func IDs(qs []Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
