package session

import "strings"

const (
	kindDrill = "drill"
	kindExam  = "exam"
)

// DrillTag is the registry key for a drill over one category.
func DrillTag(quizType, category string) string {
	return kindDrill + ":" + quizType + "/" + category
}

// ExamTag is the registry key for a mock exam.
func ExamTag(examID string) string {
	return kindExam + ":" + examID
}

// parseTag splits a registry key. For drills a and b are the quiz type and
// category; for exams a is the exam id.
func parseTag(tag string) (kind, a, b string, ok bool) {
	kind, rest, found := strings.Cut(tag, ":")
	if !found || rest == "" {
		return "", "", "", false
	}
	switch kind {
	case kindDrill:
		a, b, found = strings.Cut(rest, "/")
		if !found || a == "" || b == "" {
			return "", "", "", false
		}
		return kind, a, b, true
	case kindExam:
		return kind, rest, "", true
	}
	return "", "", "", false
}
