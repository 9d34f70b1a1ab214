// Package problems generates practice problems, builds the tutor's system
// instruction, and grades exam submissions.
package problems

import "github.com/hr7657316/education-ai/pkg/core/sandbox"

// Subject categorizes a problem.
type Subject string

const (
	SubjectAlgorithms Subject = "algorithms"
	SubjectMath       Subject = "math"
	SubjectScience    Subject = "science"

	// SubjectOther marks problems imported from a screen capture or photo
	// rather than generated.
	SubjectOther Subject = "other"
)

// TestCase is shared with the sandbox test runner.
type TestCase = sandbox.TestCase

// Problem is one practice problem. The coding-only fields are empty for math
// and science problems, which carry a reference solution instead.
type Problem struct {
	Title        string     `json:"title"`
	Text         string     `json:"text"`
	Subject      Subject    `json:"subject"`
	Examples     []string   `json:"examples,omitempty"`
	Constraints  []string   `json:"constraints,omitempty"`
	TestCases    []TestCase `json:"testCases,omitempty"`
	FunctionName string     `json:"functionName,omitempty"`
	InitialCode  string     `json:"initialCode,omitempty"`
	Solution     string     `json:"solution,omitempty"`
	CachedAt     string     `json:"cachedAt,omitempty"`
}

// ExamResult is the grading outcome for a submitted solution.
type ExamResult struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	IsCorrect    bool     `json:"isCorrect"`
}
