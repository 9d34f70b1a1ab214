package problems

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/hr7657316/education-ai/pkg/core"
	"github.com/hr7657316/education-ai/pkg/store"
)

// DefaultModel generates and grades problems.
const DefaultModel = "gemini-2.5-pro"

// ContentClient is the slice of the genai API the generator uses.
// *genai.Models satisfies it.
type ContentClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Cache stores generated problems by key. *store.Store satisfies it.
type Cache interface {
	GetProblem(ctx context.Context, key string) ([]byte, bool, error)
	PutProblem(ctx context.Context, key string, payload []byte) error
}

// Generator creates practice problems, consulting the cache first.
type Generator struct {
	models ContentClient
	cache  Cache
	model  string
	logger *slog.Logger
	now    func() time.Time
}

// NewGenerator builds a generator. cache may be nil to disable caching; an
// empty model selects the default.
func NewGenerator(models ContentClient, cache Cache, model string, logger *slog.Logger) *Generator {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		models: models,
		cache:  cache,
		model:  model,
		logger: logger,
		now:    time.Now,
	}
}

// GenerateProblem returns a problem for the topic, served from cache when a
// previous session already generated one for the same subject and topic.
func (g *Generator) GenerateProblem(ctx context.Context, topic string, subject Subject) (*Problem, error) {
	key := store.CacheKey(string(subject), topic)
	if g.cache != nil {
		payload, ok, err := g.cache.GetProblem(ctx, key)
		if err != nil {
			g.logger.Warn("problem cache read failed", slog.String("error", err.Error()))
		} else if ok {
			var cached Problem
			if err := json.Unmarshal(payload, &cached); err == nil {
				g.logger.Info("using cached problem", slog.String("key", key))
				return &cached, nil
			}
			g.logger.Warn("cached problem is corrupt, regenerating", slog.String("key", key))
		}
	}

	g.logger.Info("generating problem",
		slog.String("subject", string(subject)), slog.String("topic", topic))

	resp, err := g.models.GenerateContent(ctx, g.model,
		genai.Text(GenerationPrompt(subject, topic)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   problemSchema(subject),
		})
	if err != nil {
		return nil, fmt.Errorf("generate problem: %w", err)
	}

	var problem Problem
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Text())), &problem); err != nil {
		return nil, core.NewDecodeError("malformed problem payload", err)
	}
	problem.Subject = subject

	if g.cache != nil {
		problem.CachedAt = g.now().UTC().Format(time.RFC3339)
		if payload, err := json.Marshal(&problem); err == nil {
			if err := g.cache.PutProblem(ctx, key, payload); err != nil {
				g.logger.Warn("problem cache write failed", slog.String("error", err.Error()))
			}
		}
	}
	return &problem, nil
}

// ValidateExam grades a board snapshot against the problem and, where
// present, its reference solution.
func (g *Generator) ValidateExam(ctx context.Context, problem *Problem, snapshot []byte) (*ExamResult, error) {
	prompt := fmt.Sprintf(`You are an educational AI evaluator. A student has solved the following %s problem:

**Problem Title:** %s

**Problem Statement:**
%s
`, problem.Subject, problem.Title, problem.Text)
	if problem.Solution != "" {
		prompt += fmt.Sprintf("\n**Expected Solution:**\n%s\n", problem.Solution)
	}
	prompt += `
**Student's Work:**
The student has written their solution on a canvas (see attached image).

Please evaluate the student's work and provide:
1. A score from 0-100
2. Detailed feedback on their approach
3. Strengths in their solution
4. Areas for improvement
5. Whether the solution is correct or not

Be encouraging but honest. Focus on understanding and learning, not just correctness.`

	contents := []*genai.Content{{Parts: []*genai.Part{
		{Text: prompt},
		{InlineData: &genai.Blob{MIMEType: "image/png", Data: snapshot}},
	}}}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   examResultSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("validate exam: %w", err)
	}

	var result ExamResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Text())), &result); err != nil {
		return nil, core.NewDecodeError("malformed exam result payload", err)
	}
	return &result, nil
}

// problemSchema constrains generation output. Coding problems must carry a
// function name, starter code and test cases; other subjects a reference
// solution instead.
func problemSchema(subject Subject) *genai.Schema {
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: "A concise, descriptive title for the problem.",
			},
			"text": {
				Type:        genai.TypeString,
				Description: "The full text of the problem statement with markdown formatting.",
			},
			"examples": {
				Type:        genai.TypeArray,
				Description: "Array of examples or helpful information",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
			"constraints": {
				Type:        genai.TypeArray,
				Description: "Array of constraints or key concepts",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"title", "text"},
	}

	if subject == SubjectAlgorithms {
		schema.Properties["functionName"] = &genai.Schema{
			Type:        genai.TypeString,
			Description: "The exact name of the function the student should implement",
		}
		schema.Properties["initialCode"] = &genai.Schema{
			Type:        genai.TypeString,
			Description: "A function skeleton/template with signature and TODO comment",
		}
		schema.Properties["testCases"] = &genai.Schema{
			Type:        genai.TypeArray,
			Description: "Array of test cases including both visible examples and hidden tests",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"input": {
						Type:        genai.TypeArray,
						Description: "Array of input arguments for the function",
						Items:       &genai.Schema{},
					},
					"expected": {
						Description: "Expected output value",
					},
					"description": {
						Type:        genai.TypeString,
						Description: "Description of what this test case checks",
					},
				},
				Required: []string{"input", "expected", "description"},
			},
		}
		schema.Required = append(schema.Required, "functionName", "initialCode", "testCases")
	} else {
		schema.Properties["solution"] = &genai.Schema{
			Type:        genai.TypeString,
			Description: "The complete solution with step-by-step explanation for validation purposes",
		}
		schema.Required = append(schema.Required, "solution")
	}
	return schema
}

func examResultSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score": {
				Type:        genai.TypeNumber,
				Description: "Score from 0-100",
			},
			"feedback": {
				Type:        genai.TypeString,
				Description: "Detailed feedback on the student's work",
			},
			"strengths": {
				Type:        genai.TypeArray,
				Description: "Array of strengths in the solution",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
			"improvements": {
				Type:        genai.TypeArray,
				Description: "Array of areas for improvement",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
			"isCorrect": {
				Type:        genai.TypeBoolean,
				Description: "Whether the solution is fundamentally correct",
			},
		},
		Required: []string{"score", "feedback", "strengths", "improvements", "isCorrect"},
	}
}
