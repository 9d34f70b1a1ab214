package problems

import (
	"context"
	"strings"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	calls    int
	lastText string
	schema   *genai.Schema
	reply    string
	err      error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.lastText = contents[0].Parts[0].Text
	}
	if config != nil {
		f.schema = config.ResponseSchema
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetProblem(ctx context.Context, key string) ([]byte, bool, error) {
	payload, ok := c.data[key]
	return payload, ok, nil
}

func (c *memCache) PutProblem(ctx context.Context, key string, payload []byte) error {
	c.data[key] = payload
	return nil
}

const codingProblemJSON = `{
	"title": "Sum of Array",
	"text": "Given an array of numbers, return the sum of all elements.",
	"functionName": "sumArray",
	"initialCode": "function sumArray(arr) {\n  // TODO\n}",
	"testCases": [
		{"input": [[1, 2, 3]], "expected": 6, "description": "basic case"}
	]
}`

func TestGenerateProblemCoding(t *testing.T) {
	models := &fakeModels{reply: codingProblemJSON}
	cache := newMemCache()
	g := NewGenerator(models, cache, "", nil)

	p, err := g.GenerateProblem(context.Background(), "Arrays", SubjectAlgorithms)
	if err != nil {
		t.Fatalf("GenerateProblem: %v", err)
	}
	if p.Title != "Sum of Array" || p.FunctionName != "sumArray" {
		t.Errorf("problem = %+v", p)
	}
	if p.Subject != SubjectAlgorithms {
		t.Errorf("subject = %q", p.Subject)
	}
	if len(p.TestCases) != 1 {
		t.Errorf("testCases = %v", p.TestCases)
	}
	if !strings.Contains(models.lastText, `"Arrays"`) || !strings.Contains(models.lastText, "CODING") {
		t.Errorf("prompt = %q", models.lastText)
	}

	// Coding problems demand function name, starter code and tests.
	required := strings.Join(models.schema.Required, ",")
	for _, field := range []string{"functionName", "initialCode", "testCases"} {
		if !strings.Contains(required, field) {
			t.Errorf("schema required %q missing %s", required, field)
		}
	}

	if _, ok := cache.data["algorithms:arrays"]; !ok {
		t.Errorf("problem not cached, keys = %v", cache.data)
	}
}

func TestGenerateProblemMathSchema(t *testing.T) {
	models := &fakeModels{reply: `{"title":"Hypotenuse","text":"...","solution":"c = 5"}`}
	g := NewGenerator(models, nil, "", nil)

	p, err := g.GenerateProblem(context.Background(), "Pythagorean theorem", SubjectMath)
	if err != nil {
		t.Fatalf("GenerateProblem: %v", err)
	}
	if p.Solution != "c = 5" {
		t.Errorf("solution = %q", p.Solution)
	}
	if !strings.Contains(strings.Join(models.schema.Required, ","), "solution") {
		t.Errorf("math schema required = %v", models.schema.Required)
	}
	if !strings.Contains(models.lastText, "MATHEMATICS") {
		t.Errorf("prompt = %q", models.lastText)
	}
}

func TestGenerateProblemUsesCache(t *testing.T) {
	models := &fakeModels{reply: codingProblemJSON}
	cache := newMemCache()
	g := NewGenerator(models, cache, "", nil)
	ctx := context.Background()

	if _, err := g.GenerateProblem(ctx, "Arrays", SubjectAlgorithms); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	// Topic normalization means a differently-cased topic hits the cache.
	p, err := g.GenerateProblem(ctx, "  ARRAYS ", SubjectAlgorithms)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if models.calls != 1 {
		t.Errorf("model called %d times, want 1", models.calls)
	}
	if p.CachedAt == "" {
		t.Error("cached problem lost its timestamp")
	}
}

func TestGenerateProblemMalformedReply(t *testing.T) {
	models := &fakeModels{reply: "sorry, here is your problem:"}
	g := NewGenerator(models, nil, "", nil)
	if _, err := g.GenerateProblem(context.Background(), "x", SubjectAlgorithms); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestValidateExam(t *testing.T) {
	models := &fakeModels{reply: `{
		"score": 85,
		"feedback": "Solid approach.",
		"strengths": ["clear steps"],
		"improvements": ["state units"],
		"isCorrect": true
	}`}
	g := NewGenerator(models, nil, "", nil)

	problem := &Problem{Title: "Hypotenuse", Text: "Find c.", Subject: SubjectMath, Solution: "c = 5"}
	result, err := g.ValidateExam(context.Background(), problem, []byte{0x89})
	if err != nil {
		t.Fatalf("ValidateExam: %v", err)
	}
	if result.Score != 85 || !result.IsCorrect {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(models.lastText, "Expected Solution") {
		t.Errorf("prompt omitted the reference solution: %q", models.lastText)
	}
}

func TestSystemInstructionVariants(t *testing.T) {
	coding := &Problem{Title: "Two Sum", Text: "Find indices.", Subject: SubjectAlgorithms}
	inst := SystemInstruction(coding)
	for _, want := range []string{`"Two Sum"`, "ALGORITHMS & CODING", "stickyNoteHint", "executeCode", "[CANVAS UPDATE]"} {
		if !strings.Contains(inst, want) {
			t.Errorf("coding instruction missing %q", want)
		}
	}

	math := &Problem{Title: "Hypotenuse", Text: "Find c.", Subject: SubjectMath}
	inst = SystemInstruction(math)
	if !strings.Contains(inst, "MATHEMATICS") || !strings.Contains(inst, "generateImageOnCanvas") {
		t.Errorf("math instruction = %q", inst[:120])
	}
	if strings.Contains(inst, "ALGORITHMS & CODING") {
		t.Error("math instruction carries the coding section")
	}

	imported := &Problem{Title: "Captured", Text: "From a photo.", Subject: SubjectOther}
	if !strings.Contains(SystemInstruction(imported), "IMPORTED PROBLEM") {
		t.Error("imported instruction missing its section")
	}
}
