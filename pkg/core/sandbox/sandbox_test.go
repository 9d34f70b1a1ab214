package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecuteCodeCapturesConsoleOutput(t *testing.T) {
	r := NewRunner(nil)
	result := r.ExecuteCode(context.Background(), `
		function double(n) { return n * 2; }
		console.log("double(21) =", double(21));
		console.log("done");
	`)
	if result["success"] != true {
		t.Fatalf("result = %+v", result)
	}
	if got := result["output"]; got != "double(21) = 42\ndone" {
		t.Errorf("output = %q", got)
	}
}

func TestExecuteCodeNoOutput(t *testing.T) {
	r := NewRunner(nil)
	result := r.ExecuteCode(context.Background(), `var x = 1;`)
	if result["success"] != true {
		t.Fatalf("result = %+v", result)
	}
	if got := result["output"]; got != "Code executed successfully (no output)" {
		t.Errorf("output = %q", got)
	}
}

func TestExecuteCodeReportsThrownErrors(t *testing.T) {
	r := NewRunner(nil)
	result := r.ExecuteCode(context.Background(), `throw new Error("boom");`)
	if result["success"] != false {
		t.Fatalf("result = %+v", result)
	}
	errText, _ := result["error"].(string)
	if !strings.Contains(errText, "boom") {
		t.Errorf("error = %q", errText)
	}
}

func TestExecuteCodeSyntaxError(t *testing.T) {
	r := NewRunner(nil)
	result := r.ExecuteCode(context.Background(), `function (`)
	if result["success"] != false {
		t.Fatalf("result = %+v", result)
	}
}

func TestExecuteCodeTimesOutOnInfiniteLoop(t *testing.T) {
	r := NewRunner(nil).WithTimeouts(100*time.Millisecond, 0)
	start := time.Now()
	result := r.ExecuteCode(context.Background(), `while (true) {}`)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not enforced, took %v", elapsed)
	}
	if result["success"] != false {
		t.Fatalf("result = %+v", result)
	}
	errText, _ := result["error"].(string)
	if !strings.Contains(errText, "timeout") {
		t.Errorf("error = %q", errText)
	}
}

func TestRunTestsPassAndFail(t *testing.T) {
	r := NewRunner(nil)
	code := `function add(a, b) { return a + b; }`
	report := r.RunTests(context.Background(), code, "add", []TestCase{
		{Input: []any{2, 3}, Expected: 5},
		{Input: []any{2, 2}, Expected: 5},
	})
	if report.Passed != 1 || report.Failed != 1 {
		t.Fatalf("report = %d/%d", report.Passed, report.Failed)
	}
	if !report.Results[0].Passed {
		t.Errorf("first case failed: %+v", report.Results[0])
	}
	failing := report.Results[1]
	if failing.Passed || !strings.Contains(failing.Error, "Expected 5, but got 4") {
		t.Errorf("failing case = %+v", failing)
	}
}

func TestRunTestsComparesStructuredValues(t *testing.T) {
	r := NewRunner(nil)
	code := `function sortNums(arr) { return arr.slice().sort(function(a, b) { return a - b; }); }`
	report := r.RunTests(context.Background(), code, "sortNums", []TestCase{
		{Input: []any{[]any{3, 1, 2}}, Expected: []any{1, 2, 3}},
	})
	if report.Passed != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestRunTestsMissingFunction(t *testing.T) {
	r := NewRunner(nil)
	report := r.RunTests(context.Background(), `var notAFunction = 3;`, "solve", []TestCase{
		{Input: []any{1}, Expected: 1},
	})
	if report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if got := report.Results[0].Error; got != "Function solve not found in code" {
		t.Errorf("error = %q", got)
	}
}

func TestRunTestsEmptyCode(t *testing.T) {
	r := NewRunner(nil)
	report := r.RunTests(context.Background(), "  \n", "solve", []TestCase{
		{Input: []any{1}, Expected: 1},
	})
	if report.Passed != 0 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Results[0].Error != "No code found on canvas" {
		t.Errorf("error = %q", report.Results[0].Error)
	}
}

func TestRunTestsCaseTimeout(t *testing.T) {
	r := NewRunner(nil).WithTimeouts(0, 100*time.Millisecond)
	report := r.RunTests(context.Background(), `function spin() { while (true) {} }`, "spin", []TestCase{
		{Input: []any{}, Expected: nil},
	})
	if report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if !strings.Contains(report.Results[0].Error, "timeout") {
		t.Errorf("error = %q", report.Results[0].Error)
	}
}
