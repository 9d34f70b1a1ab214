// Package sandbox runs student JavaScript in an embedded interpreter. Each
// run gets a fresh VM with a console.log shim and nothing else, so code under
// test cannot touch the host.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dop251/goja"
)

const (
	// DefaultExecTimeout bounds a free-form executeCode run.
	DefaultExecTimeout = 5 * time.Second

	// DefaultTestTimeout bounds a single test case invocation.
	DefaultTestTimeout = 2 * time.Second
)

// TestCase is one input/expected pair for a generated problem.
type TestCase struct {
	Input       []any  `json:"input"`
	Expected    any    `json:"expected"`
	Description string `json:"description,omitempty"`
}

// TestResult is the outcome of running one test case.
type TestResult struct {
	TestCase TestCase `json:"testCase"`
	Passed   bool     `json:"passed"`
	Output   any      `json:"output,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// TestReport aggregates a full test run.
type TestReport struct {
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Results []TestResult `json:"results"`
}

// Runner executes code with configurable timeouts. The zero value is not
// usable; use NewRunner.
type Runner struct {
	execTimeout time.Duration
	testTimeout time.Duration
	logger      *slog.Logger
}

// NewRunner creates a runner with the default timeouts.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		execTimeout: DefaultExecTimeout,
		testTimeout: DefaultTestTimeout,
		logger:      logger,
	}
}

// WithTimeouts overrides both timeouts. Zero keeps the current value.
func (r *Runner) WithTimeouts(exec, test time.Duration) *Runner {
	if exec > 0 {
		r.execTimeout = exec
	}
	if test > 0 {
		r.testTimeout = test
	}
	return r
}

// ExecuteCode runs free-form code and captures console.log output. The
// returned map is the tool result: success plus output on a clean run,
// success false plus the error text otherwise.
func (r *Runner) ExecuteCode(ctx context.Context, code string) map[string]any {
	vm := goja.New()
	var logs []string
	if err := installConsole(vm, &logs); err != nil {
		return map[string]any{"success": false, "error": err.Error()}
	}

	if err := runWithTimeout(ctx, vm, r.execTimeout, func() error {
		_, err := vm.RunString("'use strict';\n" + code)
		return err
	}); err != nil {
		return map[string]any{"success": false, "error": execErrorText(err, r.execTimeout)}
	}

	output := "Code executed successfully (no output)"
	if len(logs) > 0 {
		output = strings.Join(logs, "\n")
	}
	return map[string]any{"success": true, "output": output}
}

// RunTests evaluates code once per test case in a fresh VM, invokes the named
// function with the case inputs, and compares the result to the expectation
// by JSON equality.
func (r *Runner) RunTests(ctx context.Context, code, functionName string, cases []TestCase) TestReport {
	report := TestReport{Results: make([]TestResult, 0, len(cases))}
	if strings.TrimSpace(code) == "" {
		report.Failed = 1
		report.Results = append(report.Results, TestResult{
			TestCase: TestCase{Description: "No code found"},
			Error:    "No code found on canvas",
		})
		return report
	}

	for _, tc := range cases {
		result := r.runCase(ctx, code, functionName, tc)
		if result.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}
	return report
}

func (r *Runner) runCase(ctx context.Context, code, functionName string, tc TestCase) TestResult {
	result := TestResult{TestCase: tc}

	vm := goja.New()
	var logs []string
	if err := installConsole(vm, &logs); err != nil {
		result.Error = err.Error()
		return result
	}

	var output goja.Value
	err := runWithTimeout(ctx, vm, r.testTimeout, func() error {
		if _, err := vm.RunString("'use strict';\n" + code); err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(vm.Get(functionName))
		if !ok {
			return fmt.Errorf("Function %s not found in code", functionName)
		}
		args := make([]goja.Value, len(tc.Input))
		for i, in := range tc.Input {
			args[i] = vm.ToValue(in)
		}
		var err error
		output, err = fn(goja.Undefined(), args...)
		return err
	})
	if err != nil {
		result.Error = testErrorText(err, r.testTimeout)
		return result
	}

	result.Output = output.Export()
	if jsonEqual(result.Output, tc.Expected) {
		result.Passed = true
		return result
	}

	want, _ := json.Marshal(tc.Expected)
	got, _ := json.Marshal(result.Output)
	result.Error = fmt.Sprintf("Expected %s, but got %s", want, got)
	return result
}

// installConsole exposes console.log, appending each call's arguments joined
// by spaces.
func installConsole(vm *goja.Runtime, logs *[]string) error {
	console := vm.NewObject()
	if err := console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		*logs = append(*logs, strings.Join(parts, " "))
		return goja.Undefined()
	}); err != nil {
		return err
	}
	return vm.Set("console", console)
}

// runWithTimeout arms a VM interrupt and runs fn on the calling goroutine.
// Cancellation of ctx interrupts the VM the same way the deadline does.
func runWithTimeout(ctx context.Context, vm *goja.Runtime, timeout time.Duration, fn func() error) error {
	timer := time.AfterFunc(timeout, func() { vm.Interrupt("timeout") })
	defer timer.Stop()

	stop := context.AfterFunc(ctx, func() { vm.Interrupt("canceled") })
	defer stop()

	return fn()
}

func execErrorText(err error, timeout time.Duration) string {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Sprintf("Execution timeout (%ds)", int(timeout.Seconds()))
	}
	return jsErrorText(err)
}

func testErrorText(err error, timeout time.Duration) string {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Sprintf("Test execution timeout (%ds)", int(timeout.Seconds()))
	}
	return jsErrorText(err)
}

// jsonEqual compares two values by their canonical JSON encoding, which
// makes goja exports and decoded expectations comparable regardless of the
// concrete numeric types.
func jsonEqual(a, b any) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(aj, bj)
}

// jsErrorText strips goja's stack suffix so thrown messages read like the
// script raised them.
func jsErrorText(err error) string {
	var exception *goja.Exception
	if errors.As(err, &exception) {
		return strings.SplitN(exception.Error(), "\n", 2)[0]
	}
	return err.Error()
}
