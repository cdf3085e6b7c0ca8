// Package commandtest provides a scriptable Shell for tests.
package commandtest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/phabops/phabctl/internal/shell/command"
)

// Call records one Run invocation.
type Call struct {
	Argv  []string
	Opts  command.RunOptions
	Stdin string
}

// FakeShell implements command.Shell in memory. Commands succeed with empty
// output unless a result or error is scripted for their joined form.
type FakeShell struct {
	mu sync.Mutex

	Calls []Call
	Files map[string][]byte

	// Results and Errs are keyed by command.Join(argv).
	Results map[string]command.Result
	Errs    map[string]error
}

// NewFakeShell creates an empty fake shell.
func NewFakeShell() *FakeShell {
	return &FakeShell{
		Files:   make(map[string][]byte),
		Results: make(map[string]command.Result),
		Errs:    make(map[string]error),
	}
}

// Script sets the result for a command's joined form.
func (f *FakeShell) Script(joined string, result command.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results[joined] = result
}

// ScriptError sets the error returned for a command's joined form.
func (f *FakeShell) ScriptError(joined string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errs[joined] = err
}

func (f *FakeShell) Run(ctx context.Context, argv []string, opts command.RunOptions) (command.Result, error) {
	if len(argv) == 0 {
		return command.Result{}, command.ErrEmptyCommand
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	call := Call{Argv: append([]string(nil), argv...), Opts: opts}
	if opts.Stdin != nil {
		data, err := io.ReadAll(opts.Stdin)
		if err != nil {
			return command.Result{}, err
		}
		call.Stdin = string(data)
	}
	f.Calls = append(f.Calls, call)

	joined := command.Join(argv)
	if err, ok := f.Errs[joined]; ok {
		return command.Result{}, err
	}

	result := f.Results[joined]
	if result.Status != 0 && !opts.MayFail {
		return result, fmt.Errorf("%w: exit status %d", command.ErrCommandFailed, result.Status)
	}
	return result, nil
}

func (f *FakeShell) FileExists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Files[path]
	return ok, nil
}

func (f *FakeShell) WriteFile(ctx context.Context, path string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Files[path] = append([]byte(nil), content...)
	return nil
}

// CommandLines returns the joined form of every recorded command, in order.
func (f *FakeShell) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Calls))
	for i, call := range f.Calls {
		lines[i] = command.Join(call.Argv)
	}
	return lines
}
