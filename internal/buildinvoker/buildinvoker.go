// Package buildinvoker specifies the BuildInvoker collaborator (spec.md
// §6.1): compilation and test execution are delegated to Gradle launchers
// and are out of this core's scope, so only the contract and a progress
// event stream are captured here, shaped after the teacher's
// pkg/graph.ProgressCallback/ExecutionResult reporting.
package buildinvoker

import "context"

// ProgressKind classifies one ProgressEvent the way the teacher's
// printTask distinguishes "running"/"completed"/"failed" task states.
type ProgressKind int

const (
	ProgressStarted ProgressKind = iota
	ProgressFinished
	ProgressFailed
)

// ProgressEvent is one opaque status update from a running Gradle
// invocation. The core treats its payload as opaque per spec.md §1.
type ProgressEvent struct {
	TargetID string
	TaskName string
	Kind     ProgressKind
	Message  string
}

// BuildInvoker runs builds and tests against the targets TargetGraph
// describes. Both methods stream ProgressEvents on the returned channel and
// close it when the invocation completes or ctx is cancelled.
type BuildInvoker interface {
	RunBuild(ctx context.Context, taskNames []string, args []string, env map[string]string) (<-chan ProgressEvent, error)
	RunTests(ctx context.Context, targetSelectors []string) (<-chan ProgressEvent, error)
}
