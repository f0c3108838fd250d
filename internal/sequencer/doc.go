// Package sequencer runs a graph of named tasks with declared dependencies.
//
// A Registry holds task definitions. A Sequencer resolves the dependency closure of the
// requested tasks and executes each task at most once per invocation, starting a task only
// after every dependency has completed. Tasks with no dependency relation between them run
// concurrently.
//
// Resolution happens at run time, so tasks may be registered in any order:
//
//	reg := sequencer.NewRegistry()
//	reg.Register("package", []string{"compile"}, pkg)
//	reg.Register("compile", []string{"clean"}, compile)
//	reg.Register("clean", nil, clean)
//
//	report, err := sequencer.New(reg).Run(ctx, "package")
//
// Failures are reported as typed errors (UnknownTaskError, ConfigurationError,
// CyclicDependencyError, OutputConflictError, TaskExecutionError). Each one matches its
// sentinel kind with errors.Is.
package sequencer
