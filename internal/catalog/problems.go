package catalog

import "fmt"

// ProblemKind classifies a failure that was contained at the node where it occurred.
type ProblemKind string

const (
	// ProblemMalformedDataFile marks a tools file that could not be read or has the wrong shape.
	ProblemMalformedDataFile ProblemKind = "malformed_data_file"
	// ProblemSubdirectoryAccess marks a directory that could not be listed or resolved.
	ProblemSubdirectoryAccess ProblemKind = "subdirectory_access_failure"
	// ProblemCycleDetected marks a directory that resolves to one of its own ancestors.
	ProblemCycleDetected ProblemKind = "cycle_detected"
)

// Problem records one quarantined failure. The affected node contributed no
// entries for the failing part and the walk continued.
type Problem struct {
	Kind ProblemKind
	Path string
	Err  error
}

func (problem Problem) String() string {
	if problem.Err == nil {
		return fmt.Sprintf("%s: %s", problem.Kind, problem.Path)
	}
	return fmt.Sprintf("%s: %s: %v", problem.Kind, problem.Path, problem.Err)
}

// Unwrap exposes the underlying cause.
func (problem Problem) Unwrap() error {
	return problem.Err
}

func (problem Problem) Error() string {
	return problem.String()
}
