package domain

import "errors"

// Scope registry errors.
var (
	// ErrDuplicatePath indicates a scope path was registered twice.
	ErrDuplicatePath = errors.New("scope path already registered")

	// ErrInvalidPath indicates a scope path is absolute or leaves the workspace.
	ErrInvalidPath = errors.New("scope path must be relative to the workspace root")
)

// Change parser errors.
var (
	// ErrMalformedFormat indicates the summary does not follow "<kind>[!]: <description>".
	ErrMalformedFormat = errors.New("malformed change format")

	// ErrUnknownKind indicates the kind token is not recognized.
	ErrUnknownKind = errors.New("unknown change kind")

	// ErrWhitespace indicates leading or trailing whitespace in the description.
	ErrWhitespace = errors.New("description has surrounding whitespace")

	// ErrSentence indicates the description ends with a period.
	ErrSentence = errors.New("description must not end with a period")

	// ErrCasing indicates the description starts with an upper-case word.
	ErrCasing = errors.New("description must start with a lower-case word")
)

// Dependency graph and propagation errors.
var (
	// ErrCyclicDependency indicates the packages depend on each other in a cycle.
	ErrCyclicDependency = errors.New("cyclic dependency between packages")

	// ErrDuplicatePackage indicates two manifests declare the same package name.
	ErrDuplicatePackage = errors.New("package declared more than once")

	// ErrInvalidIncrement indicates an unknown increment name.
	ErrInvalidIncrement = errors.New("invalid increment")

	// ErrInvalidDecision indicates a resolution outside the candidate set.
	ErrInvalidDecision = errors.New("increment is not a candidate")

	// ErrNoPendingDecision indicates Resolve was called with nothing to decide.
	ErrNoPendingDecision = errors.New("no pending decision")

	// ErrPropagationIncomplete indicates the result was requested before all decisions were made.
	ErrPropagationIncomplete = errors.New("bump propagation is incomplete")

	// ErrDecisionAborted indicates the decider gave up without choosing.
	ErrDecisionAborted = errors.New("decision aborted")
)

// Repository and workspace errors.
var (
	// ErrRepositoryNotFound indicates the specified path is not a valid Git repository.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrUnknownVersion indicates no version tag matches the requested version.
	ErrUnknownVersion = errors.New("no release tagged with this version")

	// ErrManifestNotFound indicates the workspace root has no supported manifest.
	ErrManifestNotFound = errors.New("no supported manifest found in workspace root")

	// ErrUnsupportedEcosystem indicates an unknown manifest format name.
	ErrUnsupportedEcosystem = errors.New("unsupported ecosystem")
)
