package gateway

import "errors"

var (
	// ErrUnknownDependency indicates a dependency name that was never
	// declared.
	ErrUnknownDependency = errors.New("gateway: unknown dependency")

	// ErrNoDependencies indicates construction without any dependency.
	ErrNoDependencies = errors.New("gateway: at least one dependency is required")

	// ErrDuplicateDependency indicates a dependency declared twice.
	ErrDuplicateDependency = errors.New("gateway: duplicate dependency")

	// ErrMissingDependencyName indicates a dependency without a name.
	ErrMissingDependencyName = errors.New("gateway: dependency name is required")
)
