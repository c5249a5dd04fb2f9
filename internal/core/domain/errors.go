package domain

import "go.trai.ch/zerr"

var (
	// ErrUnknownComponent is returned when a name does not refer to a registered component.
	ErrUnknownComponent = zerr.New("unknown component")

	// ErrCyclicDependency is returned when a component's dependency closure includes itself.
	ErrCyclicDependency = zerr.New("cyclic dependency")

	// ErrComponentAlreadyRegistered is returned when a component name is registered twice.
	ErrComponentAlreadyRegistered = zerr.New("component already registered")

	// ErrRegistrySealed is returned when registering into a registry that is read-only.
	ErrRegistrySealed = zerr.New("registry is sealed")

	// ErrInvalidComponentName is returned when a component is registered without a usable name.
	ErrInvalidComponentName = zerr.New("invalid component name")

	// ErrNoDefaultTargets is returned when no targets are requested and the catalog declares no defaults.
	ErrNoDefaultTargets = zerr.New("no targets requested and no default targets declared")

	// ErrJobFailure is returned when an individual build job reports failure.
	ErrJobFailure = zerr.New("build job failed")

	// ErrSchedulerStopped is returned when a job is submitted after the scheduler stopped accepting work.
	ErrSchedulerStopped = zerr.New("scheduler stopped")

	// ErrInvalidWorkerCount is returned when a scheduler is constructed with fewer than one worker.
	ErrInvalidWorkerCount = zerr.New("worker count must be at least 1")

	// ErrFileAccess is returned when the metadata of a path needed for a staleness decision cannot be read.
	ErrFileAccess = zerr.New("failed to read file metadata")

	// ErrDepfileParseFailed is returned when a generated dependency file is malformed.
	ErrDepfileParseFailed = zerr.New("failed to parse depfile")

	// ErrComponentFailed is returned when a component's build action fails.
	ErrComponentFailed = zerr.New("component build failed")

	// ErrBuildExecutionFailed is returned when the build plan did not complete successfully.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrCommandFailed is returned when an external process exits unsuccessfully.
	ErrCommandFailed = zerr.New("command failed")

	// ErrCommandStartFailed is returned when an external process cannot be started.
	ErrCommandStartFailed = zerr.New("failed to start command")

	// ErrEmptyCommand is returned when a command has no argv.
	ErrEmptyCommand = zerr.New("empty command")

	// ErrSourceDiscoveryFailed is returned when sources for a compile action cannot be enumerated.
	ErrSourceDiscoveryFailed = zerr.New("failed to discover sources")

	// ErrInstallFailed is returned when installing packages or fetching submodules fails.
	ErrInstallFailed = zerr.New("failed to install dependencies")

	// ErrConfigNotFound is returned when no kiln.yaml can be found.
	ErrConfigNotFound = zerr.New("could not find kiln.yaml")

	// ErrConfigReadFailed is returned when a config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when a config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a config file parses but describes an invalid catalog.
	ErrInvalidConfig = zerr.New("invalid configuration")
)
