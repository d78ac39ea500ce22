// Package moor wraps the Docker SDK with label-scoped container
// management for harness workloads.
//
// Every container created through an Engine carries a managed label,
// so stale resources can be listed and removed without touching
// anything else on the host. Failures surface as typed *DockerError
// values carrying remediation steps.
package moor

import (
	"context"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

const (
	// DefaultLabelPrefix namespaces managed labels when Options.LabelPrefix is empty.
	DefaultLabelPrefix = "dev.gantry"

	// DefaultManagedLabel is the default label suffix for marking managed resources.
	DefaultManagedLabel = "managed"
)

// Options configures the behavior of the Engine.
type Options struct {
	// LabelPrefix is the prefix for all managed labels (e.g. "dev.gantry").
	// Used to construct the managed label key: "{LabelPrefix}.{ManagedLabel}".
	LabelPrefix string

	// ManagedLabel is the label key suffix that marks resources as managed.
	// Default: "managed".
	ManagedLabel string

	// Labels are stamped onto every container the engine creates, in
	// addition to the managed label.
	Labels map[string]string
}

// Engine wraps a Docker API client with automatic label-based resource
// isolation. All list operations only return resources carrying the
// engine's managed label.
type Engine struct {
	apiClient client.APIClient
	options   Options

	// Precomputed for reuse on every create and list.
	managedLabelKey   string
	managedLabelValue string
}

// New connects to the Docker daemon configured in the environment and
// verifies the connection before returning an Engine.
func New(ctx context.Context, opts Options) (*Engine, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, ErrDockerNotRunning(err)
	}

	engine := NewFromExisting(cli, opts)
	if err := engine.HealthCheck(ctx); err != nil {
		cli.Close()
		return nil, err
	}

	return engine, nil
}

// NewFromExisting wraps an already constructed API client. No
// connection check is performed.
func NewFromExisting(cli client.APIClient, opts Options) *Engine {
	if opts.LabelPrefix == "" {
		opts.LabelPrefix = DefaultLabelPrefix
	}
	if opts.ManagedLabel == "" {
		opts.ManagedLabel = DefaultManagedLabel
	}

	return &Engine{
		apiClient:         cli,
		options:           opts,
		managedLabelKey:   opts.LabelPrefix + "." + opts.ManagedLabel,
		managedLabelValue: "true",
	}
}

// HealthCheck verifies the Docker daemon is reachable.
func (e *Engine) HealthCheck(ctx context.Context) error {
	if _, err := e.apiClient.Ping(ctx); err != nil {
		return ErrDockerNotRunning(err)
	}
	return nil
}

// Close releases Docker client resources.
func (e *Engine) Close() error {
	return e.apiClient.Close()
}

// Options returns the engine options.
func (e *Engine) Options() Options {
	return e.options
}

// ManagedLabelKey returns the full managed label key (e.g. "dev.gantry.managed").
func (e *Engine) ManagedLabelKey() string {
	return e.managedLabelKey
}

// ManagedLabelValue returns the managed label value (always "true").
func (e *Engine) ManagedLabelValue() string {
	return e.managedLabelValue
}

// newManagedFilter creates a filter matching only managed resources.
func (e *Engine) newManagedFilter() filters.Args {
	return filters.NewArgs(
		filters.Arg("label", e.managedLabelKey+"="+e.managedLabelValue),
	)
}

// managedLabels returns the base labels that mark a resource as managed.
func (e *Engine) managedLabels() map[string]string {
	return map[string]string{
		e.managedLabelKey: e.managedLabelValue,
	}
}

// containerLabels returns labels for a container: managed label, engine
// labels, then extras, later maps winning.
func (e *Engine) containerLabels(extra ...map[string]string) map[string]string {
	all := append([]map[string]string{e.managedLabels(), e.options.Labels}, extra...)
	return MergeLabels(all...)
}
