package moor

import (
	"context"
	"errors"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"
)

// ContainerSpec describes a container to create. The surface is
// deliberately narrow: image, environment, bind mounts, links and
// optional limits are the knobs a harness actually turns.
type ContainerSpec struct {
	// Name is the container name. Empty lets the daemon pick one.
	Name string

	// Image is the image reference to run.
	Image string

	// Cmd overrides the image's default command when non-empty.
	Cmd []string

	// Env holds KEY=VALUE pairs passed to the container verbatim.
	Env []string

	// Binds are host:container bind mounts.
	Binds []string

	// Links are legacy container links in name:alias form.
	Links []string

	// Ports are Docker-style port specs ("8080:80", "127.0.0.1:8080:80").
	Ports []string

	// Memory is a human-readable limit such as "512m". Empty means no limit.
	Memory string

	// Labels are merged over the engine's managed labels.
	Labels map[string]string
}

// ContainerCreate creates a container without starting it and returns
// its ID. Managed labels are injected into the spec's labels.
func (e *Engine) ContainerCreate(ctx context.Context, spec ContainerSpec) (string, error) {
	config := &container.Config{
		Image:  spec.Image,
		Cmd:    spec.Cmd,
		Env:    spec.Env,
		Labels: e.containerLabels(spec.Labels),
	}

	hostConfig := &container.HostConfig{
		Binds: spec.Binds,
		Links: spec.Links,
	}

	if spec.Memory != "" {
		memory, err := units.RAMInBytes(spec.Memory)
		if err != nil {
			return "", ErrInvalidContainerSpec(spec.Name, err)
		}
		hostConfig.Resources = container.Resources{Memory: memory}
	}

	if len(spec.Ports) > 0 {
		exposed, bindings, err := nat.ParsePortSpecs(spec.Ports)
		if err != nil {
			return "", ErrInvalidContainerSpec(spec.Name, err)
		}
		config.ExposedPorts = exposed
		hostConfig.PortBindings = bindings
	}

	resp, err := e.apiClient.ContainerCreate(ctx, config, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return "", ErrContainerCreateFailed(err)
	}
	return resp.ID, nil
}

// ContainerStart starts a created container.
func (e *Engine) ContainerStart(ctx context.Context, containerID string) error {
	if err := e.apiClient.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return ErrContainerStartFailed(containerID, err)
	}
	return nil
}

// ContainerStop stops a container. A nil timeout uses the daemon default.
func (e *Engine) ContainerStop(ctx context.Context, containerID string, timeout *int) error {
	var opts container.StopOptions
	if timeout != nil {
		opts.Timeout = timeout
	}
	if err := e.apiClient.ContainerStop(ctx, containerID, opts); err != nil {
		return ErrContainerStopFailed(containerID, err)
	}
	return nil
}

// ContainerRemove removes a container.
func (e *Engine) ContainerRemove(ctx context.Context, containerID string, force bool) error {
	err := e.apiClient.ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force:         force,
		RemoveVolumes: false,
	})
	if err != nil {
		return ErrContainerRemoveFailed(containerID, err)
	}
	return nil
}

// ContainerInspect returns the daemon's view of a container.
func (e *Engine) ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error) {
	resp, err := e.apiClient.ContainerInspect(ctx, containerID)
	if err != nil {
		return container.InspectResponse{}, ErrContainerInspectFailed(containerID, err)
	}
	return resp, nil
}

// ContainerListManaged lists containers carrying the managed label.
// With all set, stopped containers are included.
func (e *Engine) ContainerListManaged(ctx context.Context, all bool) ([]container.Summary, error) {
	containers, err := e.apiClient.ContainerList(ctx, container.ListOptions{
		All:     all,
		Filters: e.newManagedFilter(),
	})
	if err != nil {
		return nil, ErrContainerListFailed(err)
	}
	return containers, nil
}

// RemoveManaged force-removes every container carrying the managed
// label. Removal continues past individual failures; the joined error
// reports all of them.
func (e *Engine) RemoveManaged(ctx context.Context) error {
	containers, err := e.ContainerListManaged(ctx, true)
	if err != nil {
		return err
	}

	var errs []error
	for _, c := range containers {
		if err := e.ContainerRemove(ctx, c.ID, true); err != nil && !IsNotFound(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
