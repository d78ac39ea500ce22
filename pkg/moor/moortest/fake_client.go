package moortest

import (
	"context"
	"fmt"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// FakeAPIClient is a test double for client.APIClient using the
// function-field pattern (Docker CLI convention). Each SDK method moor
// calls has a corresponding Fn field. If the field is set, the fake
// delegates to it and records the call. If the field is nil, the call
// panics with "not implemented: MethodName".
//
// The embedded *client.Client (nil) satisfies the rest of the APIClient
// surface. Any method not explicitly overridden here panics on nil
// dereference, providing fail-loud behavior for unexpected calls.
type FakeAPIClient struct {
	*client.Client

	// mu protects Calls from concurrent access.
	mu sync.Mutex

	// Calls records the method names invoked on this fake, in order.
	Calls []string

	ContainerCreateFn  func(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStartFn   func(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStopFn    func(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemoveFn  func(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerListFn    func(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspectFn func(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerAttachFn  func(ctx context.Context, containerID string, options container.AttachOptions) (types.HijackedResponse, error)
	PingFn             func(ctx context.Context) (types.Ping, error)
	CloseFn            func() error
}

// record appends a method name to the call log (thread-safe).
func (f *FakeAPIClient) record(method string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, method)
	f.mu.Unlock()
}

// notImplemented panics with a descriptive message for unset function fields.
func notImplemented(method string) {
	panic(fmt.Sprintf("not implemented: %s — set %sFn on FakeAPIClient", method, method))
}

// Reset clears the Calls log.
func (f *FakeAPIClient) Reset() {
	f.mu.Lock()
	f.Calls = nil
	f.mu.Unlock()
}

func (f *FakeAPIClient) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	if f.ContainerCreateFn == nil {
		notImplemented("ContainerCreate")
	}
	f.record("ContainerCreate")
	return f.ContainerCreateFn(ctx, config, hostConfig, networkingConfig, platform, containerName)
}

func (f *FakeAPIClient) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	if f.ContainerStartFn == nil {
		notImplemented("ContainerStart")
	}
	f.record("ContainerStart")
	return f.ContainerStartFn(ctx, containerID, options)
}

func (f *FakeAPIClient) ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error {
	if f.ContainerStopFn == nil {
		notImplemented("ContainerStop")
	}
	f.record("ContainerStop")
	return f.ContainerStopFn(ctx, containerID, options)
}

func (f *FakeAPIClient) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	if f.ContainerRemoveFn == nil {
		notImplemented("ContainerRemove")
	}
	f.record("ContainerRemove")
	return f.ContainerRemoveFn(ctx, containerID, options)
}

func (f *FakeAPIClient) ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
	if f.ContainerListFn == nil {
		notImplemented("ContainerList")
	}
	f.record("ContainerList")
	return f.ContainerListFn(ctx, options)
}

func (f *FakeAPIClient) ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error) {
	if f.ContainerInspectFn == nil {
		notImplemented("ContainerInspect")
	}
	f.record("ContainerInspect")
	return f.ContainerInspectFn(ctx, containerID)
}

func (f *FakeAPIClient) ContainerAttach(ctx context.Context, containerID string, options container.AttachOptions) (types.HijackedResponse, error) {
	if f.ContainerAttachFn == nil {
		notImplemented("ContainerAttach")
	}
	f.record("ContainerAttach")
	return f.ContainerAttachFn(ctx, containerID, options)
}

func (f *FakeAPIClient) Ping(ctx context.Context) (types.Ping, error) {
	if f.PingFn == nil {
		notImplemented("Ping")
	}
	f.record("Ping")
	return f.PingFn(ctx)
}

func (f *FakeAPIClient) Close() error {
	if f.CloseFn == nil {
		notImplemented("Close")
	}
	f.record("Close")
	return f.CloseFn()
}
