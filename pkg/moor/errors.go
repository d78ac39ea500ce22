package moor

import (
	"errors"
	"fmt"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
)

// DockerError represents a user-friendly Docker error with remediation
// steps. It wraps underlying SDK errors with context and actionable
// guidance.
type DockerError struct {
	Op        string   // Operation that failed (e.g. "connect", "create", "attach")
	Err       error    // Underlying error
	Message   string   // Human-readable message
	NextSteps []string // Suggested remediation steps
}

func (e *DockerError) Error() string {
	return e.Message
}

func (e *DockerError) Unwrap() error {
	return e.Err
}

// FormatUserError formats the error for display to users with next steps.
func (e *DockerError) FormatUserError() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Message))

	if e.Err != nil {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", e.Err.Error()))
	}

	if len(e.NextSteps) > 0 {
		sb.WriteString("\nNext Steps:\n")
		for i, step := range e.NextSteps {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	return sb.String()
}

// IsNotFound reports whether err indicates a resource that no longer
// exists. Teardown paths treat these as already done.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if cerrdefs.IsNotFound(err) {
		return true
	}
	var dockerErr *DockerError
	if errors.As(err, &dockerErr) && dockerErr.Err != nil {
		if cerrdefs.IsNotFound(dockerErr.Err) {
			return true
		}
		err = dockerErr.Err
	}
	return strings.Contains(err.Error(), "not found") ||
		strings.Contains(err.Error(), "No such")
}

// Common error constructors

// ErrDockerNotRunning returns an error for when the Docker daemon is not accessible.
func ErrDockerNotRunning(err error) *DockerError {
	return &DockerError{
		Op:      "connect",
		Err:     err,
		Message: "Cannot connect to Docker daemon",
		NextSteps: []string{
			"Ensure Docker is installed",
			"Start Docker Desktop (macOS/Windows) or run 'sudo systemctl start docker' (Linux)",
			"Check if Docker socket is accessible: ls -la /var/run/docker.sock",
			"Verify your user is in the docker group: groups $USER",
		},
	}
}

// ErrInvalidContainerSpec returns an error for a spec the daemon would reject.
func ErrInvalidContainerSpec(name string, err error) *DockerError {
	return &DockerError{
		Op:      "create",
		Err:     err,
		Message: fmt.Sprintf("Invalid container specification for '%s'", name),
		NextSteps: []string{
			"Check memory limits use units like 512m or 2g",
			"Check port specs use [hostIP:][hostPort:]containerPort",
		},
	}
}

// ErrContainerCreateFailed returns an error for when container creation fails.
func ErrContainerCreateFailed(err error) *DockerError {
	return &DockerError{
		Op:      "create",
		Err:     err,
		Message: "Failed to create container",
		NextSteps: []string{
			"Check if the image exists locally: docker images",
			"Verify volume mount paths are valid",
			"Check for conflicting container names",
		},
	}
}

// ErrContainerStartFailed returns an error for when a container fails to start.
func ErrContainerStartFailed(id string, err error) *DockerError {
	return &DockerError{
		Op:      "start",
		Err:     err,
		Message: fmt.Sprintf("Failed to start container '%s'", id),
		NextSteps: []string{
			"Check container logs: docker logs " + id,
			"Verify the image is valid",
			"Check for port conflicts",
		},
	}
}

// ErrContainerStopFailed returns an error for when stopping a container fails.
func ErrContainerStopFailed(id string, err error) *DockerError {
	return &DockerError{
		Op:      "stop",
		Err:     err,
		Message: fmt.Sprintf("Failed to stop container '%s'", id),
		NextSteps: []string{
			"Check if the container exists: docker ps -a",
			"Review Docker daemon logs for details",
		},
	}
}

// ErrContainerRemoveFailed returns an error for when container removal fails.
func ErrContainerRemoveFailed(id string, err error) *DockerError {
	return &DockerError{
		Op:      "remove",
		Err:     err,
		Message: fmt.Sprintf("Failed to remove container '%s'", id),
		NextSteps: []string{
			"Check if the container exists: docker ps -a",
			"Verify the container is not running",
		},
	}
}

// ErrContainerInspectFailed returns an error for when inspecting a container fails.
func ErrContainerInspectFailed(id string, err error) *DockerError {
	return &DockerError{
		Op:      "inspect",
		Err:     err,
		Message: fmt.Sprintf("Failed to inspect container '%s'", id),
		NextSteps: []string{
			"Check if the container exists: docker ps -a",
		},
	}
}

// ErrContainerListFailed returns an error for when listing containers fails.
func ErrContainerListFailed(err error) *DockerError {
	return &DockerError{
		Op:      "list",
		Err:     err,
		Message: "Failed to list containers",
		NextSteps: []string{
			"Verify the Docker daemon is running",
		},
	}
}

// ErrAttachFailed returns an error for when attaching to a container fails.
func ErrAttachFailed(err error) *DockerError {
	return &DockerError{
		Op:      "attach",
		Err:     err,
		Message: "Failed to attach to container",
		NextSteps: []string{
			"Verify the container exists",
			"Check the container was created through gantry",
		},
	}
}

// ErrStreamInterrupted returns an error for when a container output
// stream fails mid-read.
func ErrStreamInterrupted(err error) *DockerError {
	return &DockerError{
		Op:      "stream",
		Err:     err,
		Message: "Container output stream interrupted",
		NextSteps: []string{
			"Check if the container exited unexpectedly: docker ps -a",
			"Review container logs for crash output",
		},
	}
}
