package integration_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/schmitthub/gantry/pkg/gantry"
	"github.com/schmitthub/gantry/pkg/moor"
)

// testImage is the base image for test containers. It ships a static
// file httpd, which is all the boot/ready/fetch path needs.
const testImage = "busybox:latest"

// testEngineOptions scopes managed labels to this suite, so TestMain
// cleanup never touches containers created outside the tests.
func testEngineOptions() moor.Options {
	return moor.Options{
		LabelPrefix:  moor.DefaultLabelPrefix,
		ManagedLabel: "test",
	}
}

// dockerAvailable reports whether the Docker daemon is reachable.
func dockerAvailable(ctx context.Context) bool {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()

	_, err = cli.Ping(ctx)
	return err == nil
}

// pullTestImage pulls the base image so container creation never races
// a cold image cache mid-test.
func pullTestImage(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("creating Docker client: %w", err)
	}
	defer cli.Close()

	reader, err := cli.ImagePull(ctx, testImage, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pulling %s: %w", testImage, err)
	}
	defer reader.Close()
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(reader)
	return nil
}

// newTestEngine connects a label-scoped engine and closes it when the
// test completes.
func newTestEngine(t *testing.T) *moor.Engine {
	t.Helper()
	eng, err := moor.New(context.Background(), testEngineOptions())
	if err != nil {
		t.Fatalf("connecting Docker engine: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

// writeFixture lays out a served directory with an index page and
// returns its path.
func writeFixture(t *testing.T, index string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return dir
}

// serveFixtureCmd builds a container command that announces readiness
// and then serves the mounted fixture directory on port 80.
func serveFixtureCmd() []string {
	return []string{"sh", "-c", fmt.Sprintf("echo %q; exec httpd -f -p 80 -h /src", gantry.ReadySentinel)}
}

// destroyStack tears the stack down and fails the test on residue.
func destroyStack(t *testing.T, stack *gantry.Stack) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := stack.Destroy(ctx); err != nil {
		t.Errorf("Destroy: %v", err)
	}
}
