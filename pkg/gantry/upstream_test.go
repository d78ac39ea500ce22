package gantry

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
)

// startForTest starts u on an ephemeral port, skipping the test on
// hosts without a routable interface.
func startForTest(t *testing.T, u *upstream) {
	t.Helper()
	u.port = "0"
	if err := u.start(); err != nil {
		if strings.Contains(err.Error(), "no non-loopback IPv4") {
			t.Skip("no routable interface on this host")
		}
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		if err := u.destroy(context.Background()); err != nil {
			t.Errorf("destroy: %v", err)
		}
	})
}

func getBody(t *testing.T, url string) (string, int) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body), resp.StatusCode
}

func TestUpstreamHandlerServesBody(t *testing.T) {
	u := newUpstream(UpstreamHandler("hello from upstream"))
	startForTest(t, u)

	body, status := getBody(t, "http://"+u.listener.Addr().String()+"/anything")
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if body != "hello from upstream" {
		t.Errorf("body = %q", body)
	}
}

func TestUpstreamHandlerDefaultBody(t *testing.T) {
	u := newUpstream(UpstreamHandler(""))
	startForTest(t, u)

	body, _ := getBody(t, "http://"+u.listener.Addr().String()+"/")
	if body != DefaultUpstreamBody {
		t.Errorf("body = %q, want %q", body, DefaultUpstreamBody)
	}
}

func TestUpstreamHandlerWritesHandlerFile(t *testing.T) {
	u := newUpstream(UpstreamHandler("file contents"))
	startForTest(t, u)

	path := u.handlerPath()
	if path == "" {
		t.Fatal("handlerPath should be set after start")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read handler file: %v", err)
	}
	if string(data) != "file contents" {
		t.Errorf("handler file = %q", data)
	}
}

func TestUpstreamStartIsIdempotent(t *testing.T) {
	u := newUpstream(UpstreamHandler("x"))
	startForTest(t, u)

	if err := u.start(); err != nil {
		t.Fatalf("second start: %v", err)
	}
}

func TestUpstreamIPAddressBeforeStart(t *testing.T) {
	u := newUpstream(UpstreamHandler("x"))
	if _, err := u.ipAddress(); err == nil {
		t.Error("ipAddress before start should fail")
	}
}

func TestUpstreamIPAddressIsRoutable(t *testing.T) {
	u := newUpstream(UpstreamHandler("x"))
	startForTest(t, u)

	addr, err := u.ipAddress()
	if err != nil {
		t.Fatalf("ipAddress: %v", err)
	}
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() == nil {
		t.Fatalf("ipAddress = %q, want an IPv4 address", addr)
	}
	if ip.IsLoopback() {
		t.Errorf("ipAddress = %q, want a non-loopback address", addr)
	}
}

func TestUpstreamStopIsIdempotent(t *testing.T) {
	u := newUpstream(UpstreamHandler("x"))
	startForTest(t, u)
	addr := u.listener.Addr().String()

	if err := u.stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := u.stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	if _, err := http.Get("http://" + addr + "/"); err == nil {
		t.Error("upstream should not be reachable after stop")
	}
}

func TestUpstreamDestroyRemovesDir(t *testing.T) {
	u := newUpstream(UpstreamHandler("x"))
	startForTest(t, u)

	path := u.handlerPath()
	if err := u.destroy(context.Background()); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("handler file should be gone, stat err = %v", err)
	}
	if u.handlerPath() != "" {
		t.Error("handlerPath should be empty after destroy")
	}

	// Destroy again to confirm partial teardown is tolerated.
	if err := u.destroy(context.Background()); err != nil {
		t.Fatalf("second destroy: %v", err)
	}
}

func TestUpstreamEndpointDirective(t *testing.T) {
	u := newUpstream(UpstreamEndpoint("10.1.2.3:8081"))
	if err := u.start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	addr, err := u.ipAddress()
	if err != nil {
		t.Fatalf("ipAddress: %v", err)
	}
	if addr != "10.1.2.3" {
		t.Errorf("ipAddress = %q, want 10.1.2.3", addr)
	}
	if u.port != "8081" {
		t.Errorf("port = %q, want 8081", u.port)
	}

	if err := u.stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := u.destroy(context.Background()); err != nil {
		t.Fatalf("destroy: %v", err)
	}
}

func TestUpstreamEndpointWithoutPort(t *testing.T) {
	u := newUpstream(UpstreamEndpoint("10.1.2.3"))
	if err := u.start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	addr, _ := u.ipAddress()
	if addr != "10.1.2.3" {
		t.Errorf("ipAddress = %q", addr)
	}
	if u.port != DefaultUpstreamPort {
		t.Errorf("port = %q, want default %q", u.port, DefaultUpstreamPort)
	}
}
