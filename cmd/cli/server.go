package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/yourusername/pin-extract-go/internal/app"
)

const (
	serverBinary       = "pin-extract-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

// isServerRunning checks if the server is responding to health checks
func isServerRunning() bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findServerBinary looks next to the CLI, then on PATH, then in common install dirs
func findServerBinary() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		serverPath := filepath.Join(filepath.Dir(execPath), serverBinary)
		if _, err := os.Stat(serverPath); err == nil {
			return serverPath, nil
		}
	}

	if serverPath, err := exec.LookPath(serverBinary); err == nil {
		return serverPath, nil
	}

	home, _ := os.UserHomeDir()
	for _, dir := range []string{"/usr/local/bin", "/usr/bin", filepath.Join(home, "go/bin"), filepath.Join(home, ".local/bin")} {
		p := filepath.Join(dir, serverBinary)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s binary not found", serverBinary)
}

// serverEnv points the started server at the host and port the CLI talks to
func serverEnv() []string {
	env := os.Environ()
	u, err := url.Parse(serverURL)
	if err != nil {
		return env
	}
	if host := u.Hostname(); host != "" {
		env = append(env, app.EnvPrefix+"_SERVER_HOST="+host)
	}
	if port := u.Port(); port != "" {
		env = append(env, app.EnvPrefix+"_SERVER_PORT="+port)
	}
	return env
}

// startServerBackground starts the server as a detached background process
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(serverPath, "-foreground")
	cmd.Env = serverEnv()
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Reap the child without blocking the command
	go cmd.Wait()

	return nil
}

// waitForServerReady polls the server until it's ready or timeout
func waitForServerReady() error {
	deadline := time.Now().Add(serverStartTimeout)

	for time.Now().Before(deadline) {
		if isServerRunning() {
			return nil
		}
		time.Sleep(serverPollInterval)
	}

	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}

// ensureServerRunning checks if server is running, starts it if not
func ensureServerRunning() error {
	if isServerRunning() {
		return nil
	}

	fmt.Fprintln(os.Stderr, "Server not running, starting...")

	if err := startServerBackground(); err != nil {
		return err
	}

	if err := waitForServerReady(); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Server started successfully")
	return nil
}
