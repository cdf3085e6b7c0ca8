// Package docker provisions the Phabricator network and container through
// the Docker SDK and exposes command execution inside the container.
package docker

import (
	"io"
	"time"
)

// =============================================================================
// Network Types
// =============================================================================

// NetworkSpec defines the specification for creating a network.
type NetworkSpec struct {
	Name   string
	Driver string // "" means "bridge"
	Subnet string // CIDR, e.g. "172.19.0.0/16"; "" lets Docker pick
	Labels map[string]string
}

// =============================================================================
// Container Types
// =============================================================================

// ContainerSpec defines the specification for creating a container.
type ContainerSpec struct {
	Name          string
	Image         string
	Command       []string
	Env           map[string]string
	Labels        map[string]string
	Ports         []PortBinding
	Network       string // network to attach at creation time
	IPv4Address   string // static address on Network; "" lets Docker assign
	RestartPolicy RestartPolicy
}

// PortBinding defines a port mapping.
type PortBinding struct {
	ContainerPort int
	HostPort      int    // 0 for auto-assign
	Protocol      string // "tcp" or "udp"
	HostIP        string // "" for 0.0.0.0
}

// RestartPolicy defines the container restart policy.
type RestartPolicy struct {
	Name              string // "no", "always", "on-failure", "unless-stopped"
	MaximumRetryCount int
}

// ContainerInfo contains information about a container.
type ContainerInfo struct {
	ID         string
	Name       string
	Image      string
	State      string // "running", "exited", "created", ...
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
	IPv4       string // address on the attached network, if any
	Ports      []PortBinding
	Labels     map[string]string
	ExitCode   int
}

// =============================================================================
// Exec Types
// =============================================================================

// ExecOptions configures a command executed inside a running container.
type ExecOptions struct {
	Cmd   []string
	Env   []string
	Stdin io.Reader
}

// ExecResult holds the outcome of an exec.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// =============================================================================
// Options
// =============================================================================

// RemoveOptions defines options for removing containers.
type RemoveOptions struct {
	Force         bool
	RemoveVolumes bool
}

// ListOptions defines options for listing containers.
type ListOptions struct {
	All     bool              // Include stopped containers
	Filters map[string]string // e.g., {"label": "com.phabctl.managed=true"}
}

// LogOptions defines options for container logs.
type LogOptions struct {
	Follow     bool
	Tail       string // "all" or number
	Timestamps bool
}

// PullOptions defines options for pulling images.
type PullOptions struct {
	Platform string // e.g., "linux/amd64"
}

// =============================================================================
// Client Interface
// =============================================================================

// Client defines the Docker operations phabctl needs.
type Client interface {
	// Container operations
	CreateContainer(spec ContainerSpec) (containerID string, err error)
	StartContainer(containerID string) error
	StopContainer(containerID string, timeout *time.Duration) error
	RemoveContainer(containerID string, opts RemoveOptions) error
	InspectContainer(containerID string) (*ContainerInfo, error)
	ListContainers(opts ListOptions) ([]ContainerInfo, error)
	ContainerLogs(containerID string, opts LogOptions) (io.ReadCloser, error)

	// Network operations
	NetworkExists(name string) (networkID string, exists bool, err error)
	CreateNetwork(spec NetworkSpec) (networkID string, err error)
	EnsureNetwork(spec NetworkSpec) (networkID string, created bool, err error)
	RemoveNetwork(networkID string) error

	// Exec operations
	Exec(containerID string, opts ExecOptions) (*ExecResult, error)
	CopyToContainer(containerID, dstPath string, content []byte, mode int64) error

	// Image operations
	PullImage(image string, opts PullOptions) error
	ImageExists(image string) (bool, error)

	// Health operations
	Ping() error
	Close() error
}

// =============================================================================
// Label Constants
// =============================================================================

const (
	LabelManaged = "com.phabctl.managed"
	LabelApp     = "com.phabctl.app"
)
