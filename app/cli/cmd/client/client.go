package client

import (
	"os"

	"argos/pkg/client"
)

const (
	// EnvServer is the env variable holding the server url
	EnvServer = "ARGOS_SERVER"

	// DefaultServer is the server url used when none is given
	DefaultServer = "http://127.0.0.1:8080"
)

// Server is the server url, set by the --server flag
var Server string

// New returns a new argos client
func New() (client.Client, error) {
	server := Server
	if server == "" {
		server = os.Getenv(EnvServer)
	}
	if server == "" {
		server = DefaultServer
	}
	return client.NewClient(server)
}
