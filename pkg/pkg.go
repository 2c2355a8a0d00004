//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of psh embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name and the base name of the configuration and
	// cache directories.
	Name = "psh"
	// Description is the one-line summary shown in help output.
	Description = "Scripting language with first-class shell pipelines"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
