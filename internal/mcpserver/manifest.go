package mcpserver

import (
	"encoding/json"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	publisherMeta  = "io.modelcontextprotocol.registry/publisher-provided"
)

// Manifest is the MCP registry server.json document.
type Manifest struct {
	Schema      string                   `json:"$schema"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Version     string                   `json:"version"`
	Repository  *Repository              `json:"repository,omitempty"`
	Packages    []Package                `json:"packages,omitempty"`
	Meta        map[string]PublisherMeta `json:"_meta,omitempty"`
}

// Repository contains source repository information.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes how to install/run the MCP server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument represents a command-line argument.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Transport describes the communication method.
type Transport struct {
	Type string `json:"type"`
}

// PublisherMeta carries build details and the tool catalog of this binary.
type PublisherMeta struct {
	Commit  string     `json:"commit,omitempty"`
	Date    string     `json:"date,omitempty"`
	Tools   []ToolInfo `json:"tools"`
	Prompts []string   `json:"prompts"`
}

// maxDescription is the registry's limit on the description field.
const maxDescription = 100

// BuildInfo is what the binary knows about itself. The cmd package fills it
// from values set with -ldflags.
type BuildInfo struct {
	Version     string
	Commit      string
	Date        string
	Repository  string
	Description string
}

// GenerateManifest builds server.json for the tools and prompts this server
// registers. The registry name and OCI image are derived from the GitHub
// repository.
func GenerateManifest(info BuildInfo) ([]byte, error) {
	owner, repo, err := githubRepo(info.Repository)
	if err != nil {
		return nil, err
	}
	if info.Description == "" || len(info.Description) > maxDescription {
		return nil, fmt.Errorf("description must be 1-%d characters, got %d", maxDescription, len(info.Description))
	}
	var prompts []string
	for _, def := range loadPrompts() {
		prompts = append(prompts, def.Name)
	}
	version := manifestVersion(info.Version)

	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        fmt.Sprintf("io.github.%s/%s", owner, repo),
		Description: info.Description,
		Version:     version,
		Repository: &Repository{
			URL:    fmt.Sprintf("https://github.com/%s/%s", owner, repo),
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType: "oci",
				Identifier:   fmt.Sprintf("ghcr.io/%s/%s:%s", owner, repo, version),
				PackageArguments: []Argument{
					{Type: "positional", Value: "mcp"},
				},
				Transport: Transport{Type: "stdio"},
			},
		},
		Meta: map[string]PublisherMeta{
			publisherMeta: {
				Commit:  info.Commit,
				Date:    info.Date,
				Tools:   Tools(),
				Prompts: prompts,
			},
		},
	}

	return json.MarshalIndent(manifest, "", "  ")
}

// manifestVersion prefers the ldflags version, then the module version
// recorded by go install, then 0.0.0.
func manifestVersion(v string) string {
	v = strings.TrimPrefix(v, "v")
	if v != "" && v != "dev" {
		return v
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if mv := strings.TrimPrefix(bi.Main.Version, "v"); mv != "" && mv != "(devel)" {
			return mv
		}
	}
	return "0.0.0"
}

func githubRepo(raw string) (owner, repo string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("repository %q: %w", raw, err)
	}
	if u.Host != "github.com" {
		return "", "", fmt.Errorf("repository %q: only github.com repositories can be published", raw)
	}
	parts := strings.Split(strings.Trim(strings.TrimSuffix(u.Path, ".git"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository %q: want https://github.com/<owner>/<repo>", raw)
	}
	return strings.ToLower(parts[0]), strings.ToLower(parts[1]), nil
}
