package mediatypes

import (
	"embed"
	"fmt"
	"mime"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// MediaType describes one accepted image content type and the file
// extensions it maps to.
type MediaType struct {
	ContentType string   `yaml:"content_type"`
	Extensions  []string `yaml:"extensions"`
}

type registryFile struct {
	Types []MediaType `yaml:"types"`
}

// Registry answers which content types album uploads may carry and
// which extension to use when naming their objects.
type Registry struct {
	byContentType map[string]MediaType
	ordered       []MediaType
}

// NewRegistry loads the embedded image type YAML.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/image_types.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read image_types.yaml: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image_types.yaml: %w", err)
	}

	r := &Registry{
		byContentType: make(map[string]MediaType, len(file.Types)),
		ordered:       file.Types,
	}
	for _, mt := range file.Types {
		if mt.ContentType == "" || len(mt.Extensions) == 0 {
			return nil, fmt.Errorf("invalid media type entry %q", mt.ContentType)
		}
		r.byContentType[mt.ContentType] = mt
	}

	return r, nil
}

// Allowed reports whether contentType is an accepted image type.
// Media type parameters are ignored.
func (r *Registry) Allowed(contentType string) bool {
	_, ok := r.byContentType[normalize(contentType)]
	return ok
}

// ExtensionFor returns the canonical file extension (with leading dot)
// for contentType.
func (r *Registry) ExtensionFor(contentType string) (string, error) {
	mt, ok := r.byContentType[normalize(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}
	return mt.Extensions[0], nil
}

// ContentTypes returns the accepted content types in registry order.
func (r *Registry) ContentTypes() []string {
	out := make([]string, 0, len(r.ordered))
	for _, mt := range r.ordered {
		out = append(out, mt.ContentType)
	}
	return out
}

// normalize strips parameters and lowercases the media type, so
// "image/JPEG; q=1" matches the registry entry for image/jpeg.
func normalize(contentType string) string {
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return parsed
}
