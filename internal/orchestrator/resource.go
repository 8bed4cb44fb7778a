package orchestrator

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"draft-orchestrator/internal/segment"
	"draft-orchestrator/internal/timeline"
)

// ErrRemoteResource is returned for resource references that would need a
// download. Fetching media is the caller's job; only local files are accepted.
var ErrRemoteResource = errors.New("remote resources must be downloaded before use")

// ResourceResolver turns a caller's media reference into a local material.
type ResourceResolver interface {
	Resolve(kind, ref string) (*timeline.Material, error)
}

// LocalResolver accepts plain paths and file:// URLs. Relative paths are
// joined onto Root when it is set.
type LocalResolver struct {
	Root string
}

// Resolve implements ResourceResolver.
func (l LocalResolver) Resolve(kind, ref string) (*timeline.Material, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &segment.MissingResourceError{Kind: kind}
	}

	path := ref
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		if u.Scheme != "file" {
			return nil, fmt.Errorf("%w: %s", ErrRemoteResource, ref)
		}
		path = u.Path
	}
	if l.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.Root, path)
	}

	m := timeline.NewMaterial(materialKind(kind), filepath.Clean(path))
	return &m, nil
}

func materialKind(kind string) timeline.MaterialKind {
	switch kind {
	case segment.KindAudio:
		return timeline.MaterialAudio
	case segment.KindImage:
		return timeline.MaterialPhoto
	default:
		return timeline.MaterialVideo
	}
}

// resourceRef picks the media reference out of a segment configuration.
func resourceRef(cfg map[string]any) string {
	for _, key := range []string{"material_path", "material_url", "path"} {
		if s, ok := cfg[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
