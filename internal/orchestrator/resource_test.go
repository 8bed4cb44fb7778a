package orchestrator

import (
	"errors"
	"path/filepath"
	"testing"

	"draft-orchestrator/internal/segment"
	"draft-orchestrator/internal/timeline"
)

func TestLocalResolver_Resolve(t *testing.T) {
	root := filepath.Join("srv", "media")

	cases := []struct {
		name string
		res  LocalResolver
		kind string
		ref  string
		path string
		mk   timeline.MaterialKind
	}{
		{"plain_path", LocalResolver{}, "audio", "music/a.mp3", filepath.Join("music", "a.mp3"), timeline.MaterialAudio},
		{"joined_onto_root", LocalResolver{Root: root}, "video", "clips/b.mp4", filepath.Join(root, "clips", "b.mp4"), timeline.MaterialVideo},
		{"absolute_ignores_root", LocalResolver{Root: root}, "image", "/tmp/c.png", "/tmp/c.png", timeline.MaterialPhoto},
		{"file_url", LocalResolver{}, "video", "file:///data/d.mp4", "/data/d.mp4", timeline.MaterialVideo},
		{"cleaned", LocalResolver{}, "audio", "./x/../e.wav", "e.wav", timeline.MaterialAudio},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := tc.res.Resolve(tc.kind, tc.ref)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if m.Path != tc.path || m.Kind != tc.mk || m.Name != filepath.Base(tc.path) {
				t.Errorf("material %+v, want path %q kind %v", m, tc.path, tc.mk)
			}
		})
	}
}

func TestLocalResolver_rejections(t *testing.T) {
	t.Run("remote", func(t *testing.T) {
		for _, ref := range []string{"https://cdn/a.mp3", "s3://bucket/a.mp3"} {
			if _, err := (LocalResolver{}).Resolve("audio", ref); !errors.Is(err, ErrRemoteResource) {
				t.Errorf("%s: expected ErrRemoteResource, got %v", ref, err)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := (LocalResolver{}).Resolve("video", "  ")
		var me *segment.MissingResourceError
		if !errors.As(err, &me) || me.Kind != "video" {
			t.Errorf("expected MissingResourceError, got %v", err)
		}
	})
}

func TestResourceRef_key_order(t *testing.T) {
	cfg := map[string]any{"path": "c", "material_url": "b", "material_path": "a"}
	if got := resourceRef(cfg); got != "a" {
		t.Errorf("resourceRef = %q, want a", got)
	}
	delete(cfg, "material_path")
	if got := resourceRef(cfg); got != "b" {
		t.Errorf("resourceRef = %q, want b", got)
	}
	if got := resourceRef(map[string]any{"material_url": 3}); got != "" {
		t.Errorf("non-string ref: %q", got)
	}
}
