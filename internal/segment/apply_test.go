package segment

import (
	"errors"
	"reflect"
	"testing"

	"draft-orchestrator/internal/timeline"
	"draft-orchestrator/internal/variant"
)

func buildAudio(t *testing.T, e *Engine) *timeline.AudioSegment {
	t.Helper()
	seg, err := e.Build(KindAudio, map[string]any{
		"target_timerange": map[string]any{"start": 0, "duration": 5_000_000},
		"volume":           0.6,
	}, audioMaterial())
	if err != nil {
		t.Fatalf("build audio: %v", err)
	}
	return seg.(*timeline.AudioSegment)
}

func buildVideo(t *testing.T, e *Engine) *timeline.VideoSegment {
	t.Helper()
	seg, err := e.Build(KindVideo, map[string]any{
		"target_timerange": map[string]any{"start": 0, "duration": 4_000_000},
	}, videoMaterial())
	if err != nil {
		t.Fatalf("build video: %v", err)
	}
	return seg.(*timeline.VideoSegment)
}

func buildText(t *testing.T, e *Engine) *timeline.TextSegment {
	t.Helper()
	seg, err := e.Build(KindText, map[string]any{
		"text_content":     "caption",
		"target_timerange": map[string]any{"duration": 3_000_000},
	}, nil)
	if err != nil {
		t.Fatalf("build text: %v", err)
	}
	return seg.(*timeline.TextSegment)
}

func TestApply_unknown_operation(t *testing.T) {
	e := newTestEngine(t)
	err := e.Apply(buildAudio(t, e), "add_sparkles", nil)
	var ue *UnsupportedKindError
	if !errors.As(err, &ue) || ue.Category != "operation" {
		t.Errorf("expected UnsupportedKindError, got %v", err)
	}
	if err := ValidateOperation("add_sparkles"); !errors.As(err, &ue) {
		t.Errorf("ValidateOperation: expected UnsupportedKindError, got %v", err)
	}
	if err := ValidateOperation(OpAddMask); err != nil {
		t.Errorf("ValidateOperation(add_mask): %v", err)
	}
}

func TestApply_fade(t *testing.T) {
	e := newTestEngine(t)
	a := buildAudio(t, e)
	if err := e.Apply(a, OpAddFade, map[string]any{"in_duration": "1s", "out_duration": "0s"}); err != nil {
		t.Fatal(err)
	}
	if a.Fade == nil || a.Fade.In != timeline.Second || a.Fade.Out != 0 {
		t.Errorf("fade %+v", a.Fade)
	}

	txt := buildText(t, e)
	if err := e.Apply(txt, OpAddFade, map[string]any{}); !errors.Is(err, timeline.ErrUnsupported) {
		t.Errorf("fade on text: expected ErrUnsupported, got %v", err)
	}
}

func TestApply_keyframe_dispatch_by_segment_kind(t *testing.T) {
	e := newTestEngine(t)

	t.Run("audio_takes_volume_only", func(t *testing.T) {
		a := buildAudio(t, e)
		if err := e.Apply(a, OpAddKeyframe, map[string]any{"offset": 500_000, "value": 0.2}); err != nil {
			t.Fatal(err)
		}
		want := []timeline.Keyframe{{Property: "volume", Offset: 500_000, Value: 0.2}}
		if !reflect.DeepEqual(a.Keyframes, want) {
			t.Errorf("keyframes %+v", a.Keyframes)
		}
	})

	t.Run("video_resolves_property", func(t *testing.T) {
		v := buildVideo(t, e)
		if err := e.Apply(v, OpAddKeyframe, map[string]any{"property": "KeyframeProperty.position_x", "offset": "1s", "value": 0.5}); err != nil {
			t.Fatal(err)
		}
		if len(v.Keyframes) != 1 || v.Keyframes[0].Property != "position_x" || v.Keyframes[0].Offset != timeline.Second {
			t.Errorf("keyframes %+v", v.Keyframes)
		}
	})

	t.Run("native_property_value_resolves", func(t *testing.T) {
		txt := buildText(t, e)
		if err := e.Apply(txt, OpAddKeyframe, map[string]any{"property": "KFTypeAlpha", "value": 0}); err != nil {
			t.Fatal(err)
		}
		if txt.Keyframes[0].Property != "alpha" {
			t.Errorf("keyframes %+v", txt.Keyframes)
		}
	})

	t.Run("visual_requires_property", func(t *testing.T) {
		v := buildVideo(t, e)
		if err := e.Apply(v, OpAddKeyframe, map[string]any{"value": 1}); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("unknown_property", func(t *testing.T) {
		v := buildVideo(t, e)
		err := e.Apply(v, OpAddKeyframe, map[string]any{"property": "wobble"})
		var re *variant.ResolutionError
		if !errors.As(err, &re) || re.Field != "property" {
			t.Errorf("expected ResolutionError, got %v", err)
		}
	})
}

func TestApply_animation_families(t *testing.T) {
	e := newTestEngine(t)

	t.Run("video_unprefixed_tries_intro_first", func(t *testing.T) {
		v := buildVideo(t, e)
		if err := e.Apply(v, OpAddAnimation, map[string]any{"animation_type": "斜切"}); err != nil {
			t.Fatal(err)
		}
		if v.Animations[0].Family != timeline.FamilyIntro {
			t.Errorf("animations %+v", v.Animations)
		}
	})

	t.Run("video_prefixed_outro", func(t *testing.T) {
		v := buildVideo(t, e)
		if err := e.Apply(v, OpAddAnimation, map[string]any{"animation_type": "OutroType.斜切", "duration": "1s"}); err != nil {
			t.Fatal(err)
		}
		a := v.Animations[0]
		if a.Family != timeline.FamilyOutro || a.Start != 3*timeline.Second || a.Duration != timeline.Second {
			t.Errorf("animation %+v", a)
		}
	})

	t.Run("text_unprefixed_falls_through_to_outro", func(t *testing.T) {
		txt := buildText(t, e)
		if err := e.Apply(txt, OpAddAnimation, map[string]any{"animation_type": "故障闪动"}); err != nil {
			t.Fatal(err)
		}
		if txt.Animations[0].Family != timeline.FamilyOutro {
			t.Errorf("animations %+v", txt.Animations)
		}
	})

	t.Run("audio_has_no_animations", func(t *testing.T) {
		if err := e.Apply(buildAudio(t, e), OpAddAnimation, map[string]any{"animation_type": "斜切"}); !errors.Is(err, timeline.ErrUnsupported) {
			t.Errorf("expected ErrUnsupported, got %v", err)
		}
	})
}

func TestApply_video_operations(t *testing.T) {
	e := newTestEngine(t)
	v := buildVideo(t, e)

	ops := []struct {
		kind string
		data map[string]any
	}{
		{OpAddMask, map[string]any{"mask_type_name": "MaskType.圆形", "size": 0.3, "feather": 10}},
		{OpAddTransition, map[string]any{"transition_type": "TransitionType.叠化"}},
		{OpAddFilter, map[string]any{"filter_type": "复古", "intensity": 60}},
		{OpAddEffect, map[string]any{"effect_type": "复古 DV"}},
		{OpAddBackgroundFilling, map[string]any{"fill_type": "color", "color": "#FF000000"}},
	}
	for _, op := range ops {
		if err := e.Apply(v, op.kind, op.data); err != nil {
			t.Fatalf("%s: %v", op.kind, err)
		}
	}

	if v.Mask == nil || v.Mask.Type != "MaskType.圆形" || v.Mask.Size != 0.3 || v.Mask.CenterX != 0 {
		t.Errorf("mask %+v", v.Mask)
	}
	if v.Transition == nil || v.Transition.Duration != 466666 {
		t.Errorf("transition %+v", v.Transition)
	}
	if len(v.Filters) != 1 || v.Filters[0].Intensity != 60 {
		t.Errorf("filters %+v", v.Filters)
	}
	if len(v.Effects) != 1 || v.Effects[0].Type != "VideoSceneEffectType.复古DV" {
		t.Errorf("effects %+v", v.Effects)
	}
	if v.BackgroundFilling == nil || v.BackgroundFilling.Type != timeline.FillColor {
		t.Errorf("background filling %+v", v.BackgroundFilling)
	}

	if err := e.Apply(v, OpAddMask, map[string]any{}); !errors.Is(err, timeline.ErrFeatureExists) {
		t.Errorf("second mask: expected ErrFeatureExists, got %v", err)
	}
}

func TestApply_text_operations(t *testing.T) {
	e := newTestEngine(t)
	txt := buildText(t, e)

	if err := e.Apply(txt, OpAddBubble, map[string]any{"effect_id": "361595", "resource_id": "6742029398926430728"}); err != nil {
		t.Fatal(err)
	}
	if err := e.Apply(txt, OpAddEffect, map[string]any{"effect_id": "7296357486490144036"}); err != nil {
		t.Fatal(err)
	}
	if txt.Bubble == nil || txt.Effect == nil || txt.Effect.EffectID != "7296357486490144036" {
		t.Errorf("bubble %+v effect %+v", txt.Bubble, txt.Effect)
	}
	if err := e.Apply(txt, OpAddMask, nil); !errors.Is(err, timeline.ErrUnsupported) {
		t.Errorf("mask on text: expected ErrUnsupported, got %v", err)
	}
}

func TestApply_audio_effects(t *testing.T) {
	e := newTestEngine(t)
	a := buildAudio(t, e)

	if err := e.Apply(a, OpAddAudioEffect, map[string]any{"effect_type": "AudioSceneEffectType.人声增强", "params": []any{50}}); err != nil {
		t.Fatal(err)
	}
	if err := e.Apply(a, OpAddEffect, map[string]any{"effect_type": "大叔"}); err != nil {
		t.Fatal(err)
	}
	if len(a.Effects) != 2 || a.Effects[0].Params[0].Value != 0.5 {
		t.Errorf("effects %+v", a.Effects)
	}
	if err := e.Apply(buildVideo(t, e), OpAddAudioEffect, map[string]any{"effect_type": "大叔"}); !errors.Is(err, timeline.ErrUnsupported) {
		t.Errorf("audio effect on video: expected ErrUnsupported, got %v", err)
	}
}

func TestApplyAll_partial_failure_continues(t *testing.T) {
	e := newTestEngine(t)
	a := buildAudio(t, e)

	records := []OperationRecord{
		NewRecord(OpAddFade, map[string]any{"in_duration": "1s", "out_duration": "0s"}),
		NewRecord("add_unknown", map[string]any{}),
		NewRecord(OpAddKeyframe, map[string]any{"offset": 0, "value": 0.8}),
	}
	rep := e.ApplyAll("seg-1", a, records)

	if len(rep.Failures) != 1 || rep.Failures[0].Kind != "add_unknown" {
		t.Fatalf("failures %+v", rep.Failures)
	}
	var ue *UnsupportedKindError
	if !errors.As(rep.Failures[0].Err, &ue) {
		t.Errorf("failure error %v", rep.Failures[0].Err)
	}
	if len(rep.Applied) != 2 || rep.Applied[0] != records[0].ID || rep.Applied[1] != records[2].ID {
		t.Errorf("applied %v", rep.Applied)
	}
	if a.Fade == nil || len(a.Keyframes) != 1 {
		t.Errorf("expected fade and keyframe to survive, got fade=%+v keyframes=%+v", a.Fade, a.Keyframes)
	}
}

func TestApplyAll_replay_is_deterministic(t *testing.T) {
	e := newTestEngine(t)
	records := []OperationRecord{
		NewRecord(OpAddAnimation, map[string]any{"animation_type": "渐显"}),
		NewRecord(OpAddMask, map[string]any{"mask_type_name": "爱心", "invert": true}),
		NewRecord(OpAddKeyframe, map[string]any{"property": "uniform_scale", "offset": 0, "value": 1.5}),
		NewRecord(OpAddFilter, map[string]any{"filter_type": "NoSuchFilter"}),
		NewRecord(OpAddFade, map[string]any{"in_duration": "500ms"}),
	}

	first, second := buildVideo(t, e), buildVideo(t, e)
	r1 := e.ApplyAll("a", first, records)
	r2 := e.ApplyAll("b", second, records)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("replays diverged:\n%+v\n%+v", first, second)
	}
	if len(r1.Failures) != 1 || len(r2.Failures) != 1 {
		t.Errorf("failures %d / %d", len(r1.Failures), len(r2.Failures))
	}
}

func TestJournal(t *testing.T) {
	var j Journal
	a := NewRecord(OpAddFade, nil)
	b := NewRecord(OpAddMask, nil)
	j.Append(a)
	j.Append(b)

	if j.Len() != 2 || len(j.Pending()) != 2 {
		t.Fatalf("len %d pending %d", j.Len(), len(j.Pending()))
	}
	j.MarkApplied(a.ID)
	pending := j.Pending()
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Errorf("pending %+v", pending)
	}

	recs := j.Records()
	recs[0].Kind = "mutated"
	if j.Records()[0].Kind != OpAddFade {
		t.Error("Records must return a copy")
	}
	if a.ID == b.ID || a.Timestamp.IsZero() {
		t.Error("records need distinct ids and a timestamp")
	}
}
