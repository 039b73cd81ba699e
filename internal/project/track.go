package project

import (
	"fmt"
	"sort"

	"github.com/sonatalabs/dawcore/internal/ids"
)

// TrackType is the closed set of track kinds.
type TrackType int

const (
	TrackAudio TrackType = iota
	TrackMidi
	TrackAutomation
)

func (t TrackType) matches(k SourceKind) bool {
	switch t {
	case TrackAudio:
		return k == SourceAudio
	case TrackMidi:
		return k == SourceMidi
	case TrackAutomation:
		return k == SourceAutomation
	}
	return false
}

// Track holds an ordered clip set plus the track-level cache and optional
// generator/mixer-routing references described in spec §3.
type Track struct {
	ID             ids.TrackID
	Name           string
	Color          string
	Type           TrackType
	Clips          []Clip // kept sorted by (start_time, id)
	MaxSampleIndex int64
	Generator      ids.GeneratorID // ids.NilGenerator if none
	TargetMixer    ids.MixerChannelID
}

// NewTrack returns an empty track of the given type.
func NewTrack(name string, trackType TrackType) *Track {
	return &Track{
		ID:        ids.NewTrackID(),
		Name:      name,
		Type:      trackType,
		Generator: ids.NilGenerator,
	}
}

// Clone performs the copy-on-write duplication required before mutation.
func (t *Track) Clone() *Track {
	clone := *t
	clone.Clips = append([]Clip(nil), t.Clips...)
	return &clone
}

// indexForInsert returns the position a clip with the given sort key
// belongs at, via binary search over the already-sorted slice — the O(log
// n) lookup spec §3 calls for.
func (t *Track) indexForInsert(c Clip) int {
	return sort.Search(len(t.Clips), func(i int) bool { return !clipLess(t.Clips[i], c) })
}

// AddClip rejects a clip whose source variant doesn't match the track
// type, otherwise inserts it in sorted order and refreshes the cached end.
func (t *Track) AddClip(c Clip) error {
	if !t.Type.matches(c.Source.Kind) {
		return fmt.Errorf("invalid_input: clip source kind %v does not match track type %v", c.Source.Kind, t.Type)
	}
	idx := t.indexForInsert(c)
	t.Clips = append(t.Clips, Clip{})
	copy(t.Clips[idx+1:], t.Clips[idx:])
	t.Clips[idx] = c
	t.RecomputeMaxSampleIndex()
	return nil
}

// RemoveClip deletes the clip with the given id, if present.
func (t *Track) RemoveClip(clipID ids.ClipID) (Clip, bool) {
	for i, c := range t.Clips {
		if c.ID == clipID {
			removed := c
			t.Clips = append(t.Clips[:i:i], t.Clips[i+1:]...)
			t.RecomputeMaxSampleIndex()
			return removed, true
		}
	}
	return Clip{}, false
}

// RemoveClipBySourceID cascades deletion of every audio clip referencing
// the waveform sourceID, used when it is removed from the asset library.
// Generator removal cascades through RemoveClipsByPattern instead, since
// MIDI clips reference patterns, not the generator itself.
func (t *Track) RemoveClipBySourceID(sourceID ids.WaveformID) []Clip {
	var removed []Clip
	kept := t.Clips[:0:0]
	for _, c := range t.Clips {
		if c.Source.Kind == SourceAudio && c.Source.Waveform == sourceID {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	t.Clips = kept
	if len(removed) > 0 {
		t.RecomputeMaxSampleIndex()
	}
	return removed
}

// RemoveClipsByPattern cascades deletion of every MIDI clip referencing
// patternID (used when a pattern's owning generator is removed).
func (t *Track) RemoveClipsByPattern(patternID ids.PatternID) []Clip {
	var removed []Clip
	kept := t.Clips[:0:0]
	for _, c := range t.Clips {
		if c.Source.Kind == SourceMidi && c.Source.Pattern == patternID {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	t.Clips = kept
	if len(removed) > 0 {
		t.RecomputeMaxSampleIndex()
	}
	return removed
}

// RecomputeMaxSampleIndex recomputes the cached track end from the ordered
// clip set: the timeline end of the last-ending clip.
func (t *Track) RecomputeMaxSampleIndex() {
	var max int64
	for _, c := range t.Clips {
		if end := c.EndTime(); end > max {
			max = end
		}
	}
	t.MaxSampleIndex = max
}

// FindClip returns the clip with the given id and its index, or ok=false.
func (t *Track) FindClip(clipID ids.ClipID) (Clip, int, bool) {
	for i, c := range t.Clips {
		if c.ID == clipID {
			return c, i, true
		}
	}
	return Clip{}, -1, false
}

// ReplaceClip overwrites the clip at index idx and re-sorts if its start
// time changed the ordering, refreshing the cached end.
func (t *Track) ReplaceClip(idx int, c Clip) {
	t.Clips[idx] = c
	sort.SliceStable(t.Clips, func(i, j int) bool { return clipLess(t.Clips[i], t.Clips[j]) })
	t.RecomputeMaxSampleIndex()
}
