// Package catalog defines the domain types shared by the filter engine: catalog
// entries, stored category definitions and the errors the store collaborator reports.
package catalog

import "fmt"

// Ordinal labels used by the descriptive attributes of a show.
const (
	LevelLow          = "Low"
	LevelLowModerate  = "Low-Moderate"
	LevelModerate     = "Moderate"
	LevelModerateHigh = "Moderate-High"
	LevelHigh         = "High"
)

// Levels lists the ordinal vocabulary from lowest to highest.
var Levels = []string{LevelLow, LevelLowModerate, LevelModerate, LevelModerateHigh, LevelHigh}

// Stimulation score bounds.
const (
	MinStimulationScore = 1
	MaxStimulationScore = 5
)

// ContentItem is one catalog entry.
type ContentItem struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	AgeGroup         string   `json:"ageGroup,omitempty"`
	AgeRange         string   `json:"ageRange,omitempty"`
	StimulationScore int      `json:"stimulationScore"`
	Themes           []string `json:"themes"`

	InteractivityLevel string `json:"interactivityLevel,omitempty"`
	DialogueIntensity  string `json:"dialogueIntensity,omitempty"`
	SoundEffectsLevel  string `json:"soundEffectsLevel,omitempty"`
	SceneFrequency     string `json:"sceneFrequency,omitempty"`
	MusicTempo         string `json:"musicTempo,omitempty"`
	TotalMusicLevel    string `json:"totalMusicLevel,omitempty"`

	IsFeatured  bool `json:"isFeatured"`
	ReleaseYear *int `json:"releaseYear,omitempty"`
}

// LevelRank returns the position of label in Levels, or -1 when the label is not part
// of the vocabulary.
func LevelRank(label string) int {
	for i, l := range Levels {
		if l == label {
			return i
		}
	}
	return -1
}

// CheckLevels reports the first ordinal attribute whose label is outside Levels. Empty
// labels are allowed.
func (i ContentItem) CheckLevels() error {
	attrs := []struct{ field, label string }{
		{"interactivityLevel", i.InteractivityLevel},
		{"dialogueIntensity", i.DialogueIntensity},
		{"soundEffectsLevel", i.SoundEffectsLevel},
		{"sceneFrequency", i.SceneFrequency},
		{"musicTempo", i.MusicTempo},
		{"totalMusicLevel", i.TotalMusicLevel},
	}
	for _, a := range attrs {
		if a.label != "" && LevelRank(a.label) < 0 {
			return fmt.Errorf("%s: unknown level %q", a.field, a.label)
		}
	}
	return nil
}
