package bunstore

import (
	"github.com/uptrace/bun"

	"github.com/goliatone/go-facet-catalog/catalog"
)

type itemModel struct {
	bun.BaseModel `bun:"table:content_items,alias:ci"`

	ID               int64    `bun:"id,pk,autoincrement"`
	Name             string   `bun:"name,notnull"`
	Description      string   `bun:"description,notnull,default:''"`
	AgeGroup         string   `bun:"age_group,notnull,default:''"`
	AgeRange         string   `bun:"age_range,notnull,default:''"`
	StimulationScore int      `bun:"stimulation_score,notnull,default:1"`
	Themes           []string `bun:"themes,array"`

	InteractivityLevel string `bun:"interactivity_level,nullzero"`
	DialogueIntensity  string `bun:"dialogue_intensity,nullzero"`
	SoundEffectsLevel  string `bun:"sound_effects_level,nullzero"`
	SceneFrequency     string `bun:"scene_frequency,nullzero"`
	MusicTempo         string `bun:"music_tempo,nullzero"`
	TotalMusicLevel    string `bun:"total_music_level,nullzero"`

	IsFeatured  bool `bun:"is_featured,notnull,default:false"`
	ReleaseYear *int `bun:"release_year"`
}

func toItemModel(item catalog.ContentItem) *itemModel {
	return &itemModel{
		ID:                 item.ID,
		Name:               item.Name,
		Description:        item.Description,
		AgeGroup:           item.AgeGroup,
		AgeRange:           item.AgeRange,
		StimulationScore:   item.StimulationScore,
		Themes:             item.Themes,
		InteractivityLevel: item.InteractivityLevel,
		DialogueIntensity:  item.DialogueIntensity,
		SoundEffectsLevel:  item.SoundEffectsLevel,
		SceneFrequency:     item.SceneFrequency,
		MusicTempo:         item.MusicTempo,
		TotalMusicLevel:    item.TotalMusicLevel,
		IsFeatured:         item.IsFeatured,
		ReleaseYear:        item.ReleaseYear,
	}
}

func (m itemModel) toItem() catalog.ContentItem {
	themes := m.Themes
	if themes == nil {
		themes = []string{}
	}
	return catalog.ContentItem{
		ID:                 m.ID,
		Name:               m.Name,
		Description:        m.Description,
		AgeGroup:           m.AgeGroup,
		AgeRange:           m.AgeRange,
		StimulationScore:   m.StimulationScore,
		Themes:             themes,
		InteractivityLevel: m.InteractivityLevel,
		DialogueIntensity:  m.DialogueIntensity,
		SoundEffectsLevel:  m.SoundEffectsLevel,
		SceneFrequency:     m.SceneFrequency,
		MusicTempo:         m.MusicTempo,
		TotalMusicLevel:    m.TotalMusicLevel,
		IsFeatured:         m.IsFeatured,
		ReleaseYear:        m.ReleaseYear,
	}
}

type categoryModel struct {
	bun.BaseModel `bun:"table:facet_categories,alias:fc"`

	ID       int64                  `bun:"id,pk,autoincrement"`
	Name     string                 `bun:"name,notnull"`
	Slug     string                 `bun:"slug,notnull,unique"`
	Logic    string                 `bun:"logic,notnull,default:'AND'"`
	Rules    []catalog.CategoryRule `bun:"rules,type:jsonb"`
	SortBy   string                 `bun:"sort_by,nullzero"`
	Position int                    `bun:"position,notnull,default:0"`
}

func (m categoryModel) toCategory() catalog.Category {
	return catalog.Category{
		Name:   m.Name,
		Slug:   m.Slug,
		Logic:  m.Logic,
		Rules:  m.Rules,
		SortBy: m.SortBy,
	}
}
