// Package settings holds the persisted sync configuration blob and the
// watermark, with atomic JSON persistence and partial updates.
package settings

// Default values applied when a field is absent from the persisted blob.
const (
	DefaultSectionHeading = "## Logbook"
	DefaultTagPrefix      = "things/"
	DefaultSyncInterval   = 3600 // seconds
	DefaultCanceledMark   = "-"
	DefaultTabSize        = 4
)

// Settings is the persisted configuration blob. LatestSyncTime is the
// sync watermark: it only advances after every merge of a cycle has
// completed, and a cycle fetches tasks stopped strictly after it.
type Settings struct {
	LatestSyncTime            int64  `json:"latestSyncTime"`
	SyncInterval              int64  `json:"syncInterval"`
	SectionHeading            string `json:"sectionHeading"`
	TagPrefix                 string `json:"tagPrefix"`
	LinkTasks                 bool   `json:"linkTasks"`
	IncludeTags               bool   `json:"includeTags"`
	IncludeHeaders            bool   `json:"includeHeaders"`
	SyncNoteBody              bool   `json:"syncNoteBody"`
	RenderChecklists          bool   `json:"renderChecklists"`
	CanceledMark              string `json:"canceledMark"`
	AlternativeCheckboxPrefix string `json:"alternativeCheckboxPrefix"`
	UseTab                    bool   `json:"useTab"`
	TabSize                   int    `json:"tabSize"`
}

// Defaults returns the settings used when no blob has been persisted yet.
func Defaults() Settings {
	return Settings{
		SyncInterval:     DefaultSyncInterval,
		SectionHeading:   DefaultSectionHeading,
		TagPrefix:        DefaultTagPrefix,
		IncludeTags:      true,
		IncludeHeaders:   true,
		SyncNoteBody:     true,
		RenderChecklists: true,
		CanceledMark:     DefaultCanceledMark,
		TabSize:          DefaultTabSize,
	}
}
