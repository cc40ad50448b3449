package api

import "github.com/starford/loggbok/internal/settings"

// SettingsPatch is the PATCH /api/settings body. Pointer fields
// distinguish "leave unchanged" from an explicit zero value. The
// watermark is deliberately not patchable: the scheduler owns it.
type SettingsPatch struct {
	SyncInterval              *int64  `json:"syncInterval"`
	SectionHeading            *string `json:"sectionHeading"`
	TagPrefix                 *string `json:"tagPrefix"`
	LinkTasks                 *bool   `json:"linkTasks"`
	IncludeTags               *bool   `json:"includeTags"`
	IncludeHeaders            *bool   `json:"includeHeaders"`
	SyncNoteBody              *bool   `json:"syncNoteBody"`
	RenderChecklists          *bool   `json:"renderChecklists"`
	CanceledMark              *string `json:"canceledMark"`
	AlternativeCheckboxPrefix *string `json:"alternativeCheckboxPrefix"`
	UseTab                    *bool   `json:"useTab"`
	TabSize                   *int    `json:"tabSize"`
}

func (p *SettingsPatch) apply(s *settings.Settings) {
	if p.SyncInterval != nil {
		s.SyncInterval = *p.SyncInterval
	}
	if p.SectionHeading != nil {
		s.SectionHeading = *p.SectionHeading
	}
	if p.TagPrefix != nil {
		s.TagPrefix = *p.TagPrefix
	}
	if p.LinkTasks != nil {
		s.LinkTasks = *p.LinkTasks
	}
	if p.IncludeTags != nil {
		s.IncludeTags = *p.IncludeTags
	}
	if p.IncludeHeaders != nil {
		s.IncludeHeaders = *p.IncludeHeaders
	}
	if p.SyncNoteBody != nil {
		s.SyncNoteBody = *p.SyncNoteBody
	}
	if p.RenderChecklists != nil {
		s.RenderChecklists = *p.RenderChecklists
	}
	if p.CanceledMark != nil {
		s.CanceledMark = *p.CanceledMark
	}
	if p.AlternativeCheckboxPrefix != nil {
		s.AlternativeCheckboxPrefix = *p.AlternativeCheckboxPrefix
	}
	if p.UseTab != nil {
		s.UseTab = *p.UseTab
	}
	if p.TabSize != nil {
		s.TabSize = *p.TabSize
	}
}
