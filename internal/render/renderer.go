package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/loggbok/internal/markdown"
	"github.com/starford/loggbok/internal/models"
	"github.com/starford/loggbok/internal/settings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Renderer renders tasks into Markdown under one settings snapshot.
// A renderer is built fresh per cycle so mid-cycle settings changes
// never mix styles within a single block.
type Renderer struct {
	cfg settings.Settings
}

// New creates a Renderer for the given settings snapshot.
func New(cfg settings.Settings) *Renderer {
	return &Renderer{cfg: cfg}
}

// RenderTask renders one task (and its subtasks) as a checklist
// fragment. Missing optional fields degrade to omission; this never
// fails.
func (r *Renderer) RenderTask(task models.Task) string {
	tab := markdown.Tab(r.cfg.UseTab, r.cfg.TabSize)

	var tags string
	if r.cfg.IncludeTags {
		var rendered []string
		for _, tag := range task.Tags {
			if tag == "" {
				continue
			}
			slug := strings.ToLower(whitespaceRe.ReplaceAllString(tag, "-"))
			rendered = append(rendered, "#"+r.cfg.TagPrefix+slug)
		}
		tags = strings.Join(rendered, " ")
	}

	title := task.Title
	if r.cfg.LinkTasks && task.UUID != "" {
		title = fmt.Sprintf("[%s](things:///show?id=%s)", task.Title, task.UUID)
	}
	title = strings.TrimRight(title+" "+tags, " ")

	var notes []string
	if r.cfg.SyncNoteBody && task.Notes != "" {
		for _, line := range strings.Split(strings.TrimRight(task.Notes, "\n"), "\n") {
			if line == "" {
				continue
			}
			notes = append(notes, tab+line)
		}
	}

	var lines []string
	if alt := r.cfg.AlternativeCheckboxPrefix; alt != "" {
		mark := alt
		if task.Cancelled {
			mark = r.cfg.CanceledMark
		}
		lines = append(lines, mark+" "+title)
		lines = append(lines, notes...)
		if r.cfg.RenderChecklists {
			for _, st := range task.Subtasks {
				sub := " "
				if st.Completed {
					sub = alt
				}
				lines = append(lines, tab+" "+sub+" "+st.Title)
			}
		}
	} else {
		mark := "x"
		if task.Cancelled {
			mark = r.cfg.CanceledMark
		}
		lines = append(lines, "- ["+mark+"] "+title)
		lines = append(lines, notes...)
		if r.cfg.RenderChecklists {
			for _, st := range task.Subtasks {
				sub := " "
				if st.Completed {
					sub = "x"
				}
				lines = append(lines, tab+"- ["+sub+"] "+st.Title)
			}
		}
	}

	var out []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Render composes the full section body for one day: the section
// heading, then each area group in first-seen order, with a
// sub-heading one level deeper when the area is named and headers are
// enabled.
func (r *Renderer) Render(tasks []models.Task) string {
	heading := r.cfg.SectionHeading
	level := markdown.HeadingLevel(heading)

	out := []string{heading}
	for _, group := range groupByArea(tasks) {
		if group.name != "" && r.cfg.IncludeHeaders {
			out = append(out, markdown.ToHeading(group.name, level+1))
		}
		for _, task := range group.tasks {
			out = append(out, r.RenderTask(task))
		}
	}
	return strings.Join(out, "\n")
}
