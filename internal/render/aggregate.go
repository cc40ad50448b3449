// Package render turns completed tasks into the Markdown section body
// merged into each daily note.
package render

import (
	"time"

	"github.com/starford/loggbok/internal/models"
)

// DayKeyLayout is the canonical, sortable key for a calendar day.
const DayKeyLayout = "2006-01-02"

// DayKey returns the grouping key for a completion timestamp: the local
// calendar day containing it.
func DayKey(stopDate int64, loc *time.Location) string {
	return time.Unix(stopDate, 0).In(loc).Format(DayKeyLayout)
}

// ParseDayKey converts a day key back into the start of that day.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayKeyLayout, key, loc)
}

// GroupByDay buckets tasks by the local calendar day of their stop
// date, preserving input order within each day. Tasks that were never
// completed carry no day and are dropped.
func GroupByDay(tasks []models.Task, loc *time.Location) map[string][]models.Task {
	out := make(map[string][]models.Task)
	for _, t := range tasks {
		if !t.Completed() {
			continue
		}
		key := DayKey(t.StopDate, loc)
		out[key] = append(out[key], t)
	}
	return out
}

// areaGroup is one area bucket within a day, in first-seen order.
type areaGroup struct {
	name  string
	tasks []models.Task
}

// groupByArea buckets tasks by area label (empty label allowed),
// keeping both the order areas first appear and the task order within
// each area.
func groupByArea(tasks []models.Task) []areaGroup {
	index := make(map[string]int)
	var out []areaGroup
	for _, t := range tasks {
		i, ok := index[t.Area]
		if !ok {
			i = len(out)
			index[t.Area] = i
			out = append(out, areaGroup{name: t.Area})
		}
		out[i].tasks = append(out[i].tasks, t)
	}
	return out
}
