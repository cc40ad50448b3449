package things

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/loggbok/internal/models"
)

// taskRow is one flat row of the task query: one row per (task, tag)
// combination, tasks without tags yielding a single row with a NULL
// tag.
type taskRow struct {
	uuid     string
	title    string
	notes    sql.NullString
	area     sql.NullString
	tag      sql.NullString
	stopDate sql.NullFloat64
	status   int
}

// checklistRow is one checklist item row, keyed by its parent task.
type checklistRow struct {
	taskUUID  string
	title     string
	completed bool
}

const taskQuery = `
SELECT
	TMTask.uuid,
	TMTask.title,
	TMTask.notes,
	TMArea.title,
	TMTag.title,
	TMTask.stopDate,
	TMTask.status
FROM TMTask
LEFT JOIN TMTaskTag ON TMTaskTag.tasks = TMTask.uuid
LEFT JOIN TMTag ON TMTag.uuid = TMTaskTag.tags
LEFT JOIN TMArea ON TMTask.area = TMArea.uuid
WHERE TMTask.trashed = 0
  AND TMTask.stopDate IS NOT NULL
  AND TMTask.stopDate > ?
ORDER BY TMTask.stopDate
`

const checklistQuery = `
SELECT
	TMChecklistItem.task,
	TMChecklistItem.title,
	TMChecklistItem.status
FROM TMChecklistItem
JOIN TMTask ON TMTask.uuid = TMChecklistItem.task
WHERE TMTask.trashed = 0
  AND TMTask.stopDate IS NOT NULL
  AND TMTask.stopDate > ?
  AND TMChecklistItem.title != ''
ORDER BY TMChecklistItem.task, TMChecklistItem."index"
`

// CompletedTasks returns every task stopped strictly after the given
// watermark (seconds since epoch), with tags, area, and checklist
// items attached. Row order follows stopDate, so callers see tasks in
// completion order.
func (db *DB) CompletedTasks(ctx context.Context, since int64) ([]models.Task, error) {
	taskRows, err := db.fetchTaskRows(ctx, since)
	if err != nil {
		return nil, err
	}
	checkRows, err := db.fetchChecklistRows(ctx, since)
	if err != nil {
		return nil, err
	}
	return buildTasks(taskRows, checkRows), nil
}

func (db *DB) fetchTaskRows(ctx context.Context, since int64) ([]taskRow, error) {
	rows, err := db.conn.QueryContext(ctx, taskQuery, since)
	if err != nil {
		return nil, fmt.Errorf("things: query tasks: %w", err)
	}
	defer rows.Close()

	var out []taskRow
	for rows.Next() {
		var r taskRow
		if err := rows.Scan(&r.uuid, &r.title, &r.notes, &r.area, &r.tag, &r.stopDate, &r.status); err != nil {
			return nil, fmt.Errorf("things: scan task row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("things: task rows: %w", err)
	}
	return out, nil
}

func (db *DB) fetchChecklistRows(ctx context.Context, since int64) ([]checklistRow, error) {
	rows, err := db.conn.QueryContext(ctx, checklistQuery, since)
	if err != nil {
		return nil, fmt.Errorf("things: query checklist: %w", err)
	}
	defer rows.Close()

	var out []checklistRow
	for rows.Next() {
		var (
			r      checklistRow
			status int
		)
		if err := rows.Scan(&r.taskUUID, &r.title, &status); err != nil {
			return nil, fmt.Errorf("things: scan checklist row: %w", err)
		}
		r.completed = status == statusCompleted
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("things: checklist rows: %w", err)
	}
	return out, nil
}

// buildTasks folds flat (task, tag) rows into Task values, first-seen
// order per uuid, and attaches checklist items by parent uuid.
func buildTasks(taskRows []taskRow, checkRows []checklistRow) []models.Task {
	index := make(map[string]int)
	var tasks []models.Task

	for _, r := range taskRows {
		i, ok := index[r.uuid]
		if !ok {
			t := models.Task{
				UUID:      r.uuid,
				Title:     r.title,
				Notes:     r.notes.String,
				Area:      r.area.String,
				Cancelled: r.status == statusCanceled,
			}
			if r.stopDate.Valid {
				t.StopDate = int64(r.stopDate.Float64)
			}
			i = len(tasks)
			index[r.uuid] = i
			tasks = append(tasks, t)
		}
		if r.tag.Valid {
			tasks[i].Tags = append(tasks[i].Tags, r.tag.String)
		}
	}

	for _, c := range checkRows {
		i, ok := index[c.taskUUID]
		if !ok {
			// Orphan checklist rows can show up when the two feeds
			// disagree; skip them rather than invent a parent.
			continue
		}
		tasks[i].Subtasks = append(tasks[i].Subtasks, models.Subtask{
			Title:     c.title,
			Completed: c.completed,
		})
	}

	return tasks
}
