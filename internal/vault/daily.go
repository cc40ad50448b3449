package vault

import (
	"path"
	"time"
)

// DailyNotes resolves calendar dates to note files inside the vault.
type DailyNotes struct {
	store  Provider
	folder string // vault-relative folder holding daily notes
	layout string // Go time layout for the file name stem
}

// NewDailyNotes creates a resolver writing notes named
// <folder>/<date formatted with layout>.md.
func NewDailyNotes(store Provider, folder, layout string) *DailyNotes {
	if layout == "" {
		layout = "2006-01-02"
	}
	return &DailyNotes{store: store, folder: folder, layout: layout}
}

// NotePath returns the vault-relative path of the note for date.
func (d *DailyNotes) NotePath(date time.Time) string {
	return path.Join(d.folder, date.Format(d.layout)+".md")
}

// ResolveOrCreate returns the path of the daily note for date,
// creating an empty note when none exists yet.
func (d *DailyNotes) ResolveOrCreate(date time.Time) (string, error) {
	p := d.NotePath(date)
	ok, err := d.store.Exists(p)
	if err != nil {
		return "", err
	}
	if !ok {
		if err := d.store.Write(p, nil); err != nil {
			return "", err
		}
	}
	return p, nil
}
