package markdown

import "testing"

func TestHeadingLevel(t *testing.T) {
	cases := []struct {
		line string
		want int
	}{
		{"# Title", 1},
		{"## Logbook", 2},
		{"### Deep", 3},
		{"###### Six", 6},
		{"####### Seven", 0},
		{"Plain text", 0},
		{"#NoSpace", 0},
		{"###", 3},
		{"", 0},
	}
	for _, c := range cases {
		if got := HeadingLevel(c.line); got != c.want {
			t.Errorf("HeadingLevel(%q) = %d, want %d", c.line, got, c.want)
		}
	}
}

func TestToHeading(t *testing.T) {
	if got := ToHeading("Work", 3); got != "### Work" {
		t.Errorf("ToHeading = %q", got)
	}
	if got := ToHeading("x", 0); got != "# x" {
		t.Errorf("ToHeading with level 0 = %q", got)
	}
}

func TestTab(t *testing.T) {
	if got := Tab(true, 2); got != "\t" {
		t.Errorf("Tab(true) = %q", got)
	}
	if got := Tab(false, 2); got != "  " {
		t.Errorf("Tab(false, 2) = %q", got)
	}
	if got := Tab(false, 0); got != "    " {
		t.Errorf("Tab(false, 0) = %q, want four spaces", got)
	}
}

const sampleDoc = `# Daily note

Some intro text.

## Logbook
- [x] old entry

## Journal
Evening thoughts.
`

func TestUpdateSection_ReplacesBody(t *testing.T) {
	body := "## Logbook\n- [x] new entry"
	got := UpdateSection(sampleDoc, "## Logbook", body)
	want := `# Daily note

Some intro text.

## Logbook
- [x] new entry
## Journal
Evening thoughts.
`
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestUpdateSection_Idempotent(t *testing.T) {
	body := "## Logbook\n- [x] synced task\n\t- [x] subtask"
	once := UpdateSection(sampleDoc, "## Logbook", body)
	twice := UpdateSection(once, "## Logbook", body)
	if once != twice {
		t.Errorf("second merge changed document:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestUpdateSection_SiblingsUntouched(t *testing.T) {
	doc := "## A\nalpha\n\n## Target\nold\n\n## B\nbeta\n"
	got := UpdateSection(doc, "## Target", "## Target\nnew")
	want := "## A\nalpha\n\n## Target\nnew\n## B\nbeta\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUpdateSection_HeadingNotFoundAppends(t *testing.T) {
	doc := "# Note\n\nText without the section."
	got := UpdateSection(doc, "## Logbook", "## Logbook\n- [x] task")
	want := "# Note\n\nText without the section.\n\n## Logbook\n- [x] task"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUpdateSection_AppendKeepsTrailingNewlines(t *testing.T) {
	doc := "# Note\n\nText without the section.\n\n\n"
	got := UpdateSection(doc, "## Logbook", "## Logbook\n- [x] task")
	want := "# Note\n\nText without the section.\n\n\n## Logbook\n- [x] task"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUpdateSection_AppendAfterSingleNewline(t *testing.T) {
	doc := "# Note\nText.\n"
	got := UpdateSection(doc, "## Logbook", "## Logbook\n- [x] task")
	want := "# Note\nText.\n\n## Logbook\n- [x] task"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUpdateSection_NoTrailingNewline(t *testing.T) {
	doc := "## Logbook\nold stuff"
	got := UpdateSection(doc, "## Logbook", "## Logbook\nnew stuff")
	if got != "## Logbook\nnew stuff" {
		t.Errorf("got %q", got)
	}
}

func TestUpdateSection_EmptyDocument(t *testing.T) {
	got := UpdateSection("", "## Logbook", "## Logbook\n- [x] task")
	if got != "## Logbook\n- [x] task" {
		t.Errorf("got %q", got)
	}
}

func TestUpdateSection_SectionRunsToEOF(t *testing.T) {
	doc := "# Note\n\n## Logbook\nold line one\nold line two"
	got := UpdateSection(doc, "## Logbook", "## Logbook\nreplaced")
	want := "# Note\n\n## Logbook\nreplaced"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUpdateSection_DeeperSameTextNotConfused(t *testing.T) {
	// A deeper heading with the same text must not match, and must not
	// terminate the replaced span either.
	doc := "## Logbook\nold\n### Logbook\nnested child\n## After\nrest\n"
	got := UpdateSection(doc, "## Logbook", "## Logbook\nnew")
	want := "## Logbook\nnew\n## After\nrest\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUpdateSection_FirstOccurrenceOnly(t *testing.T) {
	doc := "## Logbook\nfirst\n\n# Archive\n\n## Logbook\nsecond\n"
	got := UpdateSection(doc, "## Logbook", "## Logbook\nmerged")
	want := "## Logbook\nmerged\n# Archive\n\n## Logbook\nsecond\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
