package orchestrator

import (
	"strings"

	"github.com/fakeyudi/autocommit/internal/tracker"
)

// DefaultMessage replaces a template that expands to nothing.
const DefaultMessage = "Auto commit"

// DateLayout formats the {date} placeholder.
const DateLayout = "2006-01-02 15:04:05"

// Vars are the values substituted into a commit message template.
type Vars struct {
	Date   string
	Branch string
	Files  string
}

// BuildMessage expands {date}, {branch} and {files} in tmpl. When detailed
// is set and the summary is non-empty, the bulleted file list follows the
// subject after a blank line.
func BuildMessage(tmpl string, vars Vars, detailed bool, summary tracker.Summary) string {
	subject := strings.NewReplacer(
		"{date}", vars.Date,
		"{branch}", vars.Branch,
		"{files}", vars.Files,
	).Replace(tmpl)
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultMessage
	}

	if !detailed {
		return subject
	}
	lines := summary.Lines()
	if len(lines) == 0 {
		return subject
	}
	return subject + "\n\n" + strings.Join(lines, "\n")
}
