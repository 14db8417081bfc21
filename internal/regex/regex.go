package regex

import "regexp"

// emphasis matches markdown bold or italic markers. After the separator only
// asterisks are skipped, so descriptions such as "_field" stay intact.
const (
	emphasis      = `[*_]*`
	emphasisAfter = `\**`
)

var (
	// Repository URLs
	GitHubOwner = regexp.MustCompile(`github\.com[:/]([^/]+)`)
	SSHRepo     = regexp.MustCompile(`git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)
	HTTPSRepo   = regexp.MustCompile(`https://([^/]+)/([^/]+)/([^/]+?)(?:\.git)?/?$`)

	// Evaluator output grammar. Group 1 is the point value, group 2 the
	// description. Markdown emphasis is allowed around the head only.
	BracketedDeduction = regexp.MustCompile(`(?i)\[\s*-\s*(\d+)\s*points?\s*\]` + emphasis + `\s*[:\-–]?` + emphasisAfter + `\s*(.*)$`)
	InlineDeduction    = regexp.MustCompile(`(?i)-\s*(\d+)\s*points?\]?` + emphasis + `[:\s]` + emphasisAfter + `\s*(.*)$`)
)
