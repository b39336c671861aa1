package artifacts

import "strings"

// SubstitutePlaceholders expands the {VERSION} and {PREV_VERSION}
// placeholders in a message draft. These two are the whole template
// language — drafts are plain text edited by hand, not Go templates.
func SubstitutePlaceholders(text, version, prevVersion string) string {
	text = strings.ReplaceAll(text, "{VERSION}", version)
	return strings.ReplaceAll(text, "{PREV_VERSION}", prevVersion)
}
