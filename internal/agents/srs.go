package agents

import (
	"fmt"
	"strings"
)

// SRSHeadings are the fixed section headings of the final document, in order.
var SRSHeadings = []string{
	"# Software Requirements Specification",
	"## 1. Introduction",
	"## 2. Validation Summary",
	"## 3. Functional Requirements",
	"### 3.1. Critical Priority",
	"### 3.2. High Priority",
	"### 3.3. Medium Priority",
	"## 4. Conclusion & Next Steps",
}

// NormalizeDocument strips a surrounding code fence and any preamble before
// the document title.
func NormalizeDocument(doc string) string {
	doc = strings.TrimSpace(doc)
	if idx := strings.Index(doc, SRSHeadings[0]); idx > 0 {
		doc = doc[idx:]
	} else {
		for _, fence := range []string{"```markdown", "```md", "```"} {
			if strings.HasPrefix(doc, fence) {
				doc = strings.TrimPrefix(doc, fence)
				break
			}
		}
	}
	doc = strings.TrimSpace(doc)
	if strings.HasSuffix(doc, "```") {
		doc = strings.TrimSpace(strings.TrimSuffix(doc, "```"))
	}
	return doc
}

// CheckTemplate verifies that doc contains every SRS heading in order.
// Heading comparison ignores case and repeated spaces.
func CheckTemplate(doc string) error {
	want := 0
	for _, line := range strings.Split(doc, "\n") {
		if want == len(SRSHeadings) {
			break
		}
		if normalizeHeading(line) == normalizeHeading(SRSHeadings[want]) {
			want++
		}
	}
	if want < len(SRSHeadings) {
		return fmt.Errorf("document is missing section %q", SRSHeadings[want])
	}
	return nil
}

func normalizeHeading(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
