package valuetable

import (
	"strings"
)

// xheader/xhash documents are scanned line by line rather than parsed with
// a general XML library (§4.E.3): each interesting line holds exactly one
// "<id>value</id>" pair, found by scanning forward for the first '>' and
// backward from the end for the last '<'. This mirrors
// original_source/libewf/libewf_header_values.c's
// libewf_header_values_generate_... string-splicing rather than adopting
// encoding/xml's element-tree model, which the source's tolerance for
// partially-malformed documents does not map onto cleanly.

// parseLenientXML extracts every "<tag>value</tag>" pair found on its own
// line inside a root element named rootTag. A malformed or tag-mismatched
// line is silently skipped rather than treated as an error (§7: "malformed
// lines are silently skipped"), matching
// libewf_header_values_parse_header_string_xml, which continues past every
// malformed case instead of aborting the parse.
func parseLenientXML(doc string, rootTag string) []struct{ Tag, Value string } {
	lines := splitLines(strings.TrimPrefix(doc, "\xef\xbb\xbf"))

	var pairs []struct{ Tag, Value string }

	open := "<" + rootTag + ">"
	close := "</" + rootTag + ">"

	inRoot := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "<?xml") {
			continue
		}
		if trimmed == open {
			inRoot = true
			continue
		}
		if trimmed == close {
			inRoot = false
			continue
		}
		if !inRoot {
			continue
		}

		firstClose := strings.Index(trimmed, ">")
		lastOpen := strings.LastIndex(trimmed, "<")
		if firstClose < 0 || lastOpen <= firstClose || trimmed[0] != '<' ||
			!strings.HasPrefix(trimmed[lastOpen:], "</") || !strings.HasSuffix(trimmed, ">") {
			continue
		}

		tag := trimmed[1:firstClose]
		value := trimmed[firstClose+1 : lastOpen]
		closingTag := trimmed[lastOpen+2 : len(trimmed)-1]
		if closingTag != tag {
			continue
		}

		pairs = append(pairs, struct{ Tag, Value string }{Tag: tag, Value: value})
	}

	return pairs
}

// generateLenientXML renders pairs inside a root element named rootTag,
// reproducing the exact framing byte-for-byte that parseLenientXML
// accepts: a declaration line, the opening tag, one tab-indented line per
// pair, the closing tag, and a trailing blank line.
func generateLenientXML(rootTag string, pairs []struct{ Tag, Value string }) string {
	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sb.WriteString("<")
	sb.WriteString(rootTag)
	sb.WriteString(">\n")
	for _, p := range pairs {
		sb.WriteString("\t<")
		sb.WriteString(p.Tag)
		sb.WriteString(">")
		sb.WriteString(p.Value)
		sb.WriteString("</")
		sb.WriteString(p.Tag)
		sb.WriteString(">\n")
	}
	sb.WriteString("</")
	sb.WriteString(rootTag)
	sb.WriteString(">\n\n")
	return sb.String()
}
