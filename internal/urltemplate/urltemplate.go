// Package urltemplate resolves relative manifest URIs against a base URL
// and expands DASH SegmentTemplate placeholders, including the
// width-formatted $Var%0Nd$ variant.
package urltemplate

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Resolve resolves ref against base. If ref is already absolute it is
// returned unchanged (as parsed and re-serialized). A ref that fails to
// parse is returned verbatim so a single malformed URI never aborts a
// manifest parse.
func Resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return u.String()
	}
	if base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// placeholder matches $Name$ and the width-formatted $Name%0Nd$ variant.
var placeholder = regexp.MustCompile(`\$(RepresentationID|Number|Bandwidth|Time)(%0(\d+)d)?\$`)

// Vars holds the substitution values available for a single segment
// expansion. Number and Time are pointers so a template that never
// references $Number$ or $Time$ can be expanded without either being
// known.
type Vars struct {
	RepresentationID string
	Bandwidth        int64
	Number           *int64
	Time             *int64
}

// Expand substitutes every placeholder in template with the corresponding
// value from v. An unresolvable numeric placeholder (referenced but nil)
// is left as an empty string rather than panicking or aborting the whole
// manifest parse.
func Expand(template string, v Vars) string {
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		groups := placeholder.FindStringSubmatch(match)
		name := groups[1]
		width := groups[3]

		var value string
		switch name {
		case "RepresentationID":
			value = v.RepresentationID
		case "Bandwidth":
			value = strconv.FormatInt(v.Bandwidth, 10)
		case "Number":
			if v.Number == nil {
				return ""
			}
			value = strconv.FormatInt(*v.Number, 10)
		case "Time":
			if v.Time == nil {
				return ""
			}
			value = strconv.FormatInt(*v.Time, 10)
		}

		if width != "" {
			n, err := strconv.Atoi(width)
			if err == nil {
				value = zeroPad(value, n)
			}
		}
		return value
	})
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return fmt.Sprintf("%0*s", width, s)
}

// SanitizeFilename strips characters illegal on common filesystems,
// collapses runs of whitespace to single spaces, trims the result, and
// truncates to at most maxRunes UTF-8 characters.
func SanitizeFilename(name string, maxRunes int) string {
	const illegal = `<>:"/\|?*`
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(illegal, r) {
			continue
		}
		b.WriteRune(r)
	}
	collapsed := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(collapsed)
	if len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}
	return strings.TrimSpace(string(runes))
}
