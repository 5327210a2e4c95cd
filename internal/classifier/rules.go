package classifier

import (
	"regexp"
	"strings"
	"unicode"

	"bizcard/internal/contact"
	"bizcard/internal/textutil"
)

var (
	streetLeadingNumberPattern = regexp.MustCompile(`^[0-9].+, [A-Za-z]+`)
	streetNumberWordPattern    = regexp.MustCompile(`[0-9] [A-Za-z]+`)
	cityAfterStreetPattern     = regexp.MustCompile(`.+St ?,{1,2} ?([A-Za-z]+).+`)
	cityInitialPattern         = regexp.MustCompile(`^[E].*`)
	stateBeforeDigitsPattern   = regexp.MustCompile(`\b([A-Za-z]{9}) +[0-9]`)
	stateAfterCommaPattern     = regexp.MustCompile(`^[0-9].+, ([A-Za-z]+);`)
	remainderPunctuation       = strings.NewReplacer(",", "", ";", "")
)

// Position locates a fragment among the non-blank fragments of a card.
type Position struct {
	Index int
	Last  int
}

// Rule claims a fragment for a field. Match returns the value to record.
type Rule struct {
	Name  string
	Field contact.Field
	// Positional rules depend only on the fragment index and are exempt from
	// ambiguity checks.
	Positional bool
	// Fallback rules claim whatever no other rule matched.
	Fallback bool
	Match    func(text string, pos Position) (string, bool)
}

// Options tune the rule table.
type Options struct {
	// StrictEmail additionally requires ".com" for the email rule.
	StrictEmail bool
	// StrictAmbiguity rejects fragments matched by content rules for more
	// than one field.
	StrictAmbiguity bool
	// Regions recognizes known state names. Nil uses textutil.DefaultRegions.
	Regions *textutil.RegionMatcher
}

// DefaultRules returns the rule table in precedence order.
func DefaultRules(opts Options) []Rule {
	regions := opts.Regions
	if regions == nil {
		regions = textutil.NewRegionMatcher(nil, 0)
	}
	return []Rule{
		{
			Name: "first-line", Field: contact.FieldName, Positional: true,
			Match: func(text string, pos Position) (string, bool) {
				return text, pos.Index == 0
			},
		},
		{
			Name: "second-line", Field: contact.FieldDesignation, Positional: true,
			Match: func(text string, pos Position) (string, bool) {
				return strings.ToLower(text), pos.Index == 1
			},
		},
		{
			Name: "last-line", Field: contact.FieldCompany, Positional: true,
			Match: func(text string, pos Position) (string, bool) {
				return text, pos.Index == pos.Last
			},
		},
		{
			Name: "phone", Field: contact.FieldPhone,
			Match: func(text string, _ Position) (string, bool) {
				return text, strings.Contains(text, "-") || strings.HasPrefix(text, "+")
			},
		},
		{
			Name: "email", Field: contact.FieldEmail,
			Match: func(text string, _ Position) (string, bool) {
				ok := strings.Contains(text, "@")
				if ok && opts.StrictEmail {
					ok = strings.Contains(strings.ToLower(text), ".com")
				}
				return strings.ToLower(text), ok
			},
		},
		{
			Name: "website", Field: contact.FieldWebsite,
			Match: func(text string, _ Position) (string, bool) {
				lower := strings.ToLower(text)
				return lower, strings.Contains(lower, "www")
			},
		},
		{
			Name: "street-number-comma", Field: contact.FieldStreet,
			Match: func(text string, _ Position) (string, bool) {
				if !streetLeadingNumberPattern.MatchString(text) {
					return "", false
				}
				head, _, _ := strings.Cut(text, ",")
				return strings.TrimSpace(head), true
			},
		},
		{
			Name: "street-number-word", Field: contact.FieldStreet,
			Match: func(text string, _ Position) (string, bool) {
				return text, streetNumberWordPattern.MatchString(text)
			},
		},
		{
			Name: "city-after-street", Field: contact.FieldCity,
			Match: captureRule(cityAfterStreetPattern),
		},
		{
			Name: "city-initial", Field: contact.FieldCity,
			Match: func(text string, _ Position) (string, bool) {
				return text, cityInitialPattern.MatchString(text)
			},
		},
		{
			Name: "state-before-digits", Field: contact.FieldState,
			Match: captureRule(stateBeforeDigitsPattern),
		},
		{
			Name: "state-after-comma", Field: contact.FieldState,
			Match: captureRule(stateAfterCommaPattern),
		},
		{
			Name: "pin-code", Field: contact.FieldPinCode,
			Match: func(text string, _ Position) (string, bool) {
				return text, len(text) >= 6 && isDigits(text)
			},
		},
		{
			Name: "known-region", Field: contact.FieldState,
			Match: func(text string, _ Position) (string, bool) {
				return regions.Match(text)
			},
		},
		{
			Name: "digit-token", Field: contact.FieldPinCode,
			Match: func(text string, _ Position) (string, bool) {
				token := strings.ReplaceAll(text, " ", "")
				return token, isDigits(token)
			},
		},
		{
			Name: "remainder", Field: contact.FieldStreet, Fallback: true,
			Match: func(text string, _ Position) (string, bool) {
				value := strings.TrimSpace(remainderPunctuation.Replace(text))
				return value, value != ""
			},
		},
	}
}

func captureRule(pattern *regexp.Regexp) func(string, Position) (string, bool) {
	return func(text string, _ Position) (string, bool) {
		m := pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			return "", false
		}
		return m[1], true
	}
}

func isDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
