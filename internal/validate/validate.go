package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MinClass        = 6
	MaxClass        = 12
	MinPhoneLen     = 10
	MinCancelReason = 5
)

var (
	reEmail   = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone   = regexp.MustCompile(`^\+?[0-9][0-9 ()-]*$`)
	reID      = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reSection = regexp.MustCompile(`^[A-Za-z0-9 -]{1,10}$`)
	reQ       = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Phone accepts digits with optional leading + and common separators.
// The raw trimmed input must be at least MinPhoneLen characters.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < MinPhoneLen || len(s) > 20 {
		return "", false
	}
	return s, rePhone.MatchString(s)
}

// Class validates a school class (grade) between 6 and 12.
func Class(n int) bool {
	return n >= MinClass && n <= MaxClass
}

// ClassString parses a class from a query or form value.
func ClassString(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, Class(n)
}

func Section(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reSection.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 60 {
		return "", false
	}
	return s, true
}

// Text validates a required free-text field up to max runes.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > max {
		return "", false
	}
	return s, true
}

// ID validates a simple resource identifier (product/order ids, buyer tokens).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// Reason validates a cancellation reason. Length is counted in runes after trimming.
func Reason(s string) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return s, n >= MinCancelReason && n <= 500
}

// Amount parses a client-submitted decimal amount.
func Amount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Price canonicalizes a listing price to its two-decimal form.
// Prices must be positive and carry at most two decimal places.
func Price(s string) (string, bool) {
	d, ok := Amount(s)
	if !ok || !d.IsPositive() {
		return "", false
	}
	if !d.Equal(d.Truncate(2)) {
		return "", false
	}
	return d.StringFixed(2), true
}

// SameAmount reports exact decimal equality between a submitted amount and a
// canonical price. No float conversion takes place.
func SameAmount(submitted decimal.Decimal, canonical string) bool {
	p, err := decimal.NewFromString(canonical)
	if err != nil {
		return false
	}
	return submitted.Equal(p)
}

// Page clamps pagination input.
func Page(pageStr, sizeStr string) (page, size int) {
	page, err := strconv.Atoi(strings.TrimSpace(pageStr))
	if err != nil || page < 1 {
		page = 1
	}
	size, err = strconv.Atoi(strings.TrimSpace(sizeStr))
	if err != nil || size < 1 {
		size = 12
	}
	if size > 50 {
		size = 50
	} // clamp to avoid abuse
	return page, size
}
