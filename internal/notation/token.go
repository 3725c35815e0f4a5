package notation

import (
	"regexp"
	"strconv"

	"github.com/starford/dagaz/internal/models"
)

var (
	timeSpanRe = regexp.MustCompile(`^(\d{2})(\d{2})-(\d{2})(\d{2})$`)
	durationRe = regexp.MustCompile(`^(\d+)(?:h|hr)(?:(\d+)(?:m|min))?$`)
	minutesRe  = regexp.MustCompile(`^(\d+)(?:m|min)$`)
	currencyRe = regexp.MustCompile(`^([£$€])(\d+(?:\.\d+)?)$`)
	distanceRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(km|mi)$`)
	stepsRe    = regexp.MustCompile(`^\d{3,5}$`)
	kStepsRe   = regexp.MustCompile(`^(\d+(?:\.\d+)?)k-steps$`)
)

const milesToKm = 1.609344

// Classify maps a single whitespace-separated token onto the closed set of
// attribute kinds. The match order is load-bearing: a bare "1430" must be a
// step count and never a duration, and "£25" must never be a step count.
func Classify(token string) models.Attribute {
	if a, ok := parseTimeSpan(token); ok {
		return a
	}
	if a, ok := parseDuration(token); ok {
		return a
	}
	if a, ok := parseCurrency(token); ok {
		return a
	}
	if a, ok := parseDistance(token); ok {
		return a
	}
	if a, ok := parseSteps(token); ok {
		return a
	}
	return models.Attribute{Kind: models.KindTag, Literal: token}
}

// IsDurationLike reports whether the attribute carries a duration,
// either directly or derived from a time-span.
func IsDurationLike(a models.Attribute) bool {
	return a.Kind == models.KindDuration || a.Kind == models.KindTimeSpan
}

// parseTimeSpan handles HHMM-HHMM tokens. The duration is end minus start,
// wrapped over midnight when negative; the literal is preserved for audit.
func parseTimeSpan(token string) (models.Attribute, bool) {
	m := timeSpanRe.FindStringSubmatch(token)
	if m == nil {
		return models.Attribute{}, false
	}
	sh, _ := strconv.Atoi(m[1])
	sm, _ := strconv.Atoi(m[2])
	eh, _ := strconv.Atoi(m[3])
	em, _ := strconv.Atoi(m[4])
	if sh > 23 || eh > 23 || sm > 59 || em > 59 {
		return models.Attribute{}, false
	}
	minutes := (eh*60 + em) - (sh*60 + sm)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return models.Attribute{Kind: models.KindTimeSpan, Literal: token, Minutes: minutes}, true
}

func parseDuration(token string) (models.Attribute, bool) {
	if m := durationRe.FindStringSubmatch(token); m != nil {
		hours, _ := strconv.Atoi(m[1])
		mins := 0
		if m[2] != "" {
			mins, _ = strconv.Atoi(m[2])
		}
		return models.Attribute{Kind: models.KindDuration, Literal: token, Minutes: hours*60 + mins}, true
	}
	if m := minutesRe.FindStringSubmatch(token); m != nil {
		mins, _ := strconv.Atoi(m[1])
		return models.Attribute{Kind: models.KindDuration, Literal: token, Minutes: mins}, true
	}
	return models.Attribute{}, false
}

func parseCurrency(token string) (models.Attribute, bool) {
	m := currencyRe.FindStringSubmatch(token)
	if m == nil {
		return models.Attribute{}, false
	}
	amount, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return models.Attribute{}, false
	}
	return models.Attribute{Kind: models.KindCurrency, Literal: token, Symbol: m[1], Amount: amount}, true
}

// parseDistance normalises the value to kilometres; the literal keeps the
// original unit.
func parseDistance(token string) (models.Attribute, bool) {
	m := distanceRe.FindStringSubmatch(token)
	if m == nil {
		return models.Attribute{}, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return models.Attribute{}, false
	}
	km := n
	if m[2] == "mi" {
		km = n * milesToKm
	}
	return models.Attribute{Kind: models.KindDistance, Literal: token, Km: km}, true
}

func parseSteps(token string) (models.Attribute, bool) {
	if stepsRe.MatchString(token) {
		n, _ := strconv.Atoi(token)
		return models.Attribute{Kind: models.KindStepCount, Literal: token, Steps: n}, true
	}
	if m := kStepsRe.FindStringSubmatch(token); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return models.Attribute{}, false
		}
		return models.Attribute{Kind: models.KindStepCount, Literal: token, Steps: int(n*1000 + 0.5)}, true
	}
	return models.Attribute{}, false
}
