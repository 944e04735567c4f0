package ruleset

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Severity is the level a rule reports at.
type Severity int

const (
	SeverityOff Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOff:
		return "off"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Valid reports whether s is one of off, warn or error.
func (s Severity) Valid() bool {
	return s >= SeverityOff && s <= SeverityError
}

// Enabled reports whether a rule at this severity runs at all.
func (s Severity) Enabled() bool {
	return s == SeverityWarn || s == SeverityError
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, canonical, err := parseSeverity(string(b))
	if err != nil {
		return err
	}
	if !canonical {
		return fmt.Errorf("severity %q is not canonical", b)
	}
	*s = v
	return nil
}

// parseSeverity accepts the canonical tokens ("off", "warn", "error", 0, 1, 2)
// and padded or mixed-case spellings of the three words, for which canonical
// is false. Numeric strings and floats are rejected.
func parseSeverity(raw any) (sev Severity, canonical bool, err error) {
	switch v := raw.(type) {
	case string:
		switch v {
		case "off":
			return SeverityOff, true, nil
		case "warn":
			return SeverityWarn, true, nil
		case "error":
			return SeverityError, true, nil
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "off":
			return SeverityOff, false, nil
		case "warn":
			return SeverityWarn, false, nil
		case "error":
			return SeverityError, false, nil
		}
		return 0, false, fmt.Errorf("unknown severity %q", v)
	case int:
		return intSeverity(int64(v))
	case int64:
		return intSeverity(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, false, fmt.Errorf("unknown severity %d", v)
		}
		return intSeverity(int64(v))
	case json.Number:
		n, perr := v.Int64()
		if perr != nil {
			return 0, false, fmt.Errorf("unknown severity %s", v)
		}
		return intSeverity(n)
	case float64:
		return 0, false, fmt.Errorf("unknown severity %v", v)
	case Severity:
		if !v.Valid() {
			return 0, false, fmt.Errorf("unknown severity %d", int(v))
		}
		return v, true, nil
	case nil:
		return 0, false, fmt.Errorf("severity is missing")
	default:
		return 0, false, fmt.Errorf("severity must be a string or integer, got %T", raw)
	}
}

func intSeverity(n int64) (Severity, bool, error) {
	sev, ok := severityFromInt(n)
	if !ok {
		return 0, false, fmt.Errorf("unknown severity %d", n)
	}
	return sev, true, nil
}

func severityFromInt(n int64) (Severity, bool) {
	if n < int64(SeverityOff) || n > int64(SeverityError) {
		return 0, false
	}
	return Severity(n), true
}
