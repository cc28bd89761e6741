package governance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/felixgeelhaar/apigov/internal/change"
	"github.com/felixgeelhaar/apigov/internal/value"
)

// sunsetLayouts are tried in order when reading a sunset date. RFC 1123 is
// the format of the HTTP Sunset header (RFC 8594).
var sunsetLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// ParseTimestamp reads a timestamp in any accepted layout. Bare dates are
// midnight UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range sunsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// IsDeprecatedRemoval reports whether a removed node was marked deprecated
// before it disappeared. Only removals qualify. The deprecated field counts
// only as boolean true; any other marker counts when non-empty.
func IsDeprecatedRemoval(rec change.Record, cfg Config) bool {
	if rec.Type != change.Remove {
		return false
	}
	old, ok := value.AsObject(rec.OldValue)
	if !ok {
		return false
	}
	for _, field := range cfg.DeprecationFields {
		if v, ok := old.Get(field); ok && meaningful(field, v) {
			return true
		}
	}
	return false
}

func meaningful(field string, v value.Value) bool {
	if field == FieldDeprecated {
		return value.Equal(v, value.Bool(true))
	}
	if b, ok := v.(value.Bool); ok {
		return bool(b)
	}
	return !value.IsEmpty(v)
}

// Sunset returns the parsed x-sunset date recorded on a removed node.
func Sunset(rec change.Record) (time.Time, bool) {
	old, ok := value.AsObject(rec.OldValue)
	if !ok {
		return time.Time{}, false
	}
	raw, ok := old.Get(FieldSunset)
	if !ok {
		return time.Time{}, false
	}
	s, ok := raw.(value.String)
	if !ok {
		return time.Time{}, false
	}
	t, err := ParseTimestamp(string(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasElapsedDeprecationWindow reports whether the node's sunset date has
// been reached. Without a parseable sunset there is no proof that notice was
// given, so the window never counts as elapsed.
func HasElapsedDeprecationWindow(rec change.Record, _ Config, now time.Time) bool {
	sunset, ok := Sunset(rec)
	if !ok {
		return false
	}
	return !now.Before(sunset)
}

// IsProperlyDeprecated reports whether a removal was deprecated and its
// sunset has passed.
func IsProperlyDeprecated(rec change.Record, cfg Config, now time.Time) bool {
	return IsDeprecatedRemoval(rec, cfg) && HasElapsedDeprecationWindow(rec, cfg, now)
}

// DeprecationNotice explains the deprecation state of a breaking change for
// reports. It returns "" for changes that carry no deprecation marker.
func DeprecationNotice(rec change.Record, cfg Config, now time.Time) string {
	if !IsDeprecatedRemoval(rec, cfg) {
		return ""
	}
	sunset, ok := Sunset(rec)
	if !ok {
		return fmt.Sprintf("deprecated without a sunset date; add %s at least %d days after announcing the deprecation",
			FieldSunset, cfg.DeprecationWindowDays)
	}
	if now.Before(sunset) {
		days := int(math.Ceil(sunset.Sub(now).Hours() / 24))
		return fmt.Sprintf("deprecated, sunset %s is %d day(s) away", sunset.Format(time.DateOnly), days)
	}
	return fmt.Sprintf("deprecated, sunset %s has passed", sunset.Format(time.DateOnly))
}

// DeprecationApprovals returns the positions in breaking that are properly
// deprecated removals.
func DeprecationApprovals(breaking []change.Record, cfg Config, now time.Time) Approved {
	approved := make(Approved)
	for i, rec := range breaking {
		if IsProperlyDeprecated(rec, cfg, now) {
			approved.Add(i)
		}
	}
	return approved
}
