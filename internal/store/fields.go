package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// listDelim separates elements of list-typed fields inside a single TEXT
// column. Elements must never contain it; encodeList enforces that at write
// time.
const listDelim = "|"

func encodeList(items []string) (sql.NullString, error) {
	if len(items) == 0 {
		return sql.NullString{}, nil
	}
	for _, item := range items {
		if strings.Contains(item, listDelim) {
			return sql.NullString{}, fmt.Errorf(
				"list element %q must not contain the delimiter %q", item, listDelim)
		}
	}
	return sql.NullString{String: strings.Join(items, listDelim), Valid: true}, nil
}

func decodeList(v sql.NullString) []string {
	if !v.Valid {
		return nil
	}
	return strings.Split(v.String, listDelim)
}

func encodeIntList(items []int) (sql.NullString, error) {
	strs := make([]string, len(items))
	for i, v := range items {
		strs[i] = strconv.Itoa(v)
	}
	return encodeList(strs)
}

func decodeIntList(v sql.NullString) ([]int, error) {
	strs := decodeList(v)
	if strs == nil {
		return nil, nil
	}
	ints := make([]int, len(strs))
	for i, s := range strs {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid integer list element %q: %w", s, err)
		}
		ints[i] = n
	}
	return ints, nil
}

// Durations persist as floating-point seconds.

func encodeDuration(d *time.Duration) sql.NullFloat64 {
	if d == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: d.Seconds(), Valid: true}
}

func decodeDuration(v sql.NullFloat64) *time.Duration {
	if !v.Valid {
		return nil
	}
	d := time.Duration(v.Float64 * float64(time.Second))
	return &d
}

// Times persist as fixed-width UTC timestamps so that lexical ordering in SQL
// matches chronological ordering. RFC3339Nano trims trailing zeros and would
// break that.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func encodeTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func decodeTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored time %q: %w", v.String, err)
	}
	local := t.Local()
	return &local, nil
}

func encodeInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func decodeInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
