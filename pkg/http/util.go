package http

import (
	"time"

	xutil "stockmood/pkg/util"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// ParseDate parses the date formats accepted by the ingest layer.
func ParseDate(s string) (time.Time, bool) { return xutil.ParseDate(s) }
