package feed

import (
	"iter"
	"strings"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/tools"
)

const (
	DateLayout = "02-Jan-2006"

	_minFields = 6
)

// Parse lazily yields the valid data records of a bulk price document.
// Header lines carrying a parenthesized category are attached to the records
// that follow them.
func Parse(doc string) iter.Seq[model.FeedRecord] {
	return func(yield func(model.FeedRecord) bool) {
		var category string
		for line := range strings.Lines(doc) {
			line = strings.TrimRight(line, "\r\n")
			if !strings.Contains(line, ";") {
				if c, ok := parseCategory(line); ok {
					category = c
				}
				continue
			}

			rec, ok := parseRecord(line)
			if !ok {
				continue
			}
			rec.Category = category
			if !yield(rec) {
				return
			}
		}
	}
}

func parseCategory(line string) (string, bool) {
	open := strings.Index(line, "(")
	closing := strings.LastIndex(line, ")")
	if open < 0 || closing <= open {
		return "", false
	}
	if c := strings.TrimSpace(line[open+1 : closing]); c != "" {
		return c, true
	}
	return strings.TrimSpace(line), true
}

func parseRecord(line string) (model.FeedRecord, bool) {
	parts := strings.Split(line, ";")
	if len(parts) < _minFields {
		return model.FeedRecord{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if !isDigits(parts[0]) {
		return model.FeedRecord{}, false
	}

	price, err := tools.ParseDecimal(parts[4])
	if err != nil {
		return model.FeedRecord{}, false
	}
	asOf, err := time.Parse(DateLayout, parts[5])
	if err != nil {
		return model.FeedRecord{}, false
	}

	return model.FeedRecord{
		Code:   parts[0],
		AltIDs: [2]string{cleanID(parts[1]), cleanID(parts[2])},
		Name:   parts[3],
		Price:  price,
		AsOf:   asOf,
	}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// cleanID maps the feed's "-" placeholder to an empty id.
func cleanID(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
