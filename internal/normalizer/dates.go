package normalizer

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Workbook serial numbers outside this range are not treated as dates.
const (
	minSerialDate = 1
	maxSerialDate = 2958465 // 9999-12-31
)

// Zoned values keep their own offset so the calendar day is the one written.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

var isoLayouts = []string{
	"2006-1-2T15:04:05",
	"2006-1-2T15:04",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2",
	"2006/1/2 15:04:05",
	"2006/1/2",
}

var dayFirstLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
}

var monthFirstLayouts = []string{
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1-2-2006",
}

// DateParser parses conversion dates on a best-effort basis.
type DateParser struct {
	loc         *time.Location
	layouts     []string
	allowSerial bool
}

// NewDateParser creates a parser. dayFirst selects dd/mm/yyyy over mm/dd/yyyy
// for slash-separated dates.
func NewDateParser(dayFirst bool, loc *time.Location) *DateParser {
	if loc == nil {
		loc = time.UTC
	}

	layouts := append([]string(nil), isoLayouts...)
	if dayFirst {
		layouts = append(layouts, dayFirstLayouts...)
	} else {
		layouts = append(layouts, monthFirstLayouts...)
	}

	return &DateParser{
		loc:     loc,
		layouts: layouts,
	}
}

// WithSerials returns a copy that also accepts workbook serial day numbers.
func (p *DateParser) WithSerials() *DateParser {
	cp := *p
	cp.allowSerial = true

	return &cp
}

// Parse returns the parsed time and true, or the zero time and false when
// the value cannot be read as a date.
func (p *DateParser) Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	for _, layout := range p.layouts {
		if t, err := time.ParseInLocation(layout, value, p.loc); err == nil {
			return t, true
		}
	}

	if p.allowSerial {
		if t, ok := p.parseSerial(value); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

func (p *DateParser) parseSerial(value string) (time.Time, bool) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < minSerialDate || f > maxSerialDate {
		return time.Time{}, false
	}

	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}

	// Serials carry wall-clock time without a zone.
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, p.loc), true
}
