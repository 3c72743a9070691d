package models

import "time"

// Canonical column keys.
const (
	KeyStatus          = "status"
	KeyConversionDate  = "conversion_date"
	KeySegmentCategory = "segment_category"
	KeySituation       = "situation"
	KeyName            = "name"
	KeyEmail           = "email"
	KeyPhone           = "phone"
	KeyDealID          = "deal_id"
	KeyMessage         = "message"
	KeyDealName        = "deal_name"
	KeyTimestamp       = "timestamp"
	KeyType            = "type"
	KeyStage           = "stage"

	// KeyLeadCategory is the derived column appended to exports.
	KeyLeadCategory = "lead_category"
)

// Table is a raw row/column table as read from an uploaded file.
// Workbook is set when cells came from a spreadsheet, whose dates may be
// stored as serial day numbers.
type Table struct {
	Name     string
	Headers  []string
	Rows     [][]string
	Workbook bool
}

// Lead represents one row of the input table after normalization.
// Row is the 1-based data row index in the source table.
type Lead struct {
	ConversionDate time.Time         `json:"conversionDate"`
	Fields         map[string]string `json:"fields"`
	Status         string            `json:"status"`
	Segment        string            `json:"segment"`
	Situation      string            `json:"situation,omitempty"`
	Category       Category          `json:"category"`
	Row            int               `json:"row"`
}

// Field returns the value stored under a (renamed) column name.
func (l *Lead) Field(column string) string {
	if l.Fields == nil {
		return ""
	}

	return l.Fields[column]
}

// Dataset is the working record set produced by one ingestion.
type Dataset struct {
	Renamed      map[string]string `json:"renamed"`
	Source       string            `json:"source"`
	Columns      []string          `json:"columns"`
	Leads        []Lead            `json:"leads"`
	TotalRows    int               `json:"totalRows"`
	DroppedDates int               `json:"droppedDates"`
	ExcludedRows int               `json:"excludedRows"`
	HasSituation bool              `json:"hasSituation"`
}

// HasColumn reports whether the dataset carries the given column.
func (d *Dataset) HasColumn(column string) bool {
	for _, c := range d.Columns {
		if c == column {
			return true
		}
	}

	return false
}

// DateBounds returns the earliest and latest conversion dates in the set.
func (d *Dataset) DateBounds() (time.Time, time.Time, bool) {
	if len(d.Leads) == 0 {
		return time.Time{}, time.Time{}, false
	}

	earliest, latest := d.Leads[0].ConversionDate, d.Leads[0].ConversionDate
	for _, lead := range d.Leads[1:] {
		if lead.ConversionDate.Before(earliest) {
			earliest = lead.ConversionDate
		}

		if lead.ConversionDate.After(latest) {
			latest = lead.ConversionDate
		}
	}

	return earliest, latest, true
}
