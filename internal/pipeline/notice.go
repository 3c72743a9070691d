package pipeline

// NoticeCode identifies a non-fatal condition reported to the user.
type NoticeCode string

// Notice codes.
const (
	NoticeColumnsRenamed    NoticeCode = "COLUMNS_RENAMED"
	NoticeColumnsShadowed   NoticeCode = "COLUMNS_SHADOWED"
	NoticeDatesDropped      NoticeCode = "DATES_DROPPED"
	NoticeRowsExcluded      NoticeCode = "ROWS_EXCLUDED"
	NoticeIncompleteRange   NoticeCode = "INCOMPLETE_RANGE"
	NoticeNoMatchingRecords NoticeCode = "NO_MATCHING_RECORDS"
	NoticeSituationMissing  NoticeCode = "SITUATION_MISSING"
	NoticeStageMissing      NoticeCode = "STAGE_MISSING"
	NoticeNoConversions     NoticeCode = "NO_CONVERSIONS"
)

// Notice is a human-readable status message for the presentation layer.
type Notice struct {
	Code    NoticeCode `json:"code"`
	Message string     `json:"message"`
}

// HasNotice reports whether notices contains code.
func HasNotice(notices []Notice, code NoticeCode) bool {
	for _, n := range notices {
		if n.Code == code {
			return true
		}
	}

	return false
}
