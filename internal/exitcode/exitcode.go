package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	FetchError      = 4
	SettlementError = 5
	RenderError     = 6
	ExportError     = 7
	NothingToSettle = 8
)
