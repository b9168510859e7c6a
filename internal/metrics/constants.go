package metrics

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "giftbook_http_requests_total"
	MetricNameHTTPRequestDuration  = "giftbook_http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "giftbook_http_requests_in_flight"
	MetricNameRateLimited          = "giftbook_http_rate_limited_total"
	MetricNameSuspiciousRequests   = "giftbook_http_suspicious_requests_total"
)

// Ledger metric names
const (
	MetricNameRecordOperations = "giftbook_record_operations_total"
	MetricNameAmountRecorded   = "giftbook_amount_recorded_cents_total"
	MetricNameSearches         = "giftbook_searches_total"
	MetricNameExports          = "giftbook_exports_total"
)

// Event and mirror metric names
const (
	MetricNameEventsPublished     = "giftbook_events_published_total"
	MetricNameEventPublishErrors  = "giftbook_event_publish_errors_total"
	MetricNameMirrorSyncs         = "giftbook_mirror_syncs_total"
	MetricNameMirrorSweepDuration = "giftbook_mirror_sweep_duration_seconds"
)

// Help texts
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Number of HTTP requests currently being served"
	HelpTextRateLimited          = "Requests rejected by the per-client rate limiter"
	HelpTextSuspiciousRequests   = "Requests matching a known probing pattern"

	HelpTextRecordOperations = "Ledger record operations by kind"
	HelpTextAmountRecorded   = "Sum of recorded gift amounts in cents by payment type"
	HelpTextSearches         = "Total number of ledger searches"
	HelpTextExports          = "Ledger exports by format"

	HelpTextEventsPublished     = "Record events published to the broker"
	HelpTextEventPublishErrors  = "Record events that could not be published"
	HelpTextMirrorSyncs         = "Spreadsheet mirror attempts by result"
	HelpTextMirrorSweepDuration = "Duration of pending mirror sweeps in seconds"
)

// Label names
const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelOperation = "operation"
	LabelPayment   = "payment"
	LabelFormat    = "format"
	LabelType      = "type"
	LabelResult    = "result"
)

// Label values
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"

	FormatCSV    = "csv"
	FormatSheets = "sheets"
	FormatPrint  = "print"
)

// HTTPLatencyBuckets covers fast API calls up to slow exports.
var HTTPLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
