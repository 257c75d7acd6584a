package models

// DataSourceType identifies where usage data is read from.
type DataSourceType string

const (
	// DataSourceJSONL reads local session log files (default).
	DataSourceJSONL DataSourceType = "jsonl"
	// DataSourceTelemetry reads OpenTelemetry metrics from the local store.
	DataSourceTelemetry DataSourceType = "telemetry"
)

// DisplayName returns a human-readable name for the data source.
func (t DataSourceType) DisplayName() string {
	switch t {
	case DataSourceTelemetry:
		return "Telemetry"
	default:
		return "Local Files"
	}
}

// DataSourceInfo describes the active data source, surfaced in snapshot
// metadata so the UI can render it. The core only renders this; the
// collector decides it.
type DataSourceInfo struct {
	SourceType    string `json:"sourceType"`
	DisplayName   string `json:"displayName"`
	CollectorPort uint16 `json:"collectorPort,omitempty"`
}
