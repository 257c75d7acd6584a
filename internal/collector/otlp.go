package collector

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dreynolds/ccmon-tui/internal/db"
	"github.com/dreynolds/ccmon-tui/internal/logger"
)

// maxOTLPBody caps a single export payload.
const maxOTLPBody = 8 << 20

var errUnsupportedEncoding = errors.New("unsupported content type")

// OTLP/HTTP wire shapes, JSON encoding. Only the fields Claude Code's
// exporter populates are modeled.
type otlpExportMetrics struct {
	ResourceMetrics []struct {
		ScopeMetrics []struct {
			Metrics []otlpMetric `json:"metrics"`
		} `json:"scopeMetrics"`
	} `json:"resourceMetrics"`
}

type otlpMetric struct {
	Name  string          `json:"name"`
	Sum   *otlpDataPoints `json:"sum"`
	Gauge *otlpDataPoints `json:"gauge"`
}

type otlpDataPoints struct {
	DataPoints []otlpNumberDataPoint `json:"dataPoints"`
}

type otlpNumberDataPoint struct {
	Attributes   []otlpKeyValue `json:"attributes"`
	TimeUnixNano string         `json:"timeUnixNano"`
	AsDouble     *float64       `json:"asDouble"`
	AsInt        string         `json:"asInt"` // OTLP encodes int64 as a string
}

func (p otlpNumberDataPoint) value() float64 {
	if p.AsDouble != nil {
		return *p.AsDouble
	}
	n, _ := strconv.ParseFloat(p.AsInt, 64)
	return n
}

type otlpExportLogs struct {
	ResourceLogs []struct {
		ScopeLogs []struct {
			LogRecords []otlpLogRecord `json:"logRecords"`
		} `json:"scopeLogs"`
	} `json:"resourceLogs"`
}

type otlpLogRecord struct {
	TimeUnixNano         string         `json:"timeUnixNano"`
	ObservedTimeUnixNano string         `json:"observedTimeUnixNano"`
	Body                 *otlpAnyValue  `json:"body"`
	Attributes           []otlpKeyValue `json:"attributes"`
}

func (r otlpLogRecord) timestampNS() int64 {
	if ns := parseUnixNano(r.TimeUnixNano); ns != 0 {
		return ns
	}
	if ns := parseUnixNano(r.ObservedTimeUnixNano); ns != 0 {
		return ns
	}
	return time.Now().UnixNano()
}

type otlpKeyValue struct {
	Key   string        `json:"key"`
	Value *otlpAnyValue `json:"value"`
}

type otlpAnyValue struct {
	StringValue *string  `json:"stringValue"`
	BoolValue   *bool    `json:"boolValue"`
	IntValue    *string  `json:"intValue"`
	DoubleValue *float64 `json:"doubleValue"`
}

func (v *otlpAnyValue) text() string {
	switch {
	case v == nil:
		return ""
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntValue != nil:
		return *v.IntValue
	case v.DoubleValue != nil:
		return strconv.FormatFloat(*v.DoubleValue, 'f', -1, 64)
	case v.BoolValue != nil:
		return strconv.FormatBool(*v.BoolValue)
	}
	return ""
}

func parseUnixNano(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func attrsOf(kvs []otlpKeyValue) map[string]string {
	attrs := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		attrs[kv.Key] = kv.Value.text()
	}
	return attrs
}

func encodeAttrs(attrs map[string]string) string {
	data, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// OTLPReceiver is the local OTLP/HTTP listener Claude Code exports telemetry
// to. Received claude_code.* metrics and events land in the sqlite store the
// telemetry source reads. Claude Code is pointed at it with
// OTEL_EXPORTER_OTLP_ENDPOINT=http://localhost:<port> and
// OTEL_EXPORTER_OTLP_PROTOCOL=http/json.
type OTLPReceiver struct {
	store  *db.DB
	server *http.Server
}

// NewOTLPReceiver starts the listener on 127.0.0.1:port.
func NewOTLPReceiver(store *db.DB, port int) (*OTLPReceiver, error) {
	r := &OTLPReceiver{store: store}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/metrics", r.handleMetrics)
	mux.HandleFunc("POST /v1/logs", r.handleLogs)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "OK")
	})

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("otlp listen on %s: %w", addr, err)
	}

	r.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := r.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("otlp receiver stopped", "err", err)
		}
	}()
	logger.Info("otlp receiver listening", "addr", addr)
	return r, nil
}

// Close shuts the listener down, letting in-flight exports finish briefly.
func (r *OTLPReceiver) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = r.server.Shutdown(ctx)
}

// requestBody reads the payload, honoring gzip content encoding. Protobuf
// payloads are rejected; the exporter must be configured for http/json.
func requestBody(req *http.Request) ([]byte, error) {
	if strings.Contains(req.Header.Get("Content-Type"), "protobuf") {
		return nil, errUnsupportedEncoding
	}

	reader := io.Reader(req.Body)
	if strings.Contains(req.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(req.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}
	return io.ReadAll(io.LimitReader(reader, maxOTLPBody))
}

func (r *OTLPReceiver) handleMetrics(w http.ResponseWriter, req *http.Request) {
	body, err := requestBody(req)
	if errors.Is(err, errUnsupportedEncoding) {
		http.Error(w, "use http/json encoding", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	var export otlpExportMetrics
	if err := json.Unmarshal(body, &export); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	metrics := extractMetrics(export)
	if len(metrics) > 0 {
		if err := r.store.InsertMetrics(req.Context(), metrics); err != nil {
			logger.Warn("storing otlp metrics", "err", err)
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (r *OTLPReceiver) handleLogs(w http.ResponseWriter, req *http.Request) {
	body, err := requestBody(req)
	if errors.Is(err, errUnsupportedEncoding) {
		http.Error(w, "use http/json encoding", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	var export otlpExportLogs
	if err := json.Unmarshal(body, &export); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	for _, event := range extractEvents(export) {
		if err := r.store.InsertEvent(req.Context(), event); err != nil {
			logger.Warn("storing otlp event", "name", event.Name, "err", err)
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// extractMetrics flattens an export request into metric rows, keeping only
// claude_code.* series. The exporter carries the model and the token type as
// data point attributes.
func extractMetrics(export otlpExportMetrics) []db.Metric {
	var out []db.Metric
	for _, rm := range export.ResourceMetrics {
		for _, sm := range rm.ScopeMetrics {
			for _, metric := range sm.Metrics {
				if !strings.HasPrefix(metric.Name, metricPrefix) {
					continue
				}
				points := metric.Sum
				if points == nil {
					points = metric.Gauge
				}
				if points == nil {
					continue
				}
				for _, p := range points.DataPoints {
					attrs := attrsOf(p.Attributes)
					out = append(out, db.Metric{
						Name:        metric.Name,
						Value:       p.value(),
						Model:       attrs["model"],
						TokenType:   attrs["type"],
						Attributes:  encodeAttrs(attrs),
						TimestampNS: parseUnixNano(p.TimeUnixNano),
					})
				}
			}
		}
	}
	return out
}

// extractEvents flattens an export request into event rows. The event name
// rides in the "event.name" log attribute; records without a claude_code.*
// name are dropped.
func extractEvents(export otlpExportLogs) []db.Event {
	var out []db.Event
	for _, rl := range export.ResourceLogs {
		for _, sl := range rl.ScopeLogs {
			for _, record := range sl.LogRecords {
				attrs := attrsOf(record.Attributes)
				name := attrs["event.name"]
				if !strings.HasPrefix(name, metricPrefix) {
					continue
				}
				out = append(out, db.Event{
					Name:        name,
					Body:        record.Body.text(),
					Attributes:  encodeAttrs(attrs),
					TimestampNS: record.timestampNS(),
				})
			}
		}
	}
	return out
}
