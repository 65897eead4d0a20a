package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"time"
)

// AppLogger provides logging utilities for the server and tests
type AppLogger struct {
	outputDir      string
	logRequests    bool
	logBroadcasts  bool
	logDB          bool
	logWS          bool
	debug          bool
	requestLog     *os.File
	broadcastLog   *os.File
	dbLog          *os.File
	wsLog          *os.File
	mu             sync.Mutex
	requestCount   int
	broadcastCount int
	wsMessageCount int
}

// Global application logger (used by server)
var appLogger *AppLogger

// LogConfig holds logging configuration
type LogConfig struct {
	OutputDir     string
	LogRequests   bool
	LogBroadcasts bool
	LogDB         bool
	LogWS         bool
	Debug         bool
}

func openLog(dir, name string) (*os.File, error) {
	return os.OpenFile(fmt.Sprintf("%s/%s", dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// NewAppLogger creates a new application logger
func NewAppLogger(config LogConfig) (*AppLogger, error) {
	al := &AppLogger{
		outputDir:     config.OutputDir,
		logRequests:   config.LogRequests,
		logBroadcasts: config.LogBroadcasts,
		logDB:         config.LogDB,
		logWS:         config.LogWS,
		debug:         config.Debug,
	}

	if al.outputDir == "" {
		return al, nil // No file logging, debug goes to stderr
	}

	var err error
	if al.logRequests {
		if al.requestLog, err = openLog(al.outputDir, "requests.log"); err != nil {
			return nil, fmt.Errorf("failed to open request log: %w", err)
		}
	}
	if al.logBroadcasts {
		if al.broadcastLog, err = openLog(al.outputDir, "broadcasts.log"); err != nil {
			return nil, fmt.Errorf("failed to open broadcast log: %w", err)
		}
	}
	if al.logDB {
		if al.dbLog, err = openLog(al.outputDir, "database.log"); err != nil {
			return nil, fmt.Errorf("failed to open database log: %w", err)
		}
	}
	if al.logWS {
		if al.wsLog, err = openLog(al.outputDir, "websocket.log"); err != nil {
			return nil, fmt.Errorf("failed to open WebSocket log: %w", err)
		}
	}

	return al, nil
}

// InitAppLogger initializes the global application logger
func InitAppLogger(config LogConfig) error {
	var err error
	appLogger, err = NewAppLogger(config)
	return err
}

// Close closes all open log files
func (al *AppLogger) Close() {
	for _, f := range []*os.File{al.requestLog, al.broadcastLog, al.dbLog, al.wsLog} {
		if f != nil {
			f.Close()
		}
	}
}

// LogRequest logs an HTTP request and response
func (al *AppLogger) LogRequest(method, url string, reqBody []byte, resp *http.Response, respBody []byte) {
	if !al.logRequests || al.requestLog == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	al.requestCount++
	timestamp := time.Now().Format("15:04:05.000")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n========== REQUEST #%d [%s] ==========\n", al.requestCount, timestamp)
	fmt.Fprintf(&buf, "%s %s\n", method, url)

	if len(reqBody) > 0 {
		fmt.Fprintf(&buf, "\n--- Request Body ---\n")
		buf.Write(reqBody)
		buf.WriteString("\n")
	}

	if resp != nil {
		fmt.Fprintf(&buf, "\n--- Response [%d %s] ---\n", resp.StatusCode, resp.Status)
		for k, v := range resp.Header {
			fmt.Fprintf(&buf, "%s: %s\n", k, strings.Join(v, ", "))
		}
	}

	if len(respBody) > 0 {
		fmt.Fprintf(&buf, "\n--- Response Body ---\n")
		if len(respBody) > 5000 {
			buf.Write(respBody[:5000])
			fmt.Fprintf(&buf, "\n... (truncated, %d bytes total)\n", len(respBody))
		} else {
			buf.Write(respBody)
		}
		buf.WriteString("\n")
	}

	al.requestLog.Write(buf.Bytes())
}

// LogBroadcast logs an HTML fragment sent to a room
func (al *AppLogger) LogBroadcast(room, html string) {
	if !al.logBroadcasts || al.broadcastLog == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	al.broadcastCount++
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(al.broadcastLog, "[%s] #%d room=%s %s\n", timestamp, al.broadcastCount, room, html)
}

// LogWebSocket logs a WebSocket message
func (al *AppLogger) LogWebSocket(direction, userID, message string) {
	if !al.logWS || al.wsLog == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	al.wsMessageCount++
	timestamp := time.Now().Format("15:04:05.000")

	fmt.Fprintf(al.wsLog, "[%s] #%d %s [User %s]: %s\n",
		timestamp, al.wsMessageCount, direction, userID, message)
}

// LogDB dumps the current database state
func (al *AppLogger) LogDB(context string) {
	if !al.logDB || al.dbLog == nil || db == nil {
		return
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n========== DATABASE DUMP [%s] ==========\n", timestamp)
	fmt.Fprintf(&buf, "Context: %s\n\n", context)

	var tables []string
	if err := db.Select(&tables, "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name"); err != nil {
		fmt.Fprintf(&buf, "Error getting tables: %v\n", err)
		al.dbLog.Write(buf.Bytes())
		return
	}

	for _, table := range tables {
		fmt.Fprintf(&buf, "--- Table: %s ---\n", table)

		rows, err := db.Queryx("SELECT * FROM " + table)
		if err != nil {
			fmt.Fprintf(&buf, "Error: %v\n\n", err)
			continue
		}

		rowCount := 0
		for rows.Next() {
			rowCount++
			row, err := rows.SliceScan()
			if err != nil {
				fmt.Fprintf(&buf, "Error scanning row: %v\n", err)
				continue
			}
			var rowStr []string
			for _, v := range row {
				switch val := v.(type) {
				case nil:
					rowStr = append(rowStr, "NULL")
				case []byte:
					rowStr = append(rowStr, string(val))
				default:
					rowStr = append(rowStr, fmt.Sprintf("%v", val))
				}
			}
			fmt.Fprintf(&buf, "Row %d: %s\n", rowCount, strings.Join(rowStr, " | "))
		}
		rows.Close()

		if rowCount == 0 {
			fmt.Fprintf(&buf, "(empty)\n")
		}
		buf.WriteString("\n")
	}

	al.dbLog.Write(buf.Bytes())
}

// Debug logs a debug message if debug mode is enabled
func (al *AppLogger) Debug(context, format string, args ...any) {
	if !al.debug {
		return
	}
	log.Printf("[DEBUG] ["+context+"] "+format, args...)
}

// ============================================================================
// HTTP Middleware
// ============================================================================

// LoggingHandler wraps http.Handler to log requests/responses
// Note: WebSocket requests (/ws) are passed through without recording
// because they require http.Hijacker which ResponseRecorder doesn't support
type LoggingHandler struct {
	Handler http.Handler
	Logger  *AppLogger
}

func (l *LoggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ws" {
		l.Logger.LogRequest(r.Method, r.URL.String(), nil, nil, []byte("[WebSocket upgrade]"))
		l.Handler.ServeHTTP(w, r)
		return
	}

	var reqBody []byte
	if r.Body != nil {
		reqBody, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewBuffer(reqBody))
	}

	rec := httptest.NewRecorder()
	l.Handler.ServeHTTP(rec, r)

	for k, v := range rec.Header() {
		w.Header()[k] = v
	}
	w.WriteHeader(rec.Code)
	respBody := rec.Body.Bytes()
	w.Write(respBody)

	l.Logger.LogRequest(r.Method, r.URL.String(), reqBody, &http.Response{
		StatusCode: rec.Code,
		Status:     http.StatusText(rec.Code),
		Header:     rec.Header(),
	}, respBody)
}

// requestLogging is the chi middleware form of LoggingHandler
func requestLogging(logger *AppLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &LoggingHandler{Handler: next, Logger: logger}
	}
}

// ============================================================================
// Global helper functions
// ============================================================================

// LogWSMessage logs a WebSocket message using the global logger
func LogWSMessage(direction, userID, message string) {
	if appLogger != nil {
		appLogger.LogWebSocket(direction, userID, message)
	}
}

// LogBroadcastHTML logs a room broadcast using the global logger
func LogBroadcastHTML(room, html string) {
	if appLogger != nil {
		appLogger.LogBroadcast(room, html)
	}
}

// LogDBState logs the database state using the global logger
func LogDBState(context string) {
	if appLogger != nil {
		appLogger.LogDB(context)
	}
}

// DebugLog logs a debug message using the global logger
func DebugLog(context, format string, args ...any) {
	if appLogger != nil {
		appLogger.Debug(context, format, args...)
	}
}

// CloseAppLogger closes the global application logger
func CloseAppLogger() {
	if appLogger != nil {
		appLogger.Close()
	}
}
