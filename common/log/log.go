package log

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"regexp"
	"time"
	"unicode"

	"github.com/go-kit/kit/log"
)

const (
	LvlDebug = "DEBUG"
	LvlInfo  = "INFO"
	LvlWarn  = "WARNING"
	LvlErr   = "ERROR"
)

func NewLogger(component string) *Logger {
	var kitlogger log.Logger
	kitlogger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	kitlogger = log.With(kitlogger, "ts", log.DefaultTimestampUTC)
	kitlogger = log.With(kitlogger, "component", component)

	return &Logger{
		kitlogger,
	}
}

type Logger struct {
	log.Logger
}

func (l *Logger) Debug(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlDebug, message, keyvals)
}

func (l *Logger) Info(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlInfo, message, keyvals)
}

func (l *Logger) Warn(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlWarn, message, keyvals)
}

func (l *Logger) Err(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlErr, message, keyvals)
}

// Print lets gorm route its sql traces through the structured logger.
func (l *Logger) Print(v ...interface{}) {
	if len(v) < 2 {
		return
	}
	keyvals := []interface{}{"source", v[1]}

	if v[0] == "sql" && len(v) >= 5 {
		if d, ok := v[2].(time.Duration); ok {
			keyvals = append(keyvals, "durationMs", fmt.Sprintf("%.2f", float64(d.Nanoseconds())/1e6))
		}
		query, _ := v[3].(string)
		values, _ := v[4].([]interface{})
		keyvals = append(keyvals, "query", inlineSqlValues(query, values))
	} else {
		keyvals = append(keyvals, v[2:]...)
	}
	l.logWithLvl(context.Background(), LvlDebug, "new database query", keyvals)
}

func (l *Logger) logWithLvl(ctx context.Context, lvl string, message string, keyvals []interface{}) {
	if ctx != nil {
		if claims, ok := ctx.Value("claims").(map[string]interface{}); ok {
			if userId, ok := claims["userId"]; ok {
				keyvals = append(keyvals, "userId", userId)
			}
			if role, ok := claims["role"]; ok {
				keyvals = append(keyvals, "role", fmt.Sprint(role))
			}
		}
	}
	keyvals = append(keyvals, "level", lvl, "msg", message)
	l.Log(keyvals...)
}

var (
	sqlRegexp = regexp.MustCompile(`(\$\d+)|\?`)
)

func inlineSqlValues(query string, values []interface{}) string {
	formattedValues := make([]string, 0, len(values))
	for _, value := range values {
		formattedValues = append(formattedValues, formatSqlValue(value))
	}

	var sql string
	for index, part := range sqlRegexp.Split(query, -1) {
		sql += part
		if index < len(formattedValues) {
			sql += formattedValues[index]
		}
	}
	return sql
}

func formatSqlValue(value interface{}) string {
	indirectValue := reflect.Indirect(reflect.ValueOf(value))
	if !indirectValue.IsValid() {
		return "NULL"
	}
	value = indirectValue.Interface()
	switch v := value.(type) {
	case time.Time:
		return fmt.Sprintf("'%v'", v.Format(time.RFC3339))
	case []byte:
		if str := string(v); isPrintable(str) {
			return fmt.Sprintf("'%v'", str)
		}
		return "'<binary>'"
	case driver.Valuer:
		if dv, err := v.Value(); err == nil && dv != nil {
			return fmt.Sprintf("'%v'", dv)
		}
		return "NULL"
	default:
		return fmt.Sprintf("'%v'", v)
	}
}

func isPrintable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (l *Logger) RequestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, req)

		l.Info(req.Context(), "http request served",
			"method", req.Method,
			"uri", req.RequestURI,
			"status", recorder.status,
			"elapsedMs", time.Since(start).Milliseconds(),
		)
	})
}
