package upload

// Severity grades a Report call. SeverityAlert is reserved for conditions
// that need an operator, such as a multipart upload left open.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
	SeverityAlert
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	case SeverityAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Reporter receives per-recording progress and failures.
type Reporter interface {
	Report(sev Severity, id, msg string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(sev Severity, id, msg string)

func (f ReporterFunc) Report(sev Severity, id, msg string) { f(sev, id, msg) }

type nopReporter struct{}

func (nopReporter) Report(Severity, string, string) {}
