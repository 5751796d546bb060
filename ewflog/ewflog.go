// Package ewflog replaces the teacher's scattered fmt.Println/libnotify_verbose
// style debug output with an injected logger, per the "no global mutable
// state" design note: callers pass a Logger down the call stack instead of
// every component reaching for a package-level verbosity flag.
package ewflog

// Logger receives warnings (structural oddities that are tolerated, not
// fatal — e.g. a table/table2 offset mismatch) and verbose trace lines
// (the teacher's old "[*] debug ..." prints).
type Logger interface {
	Warnf(format string, args ...any)
	Verbosef(format string, args ...any)
}

// Discard is the default Logger: it drops everything.
var Discard Logger = discard{}

type discard struct{}

func (discard) Warnf(string, ...any)    {}
func (discard) Verbosef(string, ...any) {}

// Std writes both warnings and verbose lines to the given printf-style sink
// (typically wrapping *log.Logger.Printf), tagging warnings so they stand
// out in mixed output.
type Std struct {
	Printf  func(format string, args ...any)
	Verbose bool
}

func (s Std) Warnf(format string, args ...any) {
	s.Printf("warning: "+format, args...)
}

func (s Std) Verbosef(format string, args ...any) {
	if s.Verbose {
		s.Printf(format, args...)
	}
}

var _ Logger = Std{}
