package config

var traceSync bool

// GetTraceSync reports whether every mirror synchronization is logged.
func GetTraceSync() bool {
	return traceSync
}

func SetTraceSync(v bool) {
	traceSync = v
}
