package builtins

// SourceFor returns the raw JS source text for a builtin group by name, for
// the snapshot producer's pre-bake syntax validation. Not every group is
// pure JS text evaluated via RunScript in one shot (none currently hold
// back anything from this map), so callers must handle the not-ok case.
func SourceFor(groupName string) (string, bool) {
	switch groupName {
	case "globals":
		return globalsJS, true
	case "console":
		return consoleJS, true
	case "encoding":
		return encodingJS, true
	case "abort":
		return abortJS, true
	case "webapi":
		return webAPIJS, true
	case "unhandledrejection":
		return unhandledRejectionJS, true
	case "timers":
		return timersJS, true
	case "crypto":
		return cryptoJS, true
	case "fetch":
		return fetchJS, true
	case "process":
		return processJS, true
	case "events":
		return eventsJS, true
	case "temporal":
		return temporalJS, true
	default:
		return "", false
	}
}
