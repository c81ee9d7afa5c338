// Package metrics holds the Prometheus collectors of the analysis pipeline.
package metrics

const (
	namespace    = "fradium"
	unknownLabel = "unknown"
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func labelOrUnknown(v string) string {
	if v == "" {
		return unknownLabel
	}
	return v
}
