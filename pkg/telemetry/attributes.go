package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Fetcher / registry
	AttrFetcherID    = "fetcher.id"
	AttrPluginID     = "fetcher.plugin_id"
	AttrRegistrySize = "registry.size"

	// Fetch-and-parse
	AttrFetchKey    = "fetch.key"
	AttrRequestID   = "fetch.request_id"
	AttrReplyStatus = "fetch.reply_status"

	// Worker
	AttrWorkerID       = "worker.id"
	AttrWorkerState    = "worker.state"
	AttrRestartAttempt = "worker.restart_attempt"

	// Stream
	AttrStreamInFlight = "stream.in_flight"
)

// FetcherAttributes возвращает атрибуты, относящиеся к конкретному fetcher-у
func FetcherAttributes(fetcherID, pluginID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrFetcherID, fetcherID),
		attribute.String(AttrPluginID, pluginID),
	}
}

// FetchAttributes возвращает атрибуты одного fetch-and-parse запроса
func FetchAttributes(fetcherID, fetchKey, requestID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrFetcherID, fetcherID),
		attribute.String(AttrFetchKey, fetchKey),
		attribute.String(AttrRequestID, requestID),
	}
}

// WorkerAttributes возвращает атрибуты, относящиеся к воркеру
func WorkerAttributes(workerID, state string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrWorkerID, workerID),
		attribute.String(AttrWorkerState, state),
	}
}
