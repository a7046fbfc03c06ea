// Package pipelinev1 contains the wire types for the Tika pipeline-core
// gRPC surface described in the service's protocol (see tikapipe.proto
// in the deployment that originally shipped this service). The package
// is hand-maintained rather than protoc-generated: the deployment this
// client/server pair talks to never shipped its .proto sources, only the
// wire shapes below, so there is nothing to regenerate from.
package pipelinev1

// FetcherConfig mirrors an immutable registry entry as seen over the wire.
type FetcherConfig struct {
	FetcherId    string `json:"fetcherId"`
	PluginId     string `json:"pluginId"`
	ConfigJson   string `json:"configJson"`
}

// SaveFetcherRequest is the request for Tika.SaveFetcher.
type SaveFetcherRequest struct {
	FetcherId         string `json:"fetcherId"`
	FetcherClass      string `json:"fetcherClass"`
	FetcherConfigJson string `json:"fetcherConfigJson"`
}

// SaveFetcherReply is the reply for Tika.SaveFetcher.
type SaveFetcherReply struct {
	FetcherId string `json:"fetcherId"`
}

// GetFetcherRequest is the request for Tika.GetFetcher.
type GetFetcherRequest struct {
	FetcherId string `json:"fetcherId"`
}

// GetFetcherReply is the reply for Tika.GetFetcher.
type GetFetcherReply struct {
	FetcherId    string            `json:"fetcherId"`
	FetcherClass string            `json:"fetcherClass"`
	ParamsMap    map[string]string `json:"paramsMap"`
}

// DeleteFetcherRequest is the request for Tika.DeleteFetcher.
type DeleteFetcherRequest struct {
	FetcherId string `json:"fetcherId"`
}

// DeleteFetcherReply is the reply for Tika.DeleteFetcher.
type DeleteFetcherReply struct {
	Success bool `json:"success"`
}

// Empty is the request for Tika.ListFetchers; it carries no fields.
type Empty struct{}

// FetcherInfo is one entry of a ListFetchersReply snapshot.
type FetcherInfo struct {
	FetcherId    string            `json:"fetcherId"`
	FetcherClass string            `json:"fetcherClass"`
	ParamsMap    map[string]string `json:"paramsMap"`
}

// ListFetchersReply is the reply for Tika.ListFetchers.
type ListFetchersReply struct {
	Fetchers []*FetcherInfo `json:"fetchers"`
}

// FetchAndParseRequest is the request for both Tika.FetchAndParse and
// Tika.FetchAndParseBiDirectionalStreaming.
type FetchAndParseRequest struct {
	FetcherId string            `json:"fetcherId"`
	FetchKey  string            `json:"fetchKey"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	RequestId string            `json:"requestId,omitempty"`
}

// ReplyStatus enumerates the values FetchAndParseReply.Status can take.
// Kept as plain strings on the wire (see §3 of the pipeline's data model)
// rather than a protobuf enum, since the status set is closed but the
// transport never distinguished them numerically.
const (
	StatusParseSuccess              = "PARSE_SUCCESS"
	StatusParseSuccessWithException = "PARSE_SUCCESS_WITH_EXCEPTION"
	StatusFetchException             = "FETCH_EXCEPTION"
	StatusParseException             = "PARSE_EXCEPTION"
	StatusOversizeParse               = "OVERSIZE_PARSE"
	StatusEmpty                       = "EMPTY"
	StatusTimeout                     = "TIMEOUT"
	StatusClientUnavailable           = "CLIENT_UNAVAILABLE"
)

// FetchAndParseReply is the reply for both Tika.FetchAndParse and
// Tika.FetchAndParseBiDirectionalStreaming.
type FetchAndParseReply struct {
	FetchKey     string            `json:"fetchKey"`
	Status       string            `json:"status"`
	FieldsMap    map[string]string `json:"fieldsMap,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
}
