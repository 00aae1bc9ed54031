// Package http contains the HTTP transport layer: the JSON upload API,
// the HTML upload page, and the health endpoints. Handlers own routing,
// upload extraction and rendering; all analysis semantics live behind
// the AnalysisService interface.
package http
