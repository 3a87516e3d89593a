// Package vtclient submits observable batches to the reputation service's v2
// HTTP API.
//
// Client implements lookup.Gateway. Each descriptor becomes a request to
// {base}/{api type}/report carrying the API key and the batch in the
// descriptor's parameter. The client owns every transport concern the lookup
// engine leaves out: the request budget, timeouts, an optional SOCKS5 proxy,
// and decoding of compressed bodies.
//
// The public API allows four requests per minute, which is the default
// budget. Set WithRequestsPerMinute(0) for keys without a limit.
package vtclient
