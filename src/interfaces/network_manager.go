package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for outbound HTTP requests.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// Get performs a GET request against urlStr with the given query
	// parameters and returns the response body. The request is bounded by the
	// configured timeout and the caller's context.
	Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error)
}
