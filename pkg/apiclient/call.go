package apiclient

import "encoding/json"

// CallResult is the body of a successful routed call.
type CallResult struct {
	Result json.RawMessage `json:"result"`
}

// Call invokes a routed feature method with named JSON arguments. args may
// be nil for methods without arguments.
func (c *Client) Call(method string, args json.RawMessage) (json.RawMessage, error) {
	var body any
	if len(args) > 0 {
		body = args
	}
	res, err := postResource[CallResult](c, resourcePath("/api/v1/call/%s", method), body)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}
