package apiclient

import "encoding/json"

// Setting is one entry of the settings working set.
type Setting struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ListSettings returns the working set, keyed by setting name.
func (c *Client) ListSettings() (map[string]json.RawMessage, error) {
	var settings map[string]json.RawMessage
	if err := c.get("/api/v1/settings", &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// GetSetting returns a setting by key.
func (c *Client) GetSetting(key string) (*Setting, error) {
	return getResource[Setting](c, resourcePath("/api/v1/settings/%s", key))
}

// SetSetting stages a setting value. value must be valid JSON. The change is
// durable after CommitSettings.
func (c *Client) SetSetting(key string, value json.RawMessage) (*Setting, error) {
	req := map[string]json.RawMessage{"value": value}
	return updateResource[Setting](c, resourcePath("/api/v1/settings/%s", key), req)
}

// DeleteSetting stages the removal of a setting.
func (c *Client) DeleteSetting(key string) error {
	return c.delete(resourcePath("/api/v1/settings/%s", key), nil)
}

// CommitSettings flushes the working set to the store.
func (c *Client) CommitSettings() error {
	return c.post("/api/v1/settings/commit", nil, nil)
}
