package apiclient

// Modules is the enablement state returned by the server.
type Modules struct {
	Modules         map[string]bool `json:"modules"`
	RestartRequired bool            `json:"restart_required"`
}

// GetModules returns the module flags.
func (c *Client) GetModules() (*Modules, error) {
	return getResource[Modules](c, "/api/v1/modules")
}

// SetModules replaces the module flags. They take effect on the next start.
func (c *Client) SetModules(flags map[string]bool) (*Modules, error) {
	req := map[string]map[string]bool{"modules": flags}
	return updateResource[Modules](c, "/api/v1/modules", req)
}
