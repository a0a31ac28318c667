// pkg/registry/schema.go
package registry

// Catalog describes every command the router understands. It feeds the
// Unknown guidance message, suggestion ranking and the CLI "commands" listing.
type Catalog struct {
	Version     string    `json:"version"`
	LastUpdated string    `json:"lastUpdated"`
	Commands    []Command `json:"commands"`
}

type Command struct {
	Intent      string   `json:"intent"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Params      []string `json:"params,omitempty"`
	Examples    []string `json:"examples"`
	Tags        []string `json:"tags,omitempty"`
}

// Examples returns every example utterance in catalogue order.
func (c *Catalog) Examples() []string {
	var out []string
	for _, cmd := range c.Commands {
		out = append(out, cmd.Examples...)
	}
	return out
}

// Lookup finds the command for an intent wire name.
func (c *Catalog) Lookup(intent string) (Command, bool) {
	for _, cmd := range c.Commands {
		if cmd.Intent == intent {
			return cmd, true
		}
	}
	return Command{}, false
}
