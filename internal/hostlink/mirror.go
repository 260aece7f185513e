package hostlink

import (
	"github.com/1broseidon/sphereland/internal/platform"
)

// Mirror forwards a scene change to the host. Register it with
// platform.Arena.OnChange. Send failures are logged; the host drops the
// client's nodes when the link closes.
func (c *Conn) Mirror(ch platform.Change) {
	n := ch.Node
	f := wireFrame{Node: uint32(n.ID)}
	switch ch.Kind {
	case platform.NodeCreated:
		f.Type = typeNodeCreate
		f.Parent = uint32(n.Parent)
		f.Kind = n.Kind.String()
		f.Resource = n.Resource
		f.Spatial = toWireTransform(n.Transform)
	case platform.NodeUpdated:
		enabled := n.Enabled
		f.Type = typeNodeUpdate
		f.Spatial = toWireTransform(n.Transform)
		f.Enabled = &enabled
	case platform.NodeDestroyed:
		f.Type = typeNodeDestroy
	default:
		return
	}
	if err := c.send(f); err != nil {
		c.logger.Debug("mirror node", "node", n.ID, "change", f.Type, "error", err)
	}
}
