package packstream

// Node, please read @spec section 3. Signature SigNode, fields (id, labels, properties).
type Node struct {
	ID         int64
	Labels     []string
	Properties *Map
}

// Relationship, please read @spec section 3. Signature SigRelationship,
// fields (id, startNodeId, endNodeId, type, properties).
type Relationship struct {
	ID          int64
	StartNodeID int64
	EndNodeID   int64
	Type        string
	Properties  *Map
}

// UnboundRelationship, please read @spec section 3. Signature
// SigUnboundRelationship, fields (id, type, properties).
type UnboundRelationship struct {
	ID         int64
	Type       string
	Properties *Map
}

// Path, please read @spec section 3. Signature SigPath, fields
// (nodes, relationships, sequence).
type Path struct {
	Nodes         []Node
	Relationships []UnboundRelationship
	Sequence      []int64
}

func (n *Node) equal(o *Node) bool {
	if n.ID != o.ID || len(n.Labels) != len(o.Labels) {
		return false
	}
	for i, l := range n.Labels {
		if o.Labels[i] != l {
			return false
		}
	}
	return propsEqual(n.Properties, o.Properties)
}

func (r *Relationship) equal(o *Relationship) bool {
	return r.ID == o.ID && r.StartNodeID == o.StartNodeID && r.EndNodeID == o.EndNodeID &&
		r.Type == o.Type && propsEqual(r.Properties, o.Properties)
}

func (u *UnboundRelationship) equal(o *UnboundRelationship) bool {
	return u.ID == o.ID && u.Type == o.Type && propsEqual(u.Properties, o.Properties)
}

func (p *Path) equal(o *Path) bool {
	if len(p.Nodes) != len(o.Nodes) || len(p.Relationships) != len(o.Relationships) || len(p.Sequence) != len(o.Sequence) {
		return false
	}
	for i := range p.Nodes {
		if !p.Nodes[i].equal(&o.Nodes[i]) {
			return false
		}
	}
	for i := range p.Relationships {
		if !p.Relationships[i].equal(&o.Relationships[i]) {
			return false
		}
	}
	for i := range p.Sequence {
		if p.Sequence[i] != o.Sequence[i] {
			return false
		}
	}
	return true
}

func propsEqual(a, b *Map) bool {
	if a == nil {
		a = NewMap()
	}
	if b == nil {
		b = NewMap()
	}
	return a.Equal(b)
}
