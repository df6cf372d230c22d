package assets

// Clone returns a deep copy of the asset. Every quality-level run owns its
// own clone, so background persists never race on shared buffers.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}

	out := &Asset{Name: a.Name}

	out.Textures = make([]*Texture, len(a.Textures))
	for i, t := range a.Textures {
		c := *t
		if t.Data != nil {
			c.Data = append([]byte(nil), t.Data...)
		}
		out.Textures[i] = &c
	}

	out.Materials = make([]*Material, len(a.Materials))
	for i, m := range a.Materials {
		c := *m
		if m.Textures != nil {
			c.Textures = make(map[Channel]int, len(m.Textures))
			for ch, idx := range m.Textures {
				c.Textures[ch] = idx
			}
		}
		out.Materials[i] = &c
	}

	out.Roots = make([]*Node, len(a.Roots))
	for i, n := range a.Roots {
		out.Roots[i] = cloneNode(n)
	}
	return out
}

func cloneNode(n *Node) *Node {
	c := *n
	c.Children = make([]*Node, len(n.Children))
	for i, child := range n.Children {
		c.Children[i] = cloneNode(child)
	}
	c.Parts = make([]*MeshPart, len(n.Parts))
	for i, p := range n.Parts {
		part := *p
		part.Geometry = p.Geometry.Clone()
		c.Parts[i] = &part
	}
	return &c
}
