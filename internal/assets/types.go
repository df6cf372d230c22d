// Package assets provides the in-memory asset model and its glTF binary
// (.glb) load/store backend. The processing pipeline only ever sees the
// decoded model, never the container format.
package assets

import (
	"errors"

	"github.com/avendale/lodforge/pkg/mesh"
)

// Asset load errors.
var (
	ErrNoGeometry    = errors.New("asset contains no geometry")
	ErrBadTextureRef = errors.New("material references a missing texture")
)

// Channel identifies the material slot a texture is bound to. The
// resampler biases its aggressiveness per channel.
type Channel int

const (
	ChannelBaseColor Channel = iota
	ChannelMetallicRoughness
	ChannelNormal
	ChannelOcclusion
	ChannelEmissive
	ChannelUnknown
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelBaseColor:
		return "baseColor"
	case ChannelMetallicRoughness:
		return "metallicRoughness"
	case ChannelNormal:
		return "normal"
	case ChannelOcclusion:
		return "occlusion"
	case ChannelEmissive:
		return "emissive"
	default:
		return "unknown"
	}
}

// OrderedChannels is the deterministic traversal order for material
// channels.
var OrderedChannels = []Channel{
	ChannelBaseColor,
	ChannelMetallicRoughness,
	ChannelNormal,
	ChannelOcclusion,
	ChannelEmissive,
}

// Texture is one encoded image resource.
type Texture struct {
	Name string
	// MIME is the encoded format: image/png, image/jpeg or image/webp.
	MIME string
	// Data is the encoded image payload. A nil Data with a non-empty URI
	// means the image lives outside the container and is carried through
	// untouched.
	Data []byte
	// URI is the external reference for images the loader could not or
	// did not inline.
	URI string
}

// Material holds the channel bindings of one material. The shading
// parameters are carried through opaque to the pipeline; only the texture
// bindings are inspected.
type Material struct {
	Name        string
	DoubleSided bool

	BaseColorFactor [4]float32
	MetallicFactor  float32
	RoughnessFactor float32
	EmissiveFactor  [3]float32

	// Textures maps a channel to an index into Asset.Textures, absent
	// when the channel is unbound.
	Textures map[Channel]int
}

// MeshPart is one drawable primitive bound to a material.
type MeshPart struct {
	Name string
	// Material indexes Asset.Materials; -1 when unbound.
	Material int
	Geometry *mesh.Part
}

// Node is one element of the asset part tree.
type Node struct {
	Name     string
	Children []*Node
	Parts    []*MeshPart

	// Raw node transform, carried through unmodified.
	Matrix      [16]float32
	Translation [3]float32
	Rotation    [4]float32
	Scale       [3]float32
	HasTRS      bool
	HasMatrix   bool
}

// Asset is a fully decoded, traversable 3D asset.
type Asset struct {
	Name      string
	Roots     []*Node
	Materials []*Material
	Textures  []*Texture
}

// Walk visits every node of the tree depth first, children before
// siblings.
func (a *Asset) Walk(visit func(*Node)) {
	var walk func(*Node)
	walk = func(n *Node) {
		visit(n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range a.Roots {
		walk(r)
	}
}

// Parts returns every mesh part of the asset in traversal order.
func (a *Asset) Parts() []*MeshPart {
	var parts []*MeshPart
	a.Walk(func(n *Node) {
		parts = append(parts, n.Parts...)
	})
	return parts
}

// TriangleCount returns the total triangle count across all parts.
func (a *Asset) TriangleCount() int {
	total := 0
	for _, p := range a.Parts() {
		if p.Geometry != nil {
			total += p.Geometry.TriangleCount()
		}
	}
	return total
}

// VertexCount returns the total vertex count across all parts.
func (a *Asset) VertexCount() int {
	total := 0
	for _, p := range a.Parts() {
		if p.Geometry != nil {
			total += p.Geometry.VertexCount()
		}
	}
	return total
}
