package assets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/avendale/lodforge/pkg/mesh"
)

// Load reads a glTF binary (or JSON) asset from disk and decodes it into
// the in-memory model. Failures here are fatal for the asset.
func Load(path string) (*Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading asset %s: %w", path, err)
	}

	a := &Asset{Name: BaseName(path)}
	dir := filepath.Dir(path)

	for i, tex := range doc.Textures {
		a.Textures = append(a.Textures, decodeTexture(doc, tex, i, dir))
	}

	for _, mat := range doc.Materials {
		m, err := decodeMaterial(mat, len(a.Textures))
		if err != nil {
			return nil, fmt.Errorf("loading asset %s: %w", path, err)
		}
		a.Materials = append(a.Materials, m)
	}

	roots := sceneRoots(doc)
	visited := make(map[uint32]bool)
	for _, root := range roots {
		n, err := decodeNode(doc, root, visited)
		if err != nil {
			return nil, fmt.Errorf("loading asset %s: %w", path, err)
		}
		if n != nil {
			a.Roots = append(a.Roots, n)
		}
	}

	if len(a.Roots) == 0 {
		return nil, fmt.Errorf("loading asset %s: %w", path, ErrNoGeometry)
	}
	return a, nil
}

// BaseName returns the asset identifier for a source path: the file name
// without its extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sceneRoots returns the node indices of the default scene, falling back
// to every unparented node.
func sceneRoots(doc *gltf.Document) []uint32 {
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}

	isChild := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !isChild[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func decodeNode(doc *gltf.Document, index uint32, visited map[uint32]bool) (*Node, error) {
	if int(index) >= len(doc.Nodes) || visited[index] {
		return nil, nil
	}
	visited[index] = true
	src := doc.Nodes[index]

	n := &Node{
		Name:        src.Name,
		Matrix:      src.Matrix,
		Translation: src.Translation,
		Rotation:    src.Rotation,
		Scale:       src.Scale,
		HasMatrix:   true,
		HasTRS:      true,
	}

	if src.Mesh != nil && int(*src.Mesh) < len(doc.Meshes) {
		m := doc.Meshes[*src.Mesh]
		for pi, prim := range m.Primitives {
			part, err := decodePrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", m.Name, pi, err)
			}
			if part == nil {
				continue
			}
			if part.Name == "" {
				part.Name = fmt.Sprintf("%s/%d", m.Name, pi)
			}
			n.Parts = append(n.Parts, part)
		}
	}

	for _, child := range src.Children {
		c, err := decodeNode(doc, child, visited)
		if err != nil {
			return nil, err
		}
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n, nil
}

func decodePrimitive(doc *gltf.Document, prim *gltf.Primitive) (*MeshPart, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil // no drawable geometry
	}
	if int(posIdx) >= len(doc.Accessors) {
		return nil, fmt.Errorf("position accessor %d out of range", posIdx)
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	geo := &mesh.Part{Positions: positions}

	if prim.Indices != nil && int(*prim.Indices) < len(doc.Accessors) {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
		geo.Indices = indices
	}

	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok && int(normIdx) < len(doc.Accessors) {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		if len(normals) == len(positions) {
			geo.Normals = normals
		}
	}

	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok && int(uvIdx) < len(doc.Accessors) {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("reading texcoords: %w", err)
		}
		if len(uvs) == len(positions) {
			geo.TexCoords = uvs
		}
	}

	part := &MeshPart{Material: -1, Geometry: geo}
	if prim.Material != nil {
		part.Material = int(*prim.Material)
	}
	return part, nil
}

func decodeMaterial(src *gltf.Material, textureCount int) (*Material, error) {
	m := &Material{
		Name:            src.Name,
		DoubleSided:     src.DoubleSided,
		BaseColorFactor: [4]float32{1, 1, 1, 1},
		MetallicFactor:  1,
		RoughnessFactor: 1,
		EmissiveFactor:  src.EmissiveFactor,
		Textures:        make(map[Channel]int),
	}

	bind := func(ch Channel, idx uint32) error {
		if int(idx) >= textureCount {
			return fmt.Errorf("%w: %s -> %d", ErrBadTextureRef, ch, idx)
		}
		m.Textures[ch] = int(idx)
		return nil
	}

	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			m.BaseColorFactor = *pbr.BaseColorFactor
		}
		if pbr.MetallicFactor != nil {
			m.MetallicFactor = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			m.RoughnessFactor = *pbr.RoughnessFactor
		}
		if pbr.BaseColorTexture != nil {
			if err := bind(ChannelBaseColor, pbr.BaseColorTexture.Index); err != nil {
				return nil, err
			}
		}
		if pbr.MetallicRoughnessTexture != nil {
			if err := bind(ChannelMetallicRoughness, pbr.MetallicRoughnessTexture.Index); err != nil {
				return nil, err
			}
		}
	}
	if src.NormalTexture != nil && src.NormalTexture.Index != nil {
		if err := bind(ChannelNormal, *src.NormalTexture.Index); err != nil {
			return nil, err
		}
	}
	if src.OcclusionTexture != nil && src.OcclusionTexture.Index != nil {
		if err := bind(ChannelOcclusion, *src.OcclusionTexture.Index); err != nil {
			return nil, err
		}
	}
	if src.EmissiveTexture != nil {
		if err := bind(ChannelEmissive, src.EmissiveTexture.Index); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func decodeTexture(doc *gltf.Document, tex *gltf.Texture, index int, dir string) *Texture {
	t := &Texture{Name: fmt.Sprintf("texture_%d", index)}
	if tex.Name != "" {
		t.Name = tex.Name
	}
	if tex.Source == nil || int(*tex.Source) >= len(doc.Images) {
		return t
	}

	img := doc.Images[*tex.Source]
	if img.Name != "" {
		t.Name = img.Name
	}
	t.MIME = img.MimeType

	switch {
	case img.BufferView != nil:
		if data := bufferViewData(doc, *img.BufferView); data != nil {
			t.Data = append([]byte(nil), data...)
		}
	case img.URI != "" && !strings.HasPrefix(img.URI, "data:"):
		if data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(img.URI))); err == nil {
			t.Data = data
		} else {
			t.URI = img.URI
		}
	case img.URI != "":
		t.URI = img.URI // data URIs are carried through untouched
	}

	if t.MIME == "" && t.Data != nil {
		t.MIME = SniffMIME(t.Data)
	}
	return t
}

// bufferViewData returns the raw bytes of a buffer view, or nil when the
// reference is out of range.
func bufferViewData(doc *gltf.Document, index uint32) []byte {
	if int(index) >= len(doc.BufferViews) {
		return nil
	}
	bv := doc.BufferViews[index]
	if int(bv.Buffer) >= len(doc.Buffers) {
		return nil
	}
	data := doc.Buffers[bv.Buffer].Data
	start := int(bv.ByteOffset)
	end := start + int(bv.ByteLength)
	if start < 0 || end > len(data) {
		return nil
	}
	return data[start:end]
}

// SniffMIME detects the image format from magic bytes.
func SniffMIME(data []byte) string {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		return "image/png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return ""
	}
}
