package assets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var identityMatrix = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Write encodes the asset as a glTF binary artifact at path, creating the
// parent directory if needed.
func Write(a *Asset, path string) error {
	if a == nil {
		return fmt.Errorf("writing asset %s: nil asset", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("writing asset %s: %w", path, err)
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "lodforge"
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: a.Name})
		doc.Scene = gltf.Index(0)
	}

	for _, t := range a.Textures {
		if err := encodeTexture(doc, t); err != nil {
			return fmt.Errorf("writing asset %s: %w", path, err)
		}
	}
	for _, m := range a.Materials {
		doc.Materials = append(doc.Materials, encodeMaterial(m))
	}
	for _, root := range a.Roots {
		idx := encodeNode(doc, root)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, idx)
	}

	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("writing asset %s: %w", path, err)
	}
	return nil
}

func encodeTexture(doc *gltf.Document, t *Texture) error {
	var imgIdx uint32
	if t.Data != nil {
		mime := t.MIME
		if mime == "" {
			mime = SniffMIME(t.Data)
		}
		idx, err := modeler.WriteImage(doc, t.Name, mime, bytes.NewReader(t.Data))
		if err != nil {
			return fmt.Errorf("embedding image %q: %w", t.Name, err)
		}
		imgIdx = idx
	} else {
		doc.Images = append(doc.Images, &gltf.Image{
			Name:     t.Name,
			URI:      t.URI,
			MimeType: t.MIME,
		})
		imgIdx = uint32(len(doc.Images) - 1)
	}

	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:   t.Name,
		Source: gltf.Index(imgIdx),
	})
	return nil
}

func encodeMaterial(m *Material) *gltf.Material {
	baseColor := m.BaseColorFactor
	metallic := m.MetallicFactor
	roughness := m.RoughnessFactor

	out := &gltf.Material{
		Name:        m.Name,
		DoubleSided: m.DoubleSided,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &baseColor,
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
		EmissiveFactor: m.EmissiveFactor,
	}

	if idx, ok := m.Textures[ChannelBaseColor]; ok {
		out.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: uint32(idx)}
	}
	if idx, ok := m.Textures[ChannelMetallicRoughness]; ok {
		out.PBRMetallicRoughness.MetallicRoughnessTexture = &gltf.TextureInfo{Index: uint32(idx)}
	}
	if idx, ok := m.Textures[ChannelNormal]; ok {
		out.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(uint32(idx))}
	}
	if idx, ok := m.Textures[ChannelOcclusion]; ok {
		out.OcclusionTexture = &gltf.OcclusionTexture{Index: gltf.Index(uint32(idx))}
	}
	if idx, ok := m.Textures[ChannelEmissive]; ok {
		out.EmissiveTexture = &gltf.TextureInfo{Index: uint32(idx)}
	}
	return out
}

func encodeNode(doc *gltf.Document, n *Node) uint32 {
	gn := &gltf.Node{
		Name:     n.Name,
		Matrix:   identityMatrix,
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
	if n.HasMatrix {
		gn.Matrix = n.Matrix
	}
	if n.HasTRS {
		gn.Translation = n.Translation
		gn.Rotation = n.Rotation
		gn.Scale = n.Scale
	}

	if len(n.Parts) > 0 {
		gm := &gltf.Mesh{Name: n.Name}
		for _, p := range n.Parts {
			gm.Primitives = append(gm.Primitives, encodePrimitive(doc, p))
		}
		doc.Meshes = append(doc.Meshes, gm)
		gn.Mesh = gltf.Index(uint32(len(doc.Meshes) - 1))
	}

	for _, child := range n.Children {
		childIdx := encodeNode(doc, child)
		gn.Children = append(gn.Children, childIdx)
	}

	doc.Nodes = append(doc.Nodes, gn)
	return uint32(len(doc.Nodes) - 1)
}

func encodePrimitive(doc *gltf.Document, p *MeshPart) *gltf.Primitive {
	geo := p.Geometry
	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, geo.Positions),
		},
	}
	if geo.Normals != nil {
		prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, geo.Normals)
	}
	if geo.TexCoords != nil {
		prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, geo.TexCoords)
	}
	if len(geo.Indices) > 0 {
		prim.Indices = gltf.Index(modeler.WriteIndices(doc, geo.Indices))
	}
	if p.Material >= 0 && p.Material < len(doc.Materials) {
		prim.Material = gltf.Index(uint32(p.Material))
	}
	return prim
}
