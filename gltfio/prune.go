package gltfio

import (
	"github.com/qmuntal/gltf"
)

// Prune drops meshes no node uses, then every accessor and buffer view
// left without a user, and packs the loaded buffers so the dropped bytes
// are not written. VRM 0.x documents keep all meshes, their humanoid
// extension addresses meshes by index.
func (e *Exporter) Prune() {
	doc := e.Model.Doc
	if _, vrm0 := doc.Extensions[extVRM0]; !vrm0 {
		pruneMeshes(doc)
	}
	pruneAccessors(doc)
	pruneBufferViews(doc)
	packBuffers(doc)
}

// compaction returns the new index of every used slot, -1 for the others.
func compaction(used []bool) []int {
	remap := make([]int, len(used))
	next := 0
	for i, u := range used {
		if u {
			remap[i] = next
			next++
		} else {
			remap[i] = -1
		}
	}
	return remap
}

func compact[T any](items []T, remap []int) []T {
	out := items[:0]
	for i, it := range items {
		if remap[i] >= 0 {
			out = append(out, it)
		}
	}
	for i := len(out); i < len(items); i++ {
		var zero T
		items[i] = zero
	}
	return out
}

func moved(idx *uint32, remap []int) *uint32 {
	if idx == nil || int(*idx) >= len(remap) || remap[*idx] < 0 {
		return nil
	}
	return gltf.Index(uint32(remap[*idx]))
}

func mark(used []bool, idx *uint32) {
	if idx != nil && int(*idx) < len(used) {
		used[*idx] = true
	}
}

func pruneMeshes(doc *gltf.Document) {
	used := make([]bool, len(doc.Meshes))
	for _, n := range doc.Nodes {
		mark(used, n.Mesh)
	}
	remap := compaction(used)
	for _, n := range doc.Nodes {
		n.Mesh = moved(n.Mesh, remap)
	}
	doc.Meshes = compact(doc.Meshes, remap)
}

func pruneAccessors(doc *gltf.Document) {
	used := make([]bool, len(doc.Accessors))
	eachAccessor(doc, func(idx *uint32) *uint32 {
		mark(used, idx)
		return idx
	})
	remap := compaction(used)
	eachAccessor(doc, func(idx *uint32) *uint32 {
		return moved(idx, remap)
	})
	doc.Accessors = compact(doc.Accessors, remap)
}

// eachAccessor replaces every accessor reference of doc with f's result.
func eachAccessor(doc *gltf.Document, f func(*uint32) *uint32) {
	attrs := func(a gltf.Attribute) {
		for k, v := range a {
			if idx := f(gltf.Index(v)); idx != nil {
				a[k] = *idx
			}
		}
	}
	for _, m := range doc.Meshes {
		for _, p := range m.Primitives {
			attrs(p.Attributes)
			for _, t := range p.Targets {
				attrs(t)
			}
			p.Indices = f(p.Indices)
		}
	}
	for _, s := range doc.Skins {
		s.InverseBindMatrices = f(s.InverseBindMatrices)
	}
	for _, a := range doc.Animations {
		for _, s := range a.Samplers {
			s.Input = f(s.Input)
			s.Output = f(s.Output)
		}
	}
}

func pruneBufferViews(doc *gltf.Document) {
	used := make([]bool, len(doc.BufferViews))
	for _, a := range doc.Accessors {
		mark(used, a.BufferView)
		if a.Sparse != nil {
			mark(used, &a.Sparse.Indices.BufferView)
			mark(used, &a.Sparse.Values.BufferView)
		}
	}
	for _, img := range doc.Images {
		mark(used, img.BufferView)
	}
	remap := compaction(used)
	for _, a := range doc.Accessors {
		a.BufferView = moved(a.BufferView, remap)
		if a.Sparse != nil {
			a.Sparse.Indices.BufferView = uint32(remap[a.Sparse.Indices.BufferView])
			a.Sparse.Values.BufferView = uint32(remap[a.Sparse.Values.BufferView])
		}
	}
	for _, img := range doc.Images {
		img.BufferView = moved(img.BufferView, remap)
	}
	doc.BufferViews = compact(doc.BufferViews, remap)
}

// packBuffers rewrites each loaded buffer to hold only the bytes of its
// views, in view order, 4 byte aligned.
func packBuffers(doc *gltf.Document) {
	for iBuf, b := range doc.Buffers {
		var views []*gltf.BufferView
		loaded := len(b.Data) == int(b.ByteLength)
		for _, v := range doc.BufferViews {
			if int(v.Buffer) != iBuf {
				continue
			}
			if int(v.ByteOffset)+int(v.ByteLength) > len(b.Data) {
				loaded = false
			}
			views = append(views, v)
		}
		if !loaded || len(views) == 0 {
			continue
		}

		data := make([]byte, 0, len(b.Data))
		for _, v := range views {
			for len(data)%4 != 0 {
				data = append(data, 0)
			}
			offset := len(data)
			data = append(data, b.Data[v.ByteOffset:v.ByteOffset+v.ByteLength]...)
			v.ByteOffset = uint32(offset)
		}
		b.Data = data
		b.ByteLength = uint32(len(data))
		if b.IsEmbeddedResource() {
			// re-embedded from Data on encode
			b.URI = ""
		}
	}
}
