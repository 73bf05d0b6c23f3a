package layerdocx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Fixed part names of a layered package.
const (
	PartContentTypes = "[Content_Types].xml"
	PartRootRels     = "_rels/.rels"
	PartDocumentRels = "word/_rels/document.xml.rels"
	PartDocument     = "word/document.xml"
	PartRunInfo      = "docProps/layers.cbor"
	PartManifest     = "MANIFEST.txt"

	embeddingsDir = "word/embeddings/"

	relIDBase = 100

	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsWordMain      = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsDocRels       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relTypeOfficeDocument = nsDocRels + "/officeDocument"
	relTypeOLEObject      = nsDocRels + "/oleObject"
	relTypeManifest       = "http://schemas.layerdocx.dev/2026/relationships/manifest"
	relTypeRunInfo        = "http://schemas.layerdocx.dev/2026/relationships/runInfo"

	ctDescriptor = "application/vnd.layerdocx.descriptor+xml"
	ctMain       = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// DescriptorName is the entry name of layer i's XML descriptor.
func DescriptorName(i int) string {
	return fmt.Sprintf("%soleObject%d.xml", embeddingsDir, i)
}

// PayloadName is the entry name of layer i's payload under comp.
func PayloadName(i int, comp Compression) string {
	name := fmt.Sprintf("%soleObject%d.bin", embeddingsDir, i)
	switch comp {
	case CompLZ4:
		name += suffixLZ4
	case CompBR:
		name += suffixBR
	}
	return name
}

func contentTypesXML(run *RunMetadata, runInfo bool) []byte {
	var b bytes.Buffer
	b.WriteString(xmlDeclaration)
	fmt.Fprintf(&b, "<Types xmlns=%q>\n", nsContentTypes)
	defaults := [][2]string{
		{"rels", "application/vnd.openxmlformats-package.relationships+xml"},
		{"xml", "application/xml"},
		{"bin", "application/vnd.openxmlformats-officedocument.oleObject"},
		{"lz4", "application/x-lz4"},
		{"br", "application/x-brotli"},
		{"txt", "text/plain"},
	}
	if runInfo {
		defaults = append(defaults, [2]string{"cbor", "application/cbor"})
	}
	for _, d := range defaults {
		fmt.Fprintf(&b, "  <Default Extension=%q ContentType=%q/>\n", d[0], d[1])
	}
	fmt.Fprintf(&b, "  <Override PartName=%q ContentType=%q/>\n", "/"+PartDocument, ctMain)
	for _, l := range run.Layers {
		fmt.Fprintf(&b, "  <Override PartName=%q ContentType=%q/>\n", "/"+DescriptorName(l.Index), ctDescriptor)
	}
	b.WriteString("</Types>")
	return b.Bytes()
}

func rootRelsXML(runInfo bool) []byte {
	var b bytes.Buffer
	b.WriteString(xmlDeclaration)
	fmt.Fprintf(&b, "<Relationships xmlns=%q>\n", nsRelationships)
	fmt.Fprintf(&b, "  <Relationship Id=\"rId1\" Type=%q Target=%q/>\n", relTypeOfficeDocument, PartDocument)
	fmt.Fprintf(&b, "  <Relationship Id=\"rId2\" Type=%q Target=%q/>\n", relTypeManifest, PartManifest)
	if runInfo {
		fmt.Fprintf(&b, "  <Relationship Id=\"rId3\" Type=%q Target=%q/>\n", relTypeRunInfo, PartRunInfo)
	}
	b.WriteString("</Relationships>")
	return b.Bytes()
}

func documentRelsXML(run *RunMetadata, comp Compression) []byte {
	var b bytes.Buffer
	b.WriteString(xmlDeclaration)
	fmt.Fprintf(&b, "<Relationships xmlns=%q>\n", nsRelationships)
	for _, l := range run.Layers {
		target := strings.TrimPrefix(PayloadName(l.Index, comp), "word/")
		fmt.Fprintf(&b, "  <Relationship Id=\"rId%d\" Type=%q Target=%q/>\n", l.Index+relIDBase, relTypeOLEObject, target)
	}
	b.WriteString("</Relationships>")
	return b.Bytes()
}

func documentXML(run *RunMetadata) []byte {
	cfg := run.Config
	var b bytes.Buffer
	b.WriteString(xmlDeclaration)
	fmt.Fprintf(&b, "<w:document xmlns:w=%q xmlns:r=%q>\n<w:body>\n", nsWordMain, nsDocRels)
	writeParagraph(&b, fmt.Sprintf("%s: layered package %s", cfg.Name, cfg.Version))
	writeParagraph(&b, fmt.Sprintf("E(d) = E0 exp(-%v d) | alpha=%v", cfg.Alpha, cfg.Alpha))
	writeParagraph(&b, fmt.Sprintf("Layers: %d | Cascade Factor: %.2fx", cfg.LayerCount, run.CascadeFactor))
	for _, l := range run.Layers {
		fmt.Fprintf(&b, "<w:p><w:r><w:object r:id=\"rId%d\"/></w:r></w:p>\n", l.Index+relIDBase)
		fmt.Fprintf(&b, "<!-- L%d: Energy=%.6f -->\n", l.Index, l.Energy)
	}
	b.WriteString("</w:body>\n</w:document>")
	return b.Bytes()
}

func writeParagraph(b *bytes.Buffer, text string) {
	b.WriteString("<w:p><w:r><w:t>")
	_ = xml.EscapeText(b, []byte(text))
	b.WriteString("</w:t></w:r></w:p>\n")
}
