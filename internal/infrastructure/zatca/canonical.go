package zatca

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
)

// Options modo de cálculo del hash.
type Options struct {
	// SkipTransform no elimina UBLExtensions, QR ni cac:Signature: el documento ya viene
	// limpio (XML devuelto por clearance).
	SkipTransform bool
}

// HashResult digest del subárbol canónico en sus dos codificaciones.
type HashResult struct {
	Hex       string // hex del SHA-256
	Base64    string // base64 del digest crudo; es el valor que viaja como PIH
	Canonical []byte // bytes C14N sobre los que se calculó el digest
	Stripped  []byte // XML transformado (con declaración) que se guarda como artefacto
}

// Canonicalizer elimina los subárboles de firma y QR y calcula el hash canónico.
type Canonicalizer struct{}

// NewCanonicalizer crea el servicio.
func NewCanonicalizer() *Canonicalizer {
	return &Canonicalizer{}
}

// Strip elimina de root: todo UBLExtensions, toda AdditionalDocumentReference con
// cbc:ID = QR y los cac:Signature hijos directos de Invoice.
func (c *Canonicalizer) Strip(root *etree.Element) {
	if root == nil {
		return
	}
	for _, el := range descendantsByLocal(root, "UBLExtensions") {
		el.Parent().RemoveChild(el)
	}
	for _, ref := range childrenByLocal(root, "AdditionalDocumentReference") {
		if docRefID(ref) == DocRefQR {
			root.RemoveChild(ref)
		}
	}
	for _, sig := range childrenByLocal(root, "Signature") {
		root.RemoveChild(sig)
	}
}

// HashDocument calcula el hash sobre una copia de doc; doc no se modifica.
func (c *Canonicalizer) HashDocument(doc *etree.Document) (*HashResult, error) {
	if doc == nil || doc.Root() == nil {
		return nil, fmt.Errorf("zatca: documento sin raíz")
	}
	return c.hashRoot(doc.Copy().Root(), Options{})
}

// HashXML interpreta data y calcula su hash.
func (c *Canonicalizer) HashXML(data []byte, opts Options) (*HashResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("zatca: parsear XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("zatca: documento sin raíz")
	}
	return c.hashRoot(doc.Root(), opts)
}

func (c *Canonicalizer) hashRoot(root *etree.Element, opts Options) (*HashResult, error) {
	if !opts.SkipTransform {
		c.Strip(root)
	}

	// Solo el elemento raíz: la declaración XML no forma parte del documento canónico.
	body := etree.NewDocument()
	body.SetRoot(root)
	raw, err := body.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("zatca: serializar XML: %w", err)
	}
	canonical, err := canonicalize(raw)
	if err != nil {
		return nil, fmt.Errorf("zatca: canonicalizar XML: %w", err)
	}
	sum := sha256.Sum256(canonical)

	stripped := append([]byte(xml.Header), raw...)
	return &HashResult{
		Hex:       hex.EncodeToString(sum[:]),
		Base64:    base64.StdEncoding.EncodeToString(sum[:]),
		Canonical: canonical,
		Stripped:  stripped,
	}, nil
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// ── Navegación por nombre local ─────────────────────────────────────────────

func childrenByLocal(parent *etree.Element, local string) []*etree.Element {
	if parent == nil {
		return nil
	}
	var out []*etree.Element
	for _, ch := range parent.ChildElements() {
		if ch.Tag == local {
			out = append(out, ch)
		}
	}
	return out
}

func firstByLocal(parent *etree.Element, local string) *etree.Element {
	if els := childrenByLocal(parent, local); len(els) > 0 {
		return els[0]
	}
	return nil
}

func descendantsByLocal(parent *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, ch := range parent.ChildElements() {
		if ch.Tag == local {
			out = append(out, ch)
			continue
		}
		out = append(out, descendantsByLocal(ch, local)...)
	}
	return out
}

// docRefID cbc:ID de una AdditionalDocumentReference con espacios normalizados.
func docRefID(ref *etree.Element) string {
	id := firstByLocal(ref, "ID")
	if id == nil {
		return ""
	}
	return strings.Join(strings.Fields(id.Text()), " ")
}
