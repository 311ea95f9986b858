package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"adwords-report/naming"
)

const (
	nsEnvelope = "http://schemas.xmlsoap.org/soap/envelope/"
	nsXSI      = "http://www.w3.org/2001/XMLSchema-instance"

	// TypeKey in a request payload becomes the xsi:type attribute of the
	// enclosing element.
	TypeKey = "xsi_type"
)

// Field is one element of an ordered payload.
type Field struct {
	Name  string
	Value any
}

// Fields is a payload whose elements are encoded in the given order. Plain
// maps are encoded with sorted keys.
type Fields []Field

// Header is the request header sent with every operation.
type Header struct {
	AuthToken        string
	ClientEmail      string
	ClientCustomerID string
	DeveloperToken   string
	UserAgent        string
}

func (h Header) fields() Fields {
	return Fields{
		{"authToken", h.AuthToken},
		{"clientCustomerId", h.ClientCustomerID},
		{"clientEmail", h.ClientEmail},
		{"developerToken", h.DeveloperToken},
		{"userAgent", h.UserAgent},
	}
}

// buildEnvelope renders operation with request as a document/literal SOAP
// envelope. Both account identifiers are always present in the header,
// empty when unset.
func buildEnvelope(svc Service, h Header, operation string, request any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	e := &encoder{enc: enc}

	e.start("soapenv:Envelope",
		xml.Attr{Name: xml.Name{Local: "xmlns:soapenv"}, Value: nsEnvelope},
		xml.Attr{Name: xml.Name{Local: "xmlns:xsi"}, Value: nsXSI},
	)
	e.start("soapenv:Header")
	if svc.Legacy() {
		for _, f := range h.fields() {
			e.start(f.Name, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: svc.Namespace()})
			e.text(f.Value.(string))
			e.end(f.Name)
		}
	} else {
		e.start("RequestHeader", xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: svc.Namespace()})
		for _, f := range h.fields() {
			e.leaf(f.Name, f.Value.(string))
		}
		e.end("RequestHeader")
	}
	e.end("soapenv:Header")

	e.start("soapenv:Body")
	e.start(operation, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: svc.Namespace()})
	if request != nil {
		e.children(request)
	}
	e.end(operation)
	e.end("soapenv:Body")
	e.end("soapenv:Envelope")

	if e.err == nil {
		e.err = enc.Flush()
	}
	if e.err != nil {
		return nil, fmt.Errorf("soap: encode %s: %w", operation, e.err)
	}
	return buf.Bytes(), nil
}

// encoder keeps the first error so the envelope can be written without
// checking every token.
type encoder struct {
	enc *xml.Encoder
	err error
}

func (e *encoder) token(t xml.Token) {
	if e.err == nil {
		e.err = e.enc.EncodeToken(t)
	}
}

func (e *encoder) start(name string, attrs ...xml.Attr) {
	e.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (e *encoder) end(name string) {
	e.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (e *encoder) text(s string) {
	if s != "" {
		e.token(xml.CharData(s))
	}
}

func (e *encoder) leaf(name, value string) {
	e.start(name)
	e.text(value)
	e.end(name)
}

// children writes the entries of a map or Fields value as child elements.
func (e *encoder) children(v any) {
	switch t := v.(type) {
	case Fields:
		for _, f := range t {
			if f.Name != TypeKey {
				e.element(naming.ToCamel(f.Name), f.Value)
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			if k != TypeKey {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			e.element(naming.ToCamel(k), t[k])
		}
	default:
		if e.err == nil {
			e.err = fmt.Errorf("unsupported payload %T", v)
		}
	}
}

// element writes value under name. Slices repeat the element; maps and
// Fields nest.
func (e *encoder) element(name string, value any) {
	switch t := value.(type) {
	case nil:
		return
	case Fields:
		e.start(name, typeAttr(t)...)
		e.children(t)
		e.end(name)
		return
	case map[string]any:
		e.start(name, typeAttr(t)...)
		e.children(t)
		e.end(name)
		return
	case string:
		e.leaf(name, t)
		return
	case bool:
		e.leaf(name, strconv.FormatBool(t))
		return
	case fmt.Stringer:
		e.leaf(name, t.String())
		return
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			e.element(name, rv.Index(i).Interface())
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.leaf(name, strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		e.leaf(name, strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		e.leaf(name, strconv.FormatFloat(rv.Float(), 'f', -1, 64))
	default:
		if e.err == nil {
			e.err = fmt.Errorf("unsupported value %T for element %s", value, name)
		}
	}
}

func typeAttr(v any) []xml.Attr {
	var typ any
	switch t := v.(type) {
	case Fields:
		for _, f := range t {
			if f.Name == TypeKey {
				typ = f.Value
			}
		}
	case map[string]any:
		typ = t[TypeKey]
	}
	s, ok := typ.(string)
	if !ok || s == "" {
		return nil
	}
	return []xml.Attr{{Name: xml.Name{Local: "xsi:type"}, Value: s}}
}
