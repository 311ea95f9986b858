package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"adwords-report/naming"
	"adwords-report/report"
)

// node is a generic XML element.
type node struct {
	name     string
	xsiType  string
	children []*node
	text     strings.Builder
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// value converts n into a string (leaf) or a map (element with children).
// Repeated child names become []any in document order.
func (n *node) value() any {
	if len(n.children) == 0 && n.xsiType == "" {
		return strings.TrimSpace(n.text.String())
	}
	m := make(map[string]any, len(n.children)+1)
	if n.xsiType != "" {
		m[TypeKey] = n.xsiType
	}
	for _, c := range n.children {
		v := c.value()
		switch prev := m[c.name].(type) {
		case nil:
			m[c.name] = v
		case []any:
			m[c.name] = append(prev, v)
		default:
			m[c.name] = []any{prev, v}
		}
	}
	return m
}

func parseTree(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	var root *node
	var stack []*node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Local == "type" && a.Name.Space == nsXSI {
					n.xsiType = localPart(a.Value)
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("empty document")
	}
	return root, nil
}

func localPart(s string) string {
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// decodeResponse returns the content of the response element of operation,
// or the fault carried by the envelope.
func decodeResponse(operation string, data []byte) (report.Payload, *report.RemoteFault, error) {
	root, err := parseTree(data)
	if err != nil {
		return nil, nil, err
	}
	if root.name != "Envelope" {
		return nil, nil, fmt.Errorf("root element is %s, not Envelope", root.name)
	}
	body := root.child("Body")
	if body == nil {
		return nil, nil, errors.New("envelope has no Body")
	}
	if f := body.child("Fault"); f != nil {
		return nil, decodeFault(f), nil
	}
	if len(body.children) == 0 {
		return nil, nil, errors.New("empty Body")
	}
	resp := body.children[0]
	if want := operation + "Response"; resp.name != want {
		return nil, nil, fmt.Errorf("expected %s, got %s", want, resp.name)
	}
	switch v := resp.value().(type) {
	case map[string]any:
		return v, nil, nil
	default:
		return report.Payload{}, nil, nil
	}
}

// decodeFault reads faultstring and the first detail element. Both the
// v13 fault (code, message, trigger) and the ApiExceptionFault with its
// errors list are understood.
func decodeFault(f *node) *report.RemoteFault {
	fault := &report.RemoteFault{}
	if fs := f.child("faultstring"); fs != nil {
		fault.Message = strings.TrimSpace(fs.text.String())
	}
	detail := f.child("detail")
	if detail == nil || len(detail.children) == 0 {
		return fault
	}
	d, ok := detail.children[0].value().(map[string]any)
	if !ok {
		return fault
	}
	if s, ok := d["message"].(string); ok && s != "" {
		fault.Message = s
	}
	if s, ok := d["code"].(string); ok {
		if code, err := strconv.Atoi(s); err == nil {
			fault.Code = code
		}
	}
	if s, ok := d["trigger"].(string); ok {
		fault.Trigger = s
	}
	for _, e := range List(d["errors"]) {
		if m, ok := e.(map[string]any); ok {
			fault.Errors = append(fault.Errors, fieldError(m))
		}
	}
	return fault
}

func fieldError(m map[string]any) report.FieldError {
	fe := report.FieldError{Fields: map[string]string{}}
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch k {
		case TypeKey:
			fe.Type = s
			continue
		case "fieldPath":
			fe.FieldPath = s
		case "trigger":
			fe.Trigger = s
		case "reason":
			fe.Reason = s
		case "ApiError.Type":
			if fe.Type == "" {
				fe.Type = s
			}
			continue
		}
		fe.Fields[naming.ToSnake(k)] = s
	}
	return fe
}

// List returns v as a slice: a single element decodes as a scalar or map,
// repeated elements as []any.
func List(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}
