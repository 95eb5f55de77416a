package earthengine

import (
	"encoding/json"
	"strconv"
)

type nodeKind int

const (
	constantNode nodeKind = iota
	invocationNode
	arrayNode
	argumentNode
	functionNode
)

// node is one value of a lazy Earth Engine expression graph.
type node struct {
	kind     nodeKind
	constant interface{}
	function string
	args     map[string]*node
	items    []*node
	argNames []string
	body     *node
}

func constant(v interface{}) *node {
	return &node{kind: constantNode, constant: v}
}

func invoke(function string, args map[string]*node) *node {
	return &node{kind: invocationNode, function: function, args: args}
}

func array(items ...*node) *node {
	return &node{kind: arrayNode, items: items}
}

func argument(name string) *node {
	return &node{kind: argumentNode, argNames: []string{name}}
}

func function(argNames []string, body *node) *node {
	return &node{kind: functionNode, argNames: argNames, body: body}
}

// Expression is the wire form of a graph: a table of values and the id of
// the result. Identical sub-expressions share one table entry.
type Expression struct {
	Result string                 `json:"result"`
	Values map[string]interface{} `json:"values"`
}

func serialize(root *node) Expression {
	s := &serializer{values: map[string]interface{}{}, ids: map[string]string{}}
	return Expression{Result: s.ref(root), Values: s.values}
}

type serializer struct {
	values map[string]interface{}
	ids    map[string]string
}

// ref stores the encoded node in the value table and returns its id.
func (s *serializer) ref(n *node) string {
	encoded := s.encode(n)
	if ref, ok := encoded["valueReference"]; ok {
		return ref.(string)
	}
	return s.store(encoded)
}

func (s *serializer) store(encoded map[string]interface{}) string {
	// encoding/json sorts map keys, so equal values marshal identically.
	raw, _ := json.Marshal(encoded)
	if id, ok := s.ids[string(raw)]; ok {
		return id
	}
	id := strconv.Itoa(len(s.values))
	s.values[id] = encoded
	s.ids[string(raw)] = id
	return id
}

func (s *serializer) encode(n *node) map[string]interface{} {
	switch n.kind {
	case constantNode:
		return map[string]interface{}{"constantValue": n.constant}
	case arrayNode:
		values := make([]interface{}, len(n.items))
		for i, item := range n.items {
			values[i] = s.encode(item)
		}
		return map[string]interface{}{"arrayValue": map[string]interface{}{"values": values}}
	case argumentNode:
		return map[string]interface{}{"argumentReference": n.argNames[0]}
	case functionNode:
		return map[string]interface{}{"functionDefinitionValue": map[string]interface{}{
			"argumentNames": n.argNames,
			"body":          s.ref(n.body),
		}}
	}

	args := make(map[string]interface{}, len(n.args))
	for name, arg := range n.args {
		args[name] = s.encode(arg)
	}
	id := s.store(map[string]interface{}{"functionInvocationValue": map[string]interface{}{
		"functionName": n.function,
		"arguments":    args,
	}})
	return map[string]interface{}{"valueReference": id}
}
