// Package evaluator resolves expression placeholders inside JSON
// documents. Action parameters and per-charm context overrides may carry
// `{"expression": "$.database.host"}` envelopes instead of literal values,
// the evaluator walks the document and substitutes each expression with the
// result of the callback, usually a JSONPath lookup over the current
// reconcile context.
package evaluator

import (
	"fmt"

	"github.com/spyzhov/ajson"
)

type Callback func(expression string) (interface{}, error)

var DefaultCallback Callback = func(expression string) (interface{}, error) {
	return nil, fmt.Errorf("not implemented")
}

type Evaluator struct {
	callback Callback
}

func NewEvaluator(callback Callback) *Evaluator {
	if callback == nil {
		callback = DefaultCallback
	}
	return &Evaluator{callback: callback}
}

// ContextCallback returns a callback evaluating JSONPath expressions
// against a document, the usual wiring for action parameters.
func ContextCallback(doc []byte) (Callback, error) {
	root, err := ajson.Unmarshal(doc)
	if err != nil {
		return nil, err
	}
	return func(expression string) (interface{}, error) {
		if expression == "" {
			return nil, fmt.Errorf("expression is empty")
		}
		result, err := ajson.Eval(root, expression)
		if err != nil {
			return nil, err
		}
		return result.Unpack()
	}, nil
}

// Eval parses the document and substitutes every expression envelope.
func (c *Evaluator) Eval(data []byte) (interface{}, error) {
	root, err := ajson.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if !root.IsObject() {
		return nil, fmt.Errorf("node is not an object it is %v %s", root.Type(), string(data))
	}
	return c.calculateResult(root)
}

func (c *Evaluator) calculateResult(valNode *ajson.Node) (interface{}, error) {
	if valNode == nil {
		return nil, nil
	}

	if valNode.IsObject() {
		o := valNode.MustObject()
		// expression envelope: {"expression": ..., "value": ...}
		if len(o) == 2 {
			if expression, ok := o["expression"]; ok {
				if expr, _ := expression.GetString(); expr != "" {
					return c.callback(expr)
				}
				if inner, ok := o["value"]; ok {
					return c.calculateResult(inner)
				}
			}
		}
		m := map[string]interface{}{}
		for _, propName := range valNode.Keys() {
			propNode, err := valNode.GetKey(propName)
			if err != nil {
				return nil, err
			}
			res, err := c.calculateResult(propNode)
			if err != nil {
				return nil, err
			}
			m[propName] = res
		}
		return m, nil
	}

	if valNode.IsArray() {
		inheritors := valNode.Inheritors()
		m := make([]interface{}, len(inheritors))
		for idx, node := range inheritors {
			val, err := c.calculateResult(node)
			if err != nil {
				return nil, err
			}
			m[idx] = val
		}
		return m, nil
	}
	return valNode.Unpack()
}
