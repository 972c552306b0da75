package main

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

type jqFilter struct {
	source string
	code   *gojq.Code
}

func compileFilters(filters []string) ([]*jqFilter, error) {
	compiled := make([]*jqFilter, 0, len(filters))
	for _, filter := range filters {
		query, err := gojq.Parse(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
		}
		code, err := gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
		}
		compiled = append(compiled, &jqFilter{source: filter, code: code})
	}
	return compiled, nil
}

// toJQValue converts v into the generic JSON shape gojq operates on.
func toJQValue(v interface{}) (interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// matchAll reports whether every filter's first result is truthy for doc.
func matchAll(filters []*jqFilter, doc interface{}) (bool, error) {
	for _, f := range filters {
		iter := f.code.Run(doc)
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			return false, fmt.Errorf("jq filter %q: %w", f.source, err)
		}
		if !isTruthy(v) {
			return false, nil
		}
	}
	return true, nil
}

func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	// Everything else (numbers, strings, objects, arrays) is truthy
	return true
}
