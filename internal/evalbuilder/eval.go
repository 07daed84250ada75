package evalbuilder

import (
	"fmt"
	"sort"

	material "github.com/ChizhovVadim/lazysmp/pkg/eval/material"
	pesto "github.com/ChizhovVadim/lazysmp/pkg/eval/pesto"
)

var builders = map[string]func() interface{}{
	"material": func() interface{} { return material.NewEvaluationService() },
	"pesto":    func() interface{} { return pesto.NewEvaluationService() },
}

// Get returns an evaluator factory. The empty key selects the default.
func Get(key string) (func() interface{}, error) {
	if key == "" {
		key = "pesto"
	}
	var builder, found = builders[key]
	if !found {
		return nil, fmt.Errorf("bad eval %v", key)
	}
	return builder, nil
}

func Names() []string {
	var result = make([]string, 0, len(builders))
	for name := range builders {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
