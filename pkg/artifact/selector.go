package artifact

import (
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// SelectBase evaluates a path selector against a tool result and narrows
// it to exactly one item. A selector that matches a one-element list
// yields that element; a longer or empty list is an error because the
// citation would be ambiguous.
func SelectBase(result any, selector string) (any, error) {
	if selector == "" {
		return result, nil
	}

	value, err := jmespath.Search(selector, result)
	if err != nil {
		return nil, fmt.Errorf("invalid base selector %q: %w", selector, err)
	}
	if value == nil {
		return nil, fmt.Errorf("base selector %q matched nothing", selector)
	}

	if list, ok := value.([]any); ok {
		if len(list) != 1 {
			return nil, fmt.Errorf("base selector %q must narrow to exactly one item, matched %d", selector, len(list))
		}
		return list[0], nil
	}

	return value, nil
}

// SelectField evaluates a field selector relative to an already-narrowed
// base item. Details map field names to selectors, never literal values.
func SelectField(base any, selector string) (any, error) {
	if selector == "" {
		return nil, fmt.Errorf("empty field selector")
	}

	// "@" means the base item itself.
	value, err := jmespath.Search(selector, base)
	if err != nil {
		return nil, fmt.Errorf("invalid field selector %q: %w", selector, err)
	}
	return value, nil
}
