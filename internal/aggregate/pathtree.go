package aggregate

// GetAt descends through node one key component at a time and returns the
// node at path. It reports false as soon as a level is missing or is not a
// Node; there is no partial match. An empty path returns node itself.
func GetAt(node Node, path []string) (Node, bool) {
	current := node
	for _, component := range path {
		if current == nil {
			return nil, false
		}
		child, ok := asNode(current[component])
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, current != nil
}

// EnsureAt descends through node, creating an empty Node at every missing
// level, and returns the terminal Node. A level holding a non-Node value is
// replaced. node must be non-nil.
func EnsureAt(node Node, path []string) Node {
	current := node
	for _, component := range path {
		child, ok := asNode(current[component])
		if !ok {
			child = Node{}
			current[component] = child
		}
		current = child
	}
	return current
}

func asNode(v any) (Node, bool) {
	switch n := v.(type) {
	case Node:
		return n, n != nil
	case map[string]any:
		return Node(n), n != nil
	default:
		return nil, false
	}
}
