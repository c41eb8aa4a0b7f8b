package tree

import (
	"strconv"
	"strings"

	"github.com/tarstars/forust/pkg/errors"
)

// String dumps the tree one node per line in depth-first preorder, indented
// by one tab per level:
//
//	0:[f0 <= 1.5] yes=1,no=2,bin=1,gain=0.5,cover=4,count=4
//		1:leaf=-0.5,cover=2,count=2
//		2:leaf=0.5,cover=2,count=2
func (t *Tree) String() string {
	var sb strings.Builder
	if len(t.Nodes) > 0 {
		t.writeNode(&sb, 0)
	}
	return sb.String()
}

func (t *Tree) writeNode(sb *strings.Builder, ind int) {
	node := t.Nodes[ind]
	sb.WriteString(strings.Repeat("\t", node.Depth))
	sb.WriteString(strconv.Itoa(node.ID))
	sb.WriteString(":")
	if node.IsLeaf() {
		sb.WriteString("leaf=" + formatFloat(node.Value))
		sb.WriteString(",cover=" + formatFloat(node.Cover))
		sb.WriteString(",count=" + strconv.Itoa(node.Count))
		sb.WriteString("\n")
		return
	}
	sb.WriteString("[f" + strconv.Itoa(node.Feature) + " <= " + formatFloat(node.Threshold) + "] ")
	sb.WriteString("yes=" + strconv.Itoa(node.Left))
	sb.WriteString(",no=" + strconv.Itoa(node.Right))
	sb.WriteString(",bin=" + strconv.Itoa(node.Bin))
	sb.WriteString(",gain=" + formatFloat(node.Gain))
	sb.WriteString(",cover=" + formatFloat(node.Cover))
	sb.WriteString(",count=" + strconv.Itoa(node.Count))
	sb.WriteString("\n")
	t.writeNode(sb, node.Left)
	t.writeNode(sb, node.Right)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Parse rebuilds a tree from the output of String.
func Parse(dump string) (*Tree, error) {
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, errors.InvalidInputf("tree dump is empty")
	}

	nodes := make([]Node, len(lines))
	seen := make([]bool, len(lines))
	for lineNo, line := range lines {
		node, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "tree dump line %d", lineNo+1)
		}
		if node.ID < 0 || node.ID >= len(nodes) || seen[node.ID] {
			return nil, errors.InvalidInputf("tree dump line %d: node id %d is out of range or repeated", lineNo+1, node.ID)
		}
		seen[node.ID] = true
		nodes[node.ID] = node
	}

	parents := make([]int, len(nodes))
	for _, node := range nodes {
		if node.IsLeaf() {
			continue
		}
		for _, child := range []int{node.Left, node.Right} {
			if child <= node.ID || child >= len(nodes) {
				return nil, errors.InvalidInputf("node %d has invalid child %d", node.ID, child)
			}
			if nodes[child].Depth != node.Depth+1 {
				return nil, errors.InvalidInputf("node %d at depth %d is indented as depth %d", child, node.Depth+1, nodes[child].Depth)
			}
			parents[child]++
		}
	}
	if nodes[0].Depth != 0 {
		return nil, errors.InvalidInputf("root node is indented")
	}
	for id := 1; id < len(nodes); id++ {
		if parents[id] != 1 {
			return nil, errors.InvalidInputf("node %d has %d parents", id, parents[id])
		}
	}
	return &Tree{Nodes: nodes}, nil
}

func parseLine(line string) (Node, error) {
	body := strings.TrimLeft(line, "\t")
	depth := len(line) - len(body)

	idText, rest, ok := strings.Cut(body, ":")
	if !ok {
		return Node{}, errors.InvalidInputf("missing node id in %q", line)
	}
	id, err := strconv.Atoi(idText)
	if err != nil {
		return Node{}, errors.InvalidInputf("bad node id %q", idText)
	}

	if strings.HasPrefix(rest, "leaf=") {
		fields, err := parseFields(rest, "leaf", "cover", "count")
		if err != nil {
			return Node{}, err
		}
		count, err := strconv.Atoi(fields["count"])
		if err != nil {
			return Node{}, errors.InvalidInputf("bad count %q", fields["count"])
		}
		value, err := parseFloat(fields["leaf"])
		if err != nil {
			return Node{}, err
		}
		cover, err := parseFloat(fields["cover"])
		if err != nil {
			return Node{}, err
		}
		return newLeaf(id, depth, value, cover, count), nil
	}

	cond, rest, ok := strings.Cut(rest, "] ")
	if !ok || !strings.HasPrefix(cond, "[f") {
		return Node{}, errors.InvalidInputf("malformed split condition in %q", line)
	}
	featureText, thresholdText, ok := strings.Cut(strings.TrimPrefix(cond, "[f"), " <= ")
	if !ok {
		return Node{}, errors.InvalidInputf("malformed split condition %q", cond)
	}
	fields, err := parseFields(rest, "yes", "no", "bin", "gain", "cover", "count")
	if err != nil {
		return Node{}, err
	}
	fields["feature"] = featureText

	node := Node{ID: id, Depth: depth}
	ints := []struct {
		key string
		dst *int
	}{
		{"feature", &node.Feature},
		{"yes", &node.Left},
		{"no", &node.Right},
		{"bin", &node.Bin},
		{"count", &node.Count},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(fields[f.key]); err != nil {
			return Node{}, errors.InvalidInputf("bad %s %q", f.key, fields[f.key])
		}
	}
	if node.Threshold, err = parseFloat(thresholdText); err != nil {
		return Node{}, err
	}
	if node.Gain, err = parseFloat(fields["gain"]); err != nil {
		return Node{}, err
	}
	if node.Cover, err = parseFloat(fields["cover"]); err != nil {
		return Node{}, err
	}
	if node.Feature < 0 || node.Bin < 0 {
		return Node{}, errors.InvalidInputf("negative feature or bin in %q", line)
	}
	if node.Left < 0 || node.Right < 0 {
		return Node{}, errors.InvalidInputf("split without two children in %q", line)
	}
	return node, nil
}

// parseFields splits "k1=v1,k2=v2" and requires exactly the given keys.
func parseFields(s string, keys ...string) (map[string]string, error) {
	fields := make(map[string]string, len(keys))
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, errors.InvalidInputf("malformed field %q", part)
		}
		fields[k] = v
	}
	if len(fields) != len(keys) {
		return nil, errors.InvalidInputf("expected fields %v in %q", keys, s)
	}
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return nil, errors.InvalidInputf("missing field %q in %q", k, s)
		}
	}
	return fields, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.InvalidInputf("bad number %q", s)
	}
	return v, nil
}
