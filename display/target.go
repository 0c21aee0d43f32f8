package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/kestrel/vm"
)

// pathName is the name used for the node in target paths. Unnamed nodes
// get a placeholder built from their depth.
func (d *DisplayObject) pathName() string {
	if d.name == "" {
		return fmt.Sprintf("<depth %d>", d.depth)
	}
	return d.name
}

// pathFromTop collects names from the top level down, excluding the top
// level itself.
func (d *DisplayObject) pathFromTop() (top *DisplayObject, names []string) {
	ch := d
	for ch.parent != nil {
		names = append(names, ch.pathName())
		ch = ch.parent.Base()
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return ch, names
}

func levelName(depth int) string {
	return "_level" + strconv.Itoa(DepthLevel(depth))
}

// Target returns the dot-separated path of the node, such as
// "_level0.menu.button".
func (d *DisplayObject) Target() string {
	top, names := d.pathFromTop()
	if len(names) == 0 {
		if d.isRootMovie() {
			return "_level0"
		}
		return levelName(d.depth)
	}
	var sb strings.Builder
	if top.isRootMovie() {
		sb.WriteString("_level0")
	} else {
		sb.WriteString(levelName(top.depth))
	}
	for _, n := range names {
		sb.WriteByte('.')
		sb.WriteString(n)
	}
	return sb.String()
}

// TargetPath returns the slash-separated path of the node, as reported
// by _target: "/" for the root movie, "/menu/button" below it, and
// "_level1/menu" inside other levels.
func (d *DisplayObject) TargetPath() string {
	top, names := d.pathFromTop()
	if len(names) == 0 {
		if d.isRootMovie() {
			return "/"
		}
		return levelName(d.depth)
	}
	var sb strings.Builder
	if !top.isRootMovie() {
		sb.WriteString(levelName(top.depth))
	}
	for _, n := range names {
		sb.WriteByte('/')
		sb.WriteString(n)
	}
	return sb.String()
}

// IsLevelTarget reports whether name has the form "_levelN" and returns
// N. Below version 7 the prefix is matched without case.
func IsLevelTarget(version int, name string) (int, bool) {
	const prefix = "_level"
	if len(name) <= len(prefix) {
		return 0, false
	}
	head := name[:len(prefix)]
	if version < 7 {
		if !strings.EqualFold(head, prefix) {
			return 0, false
		}
	} else if head != prefix {
		return 0, false
	}
	digits := name[len(prefix):]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PathElement resolves one element of a target path relative to the
// node: "..", "." and "this" are handled here, concrete node types add
// children and members.
func (d *DisplayObject) PathElement(name string) *vm.Object {
	if d.object == nil {
		return nil
	}
	switch name {
	case "..":
		if d.parent == nil {
			return nil
		}
		return d.parent.object
	case ".":
		return d.object
	}
	if d.version() < 7 {
		if strings.EqualFold(name, "this") {
			return d.object
		}
	} else if name == "this" {
		return d.object
	}
	return nil
}
