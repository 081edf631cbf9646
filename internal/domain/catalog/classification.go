package catalog

import "path"

// TargetKind is the kind of backend entity a destructive tool acts on.
type TargetKind string

const (
	TargetGameObject TargetKind = "gameObject"
	TargetScene      TargetKind = "scene"
	TargetAsset      TargetKind = "asset"
	TargetNone       TargetKind = "none"
)

// Classification is the safety profile of a tool name.
type Classification struct {
	Destructive bool       `json:"destructive"`
	ReadOnly    bool       `json:"readOnly"`
	Target      TargetKind `json:"targetKind"`
}

// Rule maps a tool-name glob to a classification.
type Rule struct {
	Pattern        string         `json:"pattern"`
	Classification Classification `json:"classification"`
}

var (
	destructiveOn = func(k TargetKind) Classification { return Classification{Destructive: true, Target: k} }
	readOnly      = Classification{ReadOnly: true, Target: TargetNone}
	mutating      = Classification{Target: TargetNone}
)

// Rules is the ordered classification policy. First match wins.
var Rules = []Rule{
	// Destructive, with a target that must resolve to exactly one entity.
	{"entity.delete", destructiveOn(TargetGameObject)},
	{"entity.destroy", destructiveOn(TargetGameObject)},
	{"component.remove", destructiveOn(TargetGameObject)},
	{"scene.delete", destructiveOn(TargetScene)},
	{"scene.open", destructiveOn(TargetScene)},
	{"asset.delete", destructiveOn(TargetAsset)},
	{"asset.move", destructiveOn(TargetAsset)},

	// Destructive without a named target.
	{"scene.new", destructiveOn(TargetNone)},
	{"asset.import", destructiveOn(TargetNone)},
	{"build.*", destructiveOn(TargetNone)},
	{"editor.invoke", destructiveOn(TargetNone)},
	{"*.delete", destructiveOn(TargetNone)},
	{"*.remove", destructiveOn(TargetNone)},
	{"*.destroy", destructiveOn(TargetNone)},
	{"*.clear", destructiveOn(TargetNone)},
	{"*.import", destructiveOn(TargetNone)},
	{"*.reset", destructiveOn(TargetNone)},

	{"*.get", readOnly},
	{"*.list", readOnly},
	{"*.find", readOnly},
	{"*.search", readOnly},
	{"editor.state", readOnly},
	{"status", readOnly},
	{"ping", readOnly},

	{"*.create", mutating},
	{"*.modify", mutating},
	{"*.set", mutating},
	{"*.setParent", mutating},
	{"*.add", mutating},
	{"*.duplicate", mutating},
	{"scene.save", mutating},
	{"asset.refresh", mutating},
	{"reloadConfig", mutating},
	{"editor.*", mutating},
}

// failClosed applies to names no rule matches.
var failClosed = destructiveOn(TargetNone)

// Classify returns the classification for a tool name. It depends on the
// name only.
func Classify(name string) Classification {
	for i := range Rules {
		if matchTool(Rules[i].Pattern, name) {
			return Rules[i].Classification
		}
	}
	return failClosed
}

// matchTool checks whether a glob pattern matches a tool name:
//   - "build.*" matches "build.player"
//   - "*.delete" matches "scene.delete"
//   - "entity.delete" matches exactly
func matchTool(pattern, name string) bool {
	if pattern == name {
		return true
	}
	matched, err := path.Match(pattern, name)
	return err == nil && matched
}
