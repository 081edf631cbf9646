package catalog

import "testing"

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		name string
		want Classification
	}{
		{"entity.delete", Classification{Destructive: true, Target: TargetGameObject}},
		{"component.remove", Classification{Destructive: true, Target: TargetGameObject}},
		{"scene.open", Classification{Destructive: true, Target: TargetScene}},
		{"scene.delete", Classification{Destructive: true, Target: TargetScene}},
		{"asset.delete", Classification{Destructive: true, Target: TargetAsset}},
		{"asset.move", Classification{Destructive: true, Target: TargetAsset}},
		{"asset.import", Classification{Destructive: true, Target: TargetNone}},
		{"build.player", Classification{Destructive: true, Target: TargetNone}},
		{"build.anything", Classification{Destructive: true, Target: TargetNone}},
		{"editor.invoke", Classification{Destructive: true, Target: TargetNone}},
		{"prefab.delete", Classification{Destructive: true, Target: TargetNone}},
		{"console.clear", Classification{Destructive: true, Target: TargetNone}},
		{"entity.find", Classification{ReadOnly: true, Target: TargetNone}},
		{"scene.list", Classification{ReadOnly: true, Target: TargetNone}},
		{"editor.state", Classification{ReadOnly: true, Target: TargetNone}},
		{"entity.create", Classification{Target: TargetNone}},
		{"component.set", Classification{Target: TargetNone}},
		{"entity.setParent", Classification{Target: TargetNone}},
		{"editor.play", Classification{Target: TargetNone}},
		{"scene.save", Classification{Target: TargetNone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestClassifyUnknownFailsClosed(t *testing.T) {
	for _, name := range []string{"", "mystery", "terrain.sculpt", "a/b"} {
		c := Classify(name)
		if !c.Destructive || c.Target != TargetNone {
			t.Errorf("Classify(%q) = %+v, want destructive/none", name, c)
		}
	}
}

func TestMatchTool(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{"entity.delete", "entity.delete", true},
		{"*.delete", "scene.delete", true},
		{"*.delete", "scene.deleteAll", false},
		{"build.*", "build.player", true},
		{"build.*", "rebuild.player", false},
		{"[", "[", true},
		{"[", "x", false},
	}
	for _, tt := range tests {
		if got := matchTool(tt.pattern, tt.name); got != tt.want {
			t.Errorf("matchTool(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}

func TestRegistryLookupAndClassification(t *testing.T) {
	r := Default()

	e, ok := r.Lookup("entity.delete")
	if !ok {
		t.Fatal("entity.delete not registered")
	}
	if e.Classification != Classify("entity.delete") {
		t.Error("registry classification must equal Classify")
	}
	if e.Tool.BackendMethod() != "entity.delete" {
		t.Errorf("unexpected backend method %s", e.Tool.BackendMethod())
	}
	if r.Aliases("nonexistent") != nil {
		t.Error("unknown tool should have no aliases")
	}
	if c := r.Classify("nonexistent"); !c.Destructive {
		t.Error("unknown tool should fail closed")
	}
}

func TestRegistryNamesSortedAndUnique(t *testing.T) {
	r := NewRegistry([]Tool{{Name: "b.get"}, {Name: "a.get"}, {Name: "b.get", Method: "x"}})
	names := r.Names()
	if len(names) != 2 || names[0] != "a.get" || names[1] != "b.get" {
		t.Errorf("unexpected names %v", names)
	}
	e, _ := r.Lookup("b.get")
	if e.Tool.Method != "x" {
		t.Error("later duplicate should replace earlier one")
	}
}

func TestEditorToolsAliasGroupsAreDisjoint(t *testing.T) {
	for _, tool := range EditorTools() {
		seen := map[string]string{}
		for _, g := range tool.Aliases {
			if len(g.Aliases) == 0 || g.Aliases[0] != g.Canonical {
				t.Errorf("%s: group %s must list its canonical name first", tool.Name, g.Canonical)
			}
			for _, a := range g.Aliases {
				if other, dup := seen[a]; dup {
					t.Errorf("%s: alias %q in both %s and %s", tool.Name, a, other, g.Canonical)
				}
				seen[a] = g.Canonical
			}
		}
	}
}

func TestDestructiveTargetToolsAcceptTargetFields(t *testing.T) {
	for _, e := range Default().Entries() {
		if !e.Classification.Destructive || e.Classification.Target == TargetNone {
			continue
		}
		has := map[string]bool{}
		for _, g := range e.Tool.Aliases {
			has[g.Canonical] = true
		}
		if !has[FieldTarget] || !has[FieldTargetID] {
			t.Errorf("%s is destructive with a target but lacks target/targetId groups", e.Tool.Name)
		}
	}
}
