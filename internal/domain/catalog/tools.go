// Package catalog is the static tool registry of the bridge: the editor
// tools exposed to MCP clients, their accepted argument aliases, and the
// safety classification of every tool name.
package catalog

import "sort"

// Canonical field names shared by the safety gate and the normalizer.
const (
	// FieldTarget holds a target given by name or path. It may be ambiguous.
	FieldTarget = "target"
	// FieldTargetID holds a definite backend identifier. A destructive call
	// carrying it skips name resolution.
	FieldTargetID = "targetId"
)

// SearchMethod is the read-only backend method used to resolve names.
const SearchMethod = "targets.search"

// AliasGroup maps input field names to one canonical field. Aliases are
// listed in priority order.
type AliasGroup struct {
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
}

// Param describes one canonical parameter for the MCP input schema.
type Param struct {
	Name        string
	Type        string // "string" | "number" | "boolean" | "object" | "array"
	Description string
}

// Tool describes one bridged editor tool.
type Tool struct {
	Name        string
	Description string
	// Method is the backend method. Defaults to Name.
	Method  string
	Aliases []AliasGroup
	Params  []Param
}

// BackendMethod returns the backend method the tool dispatches to.
func (t *Tool) BackendMethod() string {
	if t.Method != "" {
		return t.Method
	}
	return t.Name
}

// Entry is a registered tool with its precomputed classification.
type Entry struct {
	Tool           Tool
	Classification Classification
}

// Registry is the read-only tool table built once at startup.
type Registry struct {
	entries map[string]Entry
	names   []string
}

// NewRegistry builds a Registry from tools. Later duplicates replace
// earlier ones.
func NewRegistry(tools []Tool) *Registry {
	r := &Registry{entries: make(map[string]Entry, len(tools))}
	for _, t := range tools {
		if _, dup := r.entries[t.Name]; !dup {
			r.names = append(r.names, t.Name)
		}
		r.entries[t.Name] = Entry{Tool: t, Classification: Classify(t.Name)}
	}
	sort.Strings(r.names)
	return r
}

// Default returns the registry of built-in editor tools.
func Default() *Registry {
	return NewRegistry(EditorTools())
}

// Lookup returns the entry for a tool name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Classify returns the classification for any tool name, registered or not.
func (r *Registry) Classify(name string) Classification {
	if e, ok := r.entries[name]; ok {
		return e.Classification
	}
	return Classify(name)
}

// Aliases returns the alias groups for a tool, or nil for unknown tools.
func (r *Registry) Aliases(name string) []AliasGroup {
	return r.entries[name].Tool.Aliases
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Entries returns all entries ordered by name.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.entries[n])
	}
	return out
}

// Shared alias groups.
var (
	gameObjectTarget = AliasGroup{FieldTarget, []string{"target", "gameObjectPath", "gameObjectName", "gameObject", "objectPath", "objectName", "path", "name"}}
	gameObjectID     = AliasGroup{FieldTargetID, []string{"targetId", "instanceId", "instanceID", "gameObjectId", "id"}}
	sceneTarget      = AliasGroup{FieldTarget, []string{"target", "scenePath", "sceneName", "scene", "path", "name"}}
	sceneID          = AliasGroup{FieldTargetID, []string{"targetId", "sceneGuid", "guid"}}
	assetTarget      = AliasGroup{FieldTarget, []string{"target", "assetPath", "asset", "path", "name"}}
	assetID          = AliasGroup{FieldTargetID, []string{"targetId", "assetGuid", "guid"}}
	componentType    = AliasGroup{"component", []string{"component", "componentType", "componentName", "type"}}
	properties       = AliasGroup{"properties", []string{"properties", "props", "values", "changes"}}
	parentRef        = AliasGroup{"parent", []string{"parent", "parentPath", "parentName", "newParent"}}
	searchQuery      = AliasGroup{"query", []string{"query", "search", "pattern", "filter", "name"}}
)

var (
	pTarget     = Param{FieldTarget, "string", "Target name or hierarchy path. Destructive tools resolve it to exactly one entity."}
	pTargetID   = Param{FieldTargetID, "string", "Definite identifier of the target, as returned in AmbiguousTarget candidates."}
	pQuery      = Param{"query", "string", "Name or pattern to search for."}
	pComponent  = Param{"component", "string", "Component type name."}
	pProperties = Param{"properties", "object", "Property values to apply."}
	pParent     = Param{"parent", "string", "Parent object name or path."}
)

// EditorTools returns the built-in tool table.
func EditorTools() []Tool {
	return []Tool{
		{
			Name:        "editor.state",
			Description: "Report editor state: active scene, play mode, selection.",
		},
		{
			Name:        "editor.play",
			Description: "Enter or leave play mode.",
			Aliases:     []AliasGroup{{"playing", []string{"playing", "play", "enabled", "state"}}},
			Params:      []Param{{"playing", "boolean", "true to enter play mode, false to stop."}},
		},
		{
			Name:        "editor.invoke",
			Description: "Invoke a raw backend method. Only available when unsafe invoke is enabled; always requires confirmation.",
			Aliases: []AliasGroup{
				{"method", []string{"method", "methodName", "rpcMethod"}},
				{"params", []string{"params", "arguments", "args"}},
			},
			Params: []Param{
				{"method", "string", "Backend method name."},
				{"params", "object", "Backend method parameters."},
			},
		},
		{
			Name:        "entity.find",
			Description: "Find game objects by name or path.",
			Aliases:     []AliasGroup{searchQuery},
			Params:      []Param{pQuery},
		},
		{
			Name:        "entity.get",
			Description: "Get a game object with its components.",
			Aliases:     []AliasGroup{gameObjectID, gameObjectTarget},
			Params:      []Param{pTarget, pTargetID},
		},
		{
			Name:        "entity.create",
			Description: "Create a game object, optionally from a primitive, under a parent.",
			Aliases: []AliasGroup{
				{"name", []string{"name", "objectName", "gameObjectName"}},
				parentRef,
				{"primitive", []string{"primitive", "primitiveType", "shape"}},
				{"position", []string{"position", "pos", "location"}},
			},
			Params: []Param{
				{"name", "string", "Name of the new object."},
				pParent,
				{"primitive", "string", "Primitive shape (Cube, Sphere, ...)."},
				{"position", "object", "World position {x, y, z}."},
			},
		},
		{
			Name:        "entity.modify",
			Description: "Modify game object properties (name, transform, active state).",
			Aliases:     []AliasGroup{gameObjectID, gameObjectTarget, properties},
			Params:      []Param{pTarget, pTargetID, pProperties},
		},
		{
			Name:        "entity.duplicate",
			Description: "Duplicate a game object.",
			Aliases:     []AliasGroup{gameObjectID, gameObjectTarget},
			Params:      []Param{pTarget, pTargetID},
		},
		{
			Name:        "entity.setParent",
			Description: "Move a game object under a new parent.",
			Aliases:     []AliasGroup{gameObjectID, gameObjectTarget, parentRef},
			Params:      []Param{pTarget, pTargetID, pParent},
		},
		{
			Name:        "entity.delete",
			Description: "Delete a game object. Requires confirmation and a unique target.",
			Aliases:     []AliasGroup{gameObjectID, gameObjectTarget},
			Params:      []Param{pTarget, pTargetID},
		},
		{
			Name:        "component.add",
			Description: "Add a component to a game object.",
			Aliases:     []AliasGroup{gameObjectID, gameObjectTarget, componentType},
			Params:      []Param{pTarget, pTargetID, pComponent},
		},
		{
			Name:        "component.set",
			Description: "Set component properties on a game object.",
			Aliases:     []AliasGroup{gameObjectID, gameObjectTarget, componentType, properties},
			Params:      []Param{pTarget, pTargetID, pComponent, pProperties},
		},
		{
			Name:        "component.remove",
			Description: "Remove a component from a game object. Requires confirmation and a unique target.",
			Aliases:     []AliasGroup{gameObjectID, gameObjectTarget, componentType},
			Params:      []Param{pTarget, pTargetID, pComponent},
		},
		{
			Name:        "scene.list",
			Description: "List scenes in the project.",
			Aliases:     []AliasGroup{searchQuery},
			Params:      []Param{pQuery},
		},
		{
			Name:        "scene.new",
			Description: "Create and open a new scene, discarding the unsaved active scene.",
			Aliases: []AliasGroup{
				{"path", []string{"path", "scenePath", "savePath"}},
				{"template", []string{"template", "setup"}},
			},
			Params: []Param{
				{"path", "string", "Where to save the new scene."},
				{"template", "string", "Scene setup template."},
			},
		},
		{
			Name:        "scene.open",
			Description: "Open a scene, discarding unsaved changes in the active one.",
			Aliases:     []AliasGroup{sceneID, sceneTarget},
			Params:      []Param{pTarget, pTargetID},
		},
		{
			Name:        "scene.save",
			Description: "Save the active scene, optionally to a new path.",
			Aliases:     []AliasGroup{{"path", []string{"path", "scenePath", "saveAs"}}},
			Params:      []Param{{"path", "string", "Optional destination path."}},
		},
		{
			Name:        "scene.delete",
			Description: "Delete a scene asset. Requires confirmation and a unique target.",
			Aliases:     []AliasGroup{sceneID, sceneTarget},
			Params:      []Param{pTarget, pTargetID},
		},
		{
			Name:        "asset.find",
			Description: "Search project assets.",
			Aliases: []AliasGroup{
				searchQuery,
				{"assetType", []string{"assetType", "type", "kind"}},
			},
			Params: []Param{pQuery, {"assetType", "string", "Restrict to an asset type."}},
		},
		{
			Name:        "asset.create",
			Description: "Create an asset (material, folder, script ...).",
			Aliases: []AliasGroup{
				{"path", []string{"path", "assetPath", "destination"}},
				{"assetType", []string{"assetType", "type", "kind"}},
				properties,
			},
			Params: []Param{
				{"path", "string", "Asset path to create."},
				{"assetType", "string", "Asset type."},
				pProperties,
			},
		},
		{
			Name:        "asset.import",
			Description: "Import an external file into the project.",
			Aliases: []AliasGroup{
				{"source", []string{"source", "sourcePath", "file", "filePath", "fromPath"}},
				{"destination", []string{"destination", "destPath", "targetFolder", "assetPath"}},
			},
			Params: []Param{
				{"source", "string", "File to import."},
				{"destination", "string", "Destination folder in the project."},
			},
		},
		{
			Name:        "asset.move",
			Description: "Move or rename an asset. Requires confirmation and a unique target.",
			Aliases: []AliasGroup{
				assetID,
				assetTarget,
				{"destination", []string{"destination", "newPath", "destPath", "to"}},
			},
			Params: []Param{pTarget, pTargetID, {"destination", "string", "New asset path."}},
		},
		{
			Name:        "asset.delete",
			Description: "Delete an asset. Requires confirmation and a unique target.",
			Aliases:     []AliasGroup{assetID, assetTarget},
			Params:      []Param{pTarget, pTargetID},
		},
		{
			Name:        "asset.refresh",
			Description: "Refresh the asset database.",
		},
		{
			Name:        "build.player",
			Description: "Build the player for a platform.",
			Aliases: []AliasGroup{
				{"platform", []string{"platform", "buildTarget", "target"}},
				{"outputPath", []string{"outputPath", "output", "locationPathName", "path"}},
				{"scenes", []string{"scenes", "sceneList"}},
			},
			Params: []Param{
				{"platform", "string", "Build platform."},
				{"outputPath", "string", "Output location."},
				{"scenes", "array", "Scenes to include."},
			},
		},
	}
}
