// Package rconfig implements the recognized inventory options (spec
// section 4.1): filesystem roots, ignore-not-found policy, node-name
// composition, class-mapping rules, and compatibility flags.
//
// Grounded on the teacher's internal/config package: a Config struct with
// JSON/YAML tags, a Loader wrapping viper for reclass-config.yml + env
// var precedence, and the "programmatic overrides file" merge rule from
// internal/config/loader.go's Load/LoadWithDefaults split.
package rconfig

// CompatFlag is an opt-in compatibility toggle. Kept as a string-typed
// const set, not a closed Go enum, so new flags can be added without a
// breaking type change — mirrors original_source/src/config.rs's
// CompatFlag, which reclass-rs documents as an open set.
type CompatFlag string

// ComposeNodeNameLiteralDots changes compose_node_name's segmentation of
// the node's final path component: default mode keeps literal dots in the
// last segment; this flag splits on every dot instead (spec section 3).
const ComposeNodeNameLiteralDots CompatFlag = "ComposeNodeNameLiteralDots"

// ClassMappingRule is one (pattern, extra-classes) entry from
// class_mappings: a node whose name (or full path, under
// ClassMappingsMatchPath) matches Pattern gets Classes prepended to its
// class list before expansion.
type ClassMappingRule struct {
	// Pattern is a regular expression (supporting lookaround and
	// non-greedy groups — see internal/rindex, which compiles it with
	// regexp2 rather than the stdlib regexp package).
	Pattern string

	// Classes are the class-name templates to prepend on a match.
	// Backreferences may be written as either \N or ${N}; rindex
	// normalizes \N to ${N} before substitution.
	Classes []string
}

// Config holds the recognized reclass options (spec section 4.1's table).
type Config struct {
	// NodesPath and ClassesPath are the filesystem roots for node and
	// class discovery.
	NodesPath   string `yaml:"nodes_path,omitempty" json:"nodes_path,omitempty"`
	ClassesPath string `yaml:"classes_path,omitempty" json:"classes_path,omitempty"`

	// IgnoreClassNotfound, when true, skips a missing included class
	// instead of failing.
	IgnoreClassNotfound bool `yaml:"ignore_class_notfound,omitempty" json:"ignore_class_notfound,omitempty"`

	// IgnoreClassNotfoundRegexp restricts IgnoreClassNotfound to class
	// names matching one of these regexes. Empty means "all names".
	IgnoreClassNotfoundRegexp []string `yaml:"ignore_class_notfound_regexp,omitempty" json:"ignore_class_notfound_regexp,omitempty"`

	// ComposeNodeName composes a node's key from its relative file path
	// rather than from an explicit name field.
	ComposeNodeName bool `yaml:"compose_node_name,omitempty" json:"compose_node_name,omitempty"`

	// ClassMappings are applied in order; matching rules' classes are all
	// prepended, in rule order, ahead of the node's own classes.
	ClassMappings []ClassMappingRule `yaml:"-" json:"-"`

	// ClassMappingsMatchPath matches class_mappings patterns against the
	// node's full relative path instead of its composed name.
	ClassMappingsMatchPath bool `yaml:"class_mappings_match_path,omitempty" json:"class_mappings_match_path,omitempty"`

	// VerboseWarnings emits diagnostics for dropped unrendered values and
	// default-substitution events.
	VerboseWarnings bool `yaml:"verbose_warnings,omitempty" json:"verbose_warnings,omitempty"`

	// CompatFlags are opt-in compatibility toggles.
	CompatFlags map[CompatFlag]bool `yaml:"-" json:"-"`

	// Threads bounds the renderer's worker pool; 0 means one worker per
	// logical core.
	Threads int `yaml:"threads,omitempty" json:"threads,omitempty"`
}

// AllowNoneOverride is fixed true; reclass never supported setting it to
// false in a way this resolver implements (spec section 4.1).
const AllowNoneOverride = true

// HasCompatFlag reports whether flag is enabled.
func (c Config) HasCompatFlag(flag CompatFlag) bool {
	return c.CompatFlags[flag]
}

// Default returns a Config with reclass's documented defaults: discovery
// rooted at the given paths, no ignore-not-found, compose_node_name off.
func Default(nodesPath, classesPath string) Config {
	return Config{
		NodesPath:   nodesPath,
		ClassesPath: classesPath,
	}
}

// Merge returns c with every field that is non-zero in override replaced
// by override's value, whether or not c's field was already set —
// "programmatic values override file values" (spec section 4.1).
// CompatFlags are unioned, override winning on a shared key.
func (c Config) Merge(override Config) Config {
	out := c
	if override.NodesPath != "" {
		out.NodesPath = override.NodesPath
	}
	if override.ClassesPath != "" {
		out.ClassesPath = override.ClassesPath
	}
	if override.IgnoreClassNotfound {
		out.IgnoreClassNotfound = true
	}
	if len(override.IgnoreClassNotfoundRegexp) > 0 {
		out.IgnoreClassNotfoundRegexp = override.IgnoreClassNotfoundRegexp
	}
	if override.ComposeNodeName {
		out.ComposeNodeName = true
	}
	if len(override.ClassMappings) > 0 {
		out.ClassMappings = override.ClassMappings
	}
	if override.ClassMappingsMatchPath {
		out.ClassMappingsMatchPath = true
	}
	if override.VerboseWarnings {
		out.VerboseWarnings = true
	}
	if len(override.CompatFlags) > 0 {
		merged := make(map[CompatFlag]bool, len(c.CompatFlags)+len(override.CompatFlags))
		for k, v := range c.CompatFlags {
			merged[k] = v
		}
		for k, v := range override.CompatFlags {
			merged[k] = v
		}
		out.CompatFlags = merged
	}
	if override.Threads != 0 {
		out.Threads = override.Threads
	}
	return out
}
