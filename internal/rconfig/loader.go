package rconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for reclass configuration,
// e.g. RECLASS_NODES_PATH.
const envPrefix = "RECLASS"

// Loader reads reclass-config.yml plus environment variable overrides,
// grounded on the teacher's internal/config.Loader (also a thin wrapper
// around one viper.Viper, one env prefix, one ReadInConfig-is-optional
// rule).
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader bound to environment variables prefixed with
// RECLASS_.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("nodes_path", "RECLASS_NODES_PATH")
	_ = v.BindEnv("classes_path", "RECLASS_CLASSES_PATH")
	_ = v.BindEnv("ignore_class_notfound", "RECLASS_IGNORE_CLASS_NOTFOUND")
	_ = v.BindEnv("compose_node_name", "RECLASS_COMPOSE_NODE_NAME")
	_ = v.BindEnv("verbose_warnings", "RECLASS_VERBOSE_WARNINGS")

	return &Loader{v: v}
}

// Load reads configFile (a reclass-config.yml path) and unmarshals it into
// a Config, with environment variables taking precedence over file values.
// A missing configFile is not an error: the resolver falls back to
// defaults plus whatever env vars are bound.
func (l *Loader) Load(configFile string) (Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
		l.v.SetConfigType("yaml")

		if err := l.v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("reading config file %s: %w", configFile, err)
			}
		}
	}

	var raw struct {
		NodesPath                string   `mapstructure:"nodes_path"`
		ClassesPath              string   `mapstructure:"classes_path"`
		IgnoreClassNotfound      bool     `mapstructure:"ignore_class_notfound"`
		IgnoreClassNotfoundRegex []string `mapstructure:"ignore_class_notfound_regexp"`
		ComposeNodeName          bool     `mapstructure:"compose_node_name"`
		ClassMappingsMatchPath   bool     `mapstructure:"class_mappings_match_path"`
		VerboseWarnings          bool     `mapstructure:"verbose_warnings"`
	}
	if err := l.v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("unmarshaling reclass config: %w", err)
	}

	cfg := Config{
		NodesPath:                raw.NodesPath,
		ClassesPath:              raw.ClassesPath,
		IgnoreClassNotfound:      raw.IgnoreClassNotfound,
		IgnoreClassNotfoundRegexp: raw.IgnoreClassNotfoundRegex,
		ComposeNodeName:          raw.ComposeNodeName,
		ClassMappingsMatchPath:   raw.ClassMappingsMatchPath,
		VerboseWarnings:          raw.VerboseWarnings,
	}

	cfg.ClassMappings = classMappingsFromRaw(l.v.Get("class_mappings"))
	cfg.CompatFlags = compatFlagsFromRaw(l.v.GetStringSlice("compat_flags"))

	return cfg, nil
}

// classMappingsFromRaw decodes the class_mappings option's heterogeneous
// shape: a sequence of either a bare pattern string (meaning "match with no
// extra classes") or a {pattern, classes} pair, per reclass's YAML config
// documentation.
func classMappingsFromRaw(raw any) []ClassMappingRule {
	seq, ok := raw.([]any)
	if !ok {
		return nil
	}
	rules := make([]ClassMappingRule, 0, len(seq))
	for _, item := range seq {
		switch t := item.(type) {
		case string:
			rules = append(rules, ClassMappingRule{Pattern: t})
		case []any:
			rule := ClassMappingRule{}
			if len(t) > 0 {
				rule.Pattern, _ = t[0].(string)
			}
			for _, c := range t[1:] {
				if s, ok := c.(string); ok {
					rule.Classes = append(rule.Classes, s)
				}
			}
			rules = append(rules, rule)
		case map[string]any:
			rule := ClassMappingRule{}
			if p, ok := t["pattern"].(string); ok {
				rule.Pattern = p
			}
			if cs, ok := t["classes"].([]any); ok {
				for _, c := range cs {
					if s, ok := c.(string); ok {
						rule.Classes = append(rule.Classes, s)
					}
				}
			}
			rules = append(rules, rule)
		}
	}
	return rules
}

func compatFlagsFromRaw(names []string) map[CompatFlag]bool {
	if len(names) == 0 {
		return nil
	}
	flags := make(map[CompatFlag]bool, len(names))
	for _, n := range names {
		flags[CompatFlag(n)] = true
	}
	return flags
}
