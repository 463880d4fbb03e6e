package config

import (
	"encoding/json"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/titanous/json5"
)

// json5Parser adapts titanous/json5 to koanf's Parser interface so koanf's
// file.Provider can load config.json (which allows comments and trailing
// commas) as just another layer in the composed config (spec §4.12).
type json5Parser struct{}

func (json5Parser) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if len(b) == 0 {
		return out, nil
	}
	if err := json5.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (json5Parser) Marshal(m map[string]interface{}) ([]byte, error) {
	return json.Marshal(m)
}

// structToMap round-trips v through encoding/json so it can be used as a
// koanf confmap.Provider layer (koanf only ever deals in map[string]any).
func structToMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// dbOverrideProvider turns a flat map of dotted config keys (e.g.
// "gateway.rate_limit_rpm") sourced from the config_overrides table into a
// koanf.Provider, so operator-issued runtime overrides
// (store.ConfigOverrideStore) compose through the exact same merge path as
// the file and env layers instead of needing bespoke merge code.
func dbOverrideProvider(values map[string]interface{}) *confmap.Confmap {
	return confmap.Provider(values, ".")
}
