package config

import "gopkg.in/yaml.v3"

// yamlParser is a koanf.Parser for YAML config files
type yamlParser struct{}

func (yamlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

func (yamlParser) Marshal(m map[string]interface{}) ([]byte, error) {
	return yaml.Marshal(m)
}
