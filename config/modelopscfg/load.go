package modelopscfg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads modelops.yml from path. Unknown keys are rejected.
func Load(path string) (*Root, error) {
	var cfg Root
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDeploy reads a deploy request document from path; "-" reads stdin.
func LoadDeploy(path string) (*Deploy, error) {
	var d Deploy
	if err := decodeFile(path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func decodeFile(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to unmarshal YAML %s: %w", path, err)
	}
	return nil
}
