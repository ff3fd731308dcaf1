package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TechniciansFile is the on-disk layout of TECHNICIAN_CONTACTS_FILE:
//
//	technicians:
//	  - name: Ana Souza
//	    contact: "5511999990000"
//	    minimum: "06:00"
type TechniciansFile struct {
	Technicians []TechnicianEntry `yaml:"technicians"`

	Contacts       map[string]string `yaml:"-"`
	MinimumMinutes map[string]int    `yaml:"-"`
}

type TechnicianEntry struct {
	Name    string `yaml:"name"`
	Contact string `yaml:"contact"`
	Minimum string `yaml:"minimum"`
}

// LoadTechniciansFile parses the technicians yaml file. Values of the form
// ${VAR} are expanded from the environment before parsing.
func LoadTechniciansFile(path string) (*TechniciansFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading technicians file: %w", err)
	}

	var tf TechniciansFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &tf); err != nil {
		return nil, fmt.Errorf("error parsing technicians file: %w", err)
	}

	tf.Contacts = make(map[string]string, len(tf.Technicians))
	tf.MinimumMinutes = make(map[string]int)
	for i, entry := range tf.Technicians {
		if entry.Name == "" {
			return nil, fmt.Errorf("technicians file: entry %d has no name", i+1)
		}
		if entry.Contact != "" {
			tf.Contacts[entry.Name] = entry.Contact
		}
		if entry.Minimum != "" {
			minutes, err := parseMinimum(entry.Minimum)
			if err != nil {
				return nil, fmt.Errorf("technicians file: invalid minimum for %s: %w", entry.Name, err)
			}
			tf.MinimumMinutes[entry.Name] = minutes
		}
	}

	return &tf, nil
}
