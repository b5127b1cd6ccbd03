package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Language is one entry in the language catalogue: the compile/execute
// command templates for a single language/compiler combination.
type Language struct {
	Code               string   `yaml:"code"`
	SourceFilename     string   `yaml:"source_filename"`
	ExecutableFilename string   `yaml:"executable_filename"`
	CompileCommand     []string `yaml:"compile_command"`
	ExecuteCommand     []string `yaml:"execute_command"`
	// CompileFlags/ExecuteFlags are appended to the sandbox invocation's
	// isolate flags (not substituted into the command template) when
	// present, e.g. to relax --processes for a multi-process toolchain.
	CompileFlags []string `yaml:"compile_flags,omitempty"`
	ExecuteFlags []string `yaml:"execute_flags,omitempty"`
}

// Catalogue is the full set of languages a judge instance can compile and
// run, as declared by the languages-definition YAML file.
type Catalogue []Language

// Find looks up a language by its catalogue code. An unknown code is a
// configuration error, not a per-submission verdict.
func (c Catalogue) Find(code string) (Language, error) {
	for _, lang := range c {
		if lang.Code == code {
			return lang, nil
		}
	}
	return Language{}, fmt.Errorf("unknown language %q in catalogue", code)
}

// LoadCatalogue reads and parses a languages-definition YAML file.
func LoadCatalogue(path string) (Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open languages definition: %w", err)
	}
	defer f.Close()

	var catalogue Catalogue
	if err := yaml.NewDecoder(f).Decode(&catalogue); err != nil {
		return nil, fmt.Errorf("parse languages definition: %w", err)
	}

	return catalogue, nil
}

// RenderCompile substitutes {source}/{destination} into the language's
// compile command template. Substitution is a literal find-and-replace, not
// a templating engine; an unrecognized placeholder is left in the output
// verbatim.
func RenderCompile(lang Language, source, destination string) []string {
	r := strings.NewReplacer("{source}", source, "{destination}", destination)
	out := make([]string, len(lang.CompileCommand))
	for i, tok := range lang.CompileCommand {
		out[i] = r.Replace(tok)
	}
	return out
}

// RenderExecute substitutes {executable} into the language's execute
// command template.
func RenderExecute(lang Language, executable string) []string {
	r := strings.NewReplacer("{executable}", executable)
	out := make([]string, len(lang.ExecuteCommand))
	for i, tok := range lang.ExecuteCommand {
		out[i] = r.Replace(tok)
	}
	return out
}
