// Command depengine-inspect loads a seed file describing resources and a
// batch of instructions, runs the engine to quiescence with DrainOnce, and
// prints the resulting resource table. It is a debugging aid for
// understanding how a given instruction set would schedule, without
// needing to embed the engine in a real program.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	yaml "go.yaml.in/yaml/v2"

	"github.com/dlsys-project/depengine/engine"
	"github.com/dlsys-project/depengine/engine/introspect"
)

// SeedFile is the YAML schema accepted by -seed.
//
// Example:
//
//	resources:
//	  - x
//	  - y
//	  - z
//	instructions:
//	  - reads: [x, y]
//	    mutates: [z]
//	  - reads: [z]
//	    mutates: []
type SeedFile struct {
	Resources    []string        `yaml:"resources"`
	Instructions []SeedInstruction `yaml:"instructions"`
}

// SeedInstruction is one instruction entry in a SeedFile. Its function body
// is a no-op sleep of DelayMs milliseconds (default zero) — the seed file describes
// scheduling shape, not real work.
type SeedInstruction struct {
	Reads   []string `yaml:"reads"`
	Mutates []string `yaml:"mutates"`
	DelayMs int      `yaml:"delay_ms"`
}

func main() {
	seedPath := flag.String("seed", "", "path to a YAML seed file describing resources and instructions")
	flag.Parse()

	if *seedPath == "" {
		fmt.Fprintln(os.Stderr, "usage: depengine-inspect -seed seed.yaml")
		os.Exit(2)
	}

	seed, err := loadSeed(*seedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "depengine-inspect: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New()
	tags := make(map[string]engine.Tag, len(seed.Resources))
	names := make([]string, 0, len(seed.Resources))
	for _, name := range seed.Resources {
		t, err := eng.NewVariable(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "depengine-inspect: register %q: %v\n", name, err)
			os.Exit(1)
		}
		tags[name] = t
		names = append(names, name)
	}

	for i, instr := range seed.Instructions {
		reads, err := resolveTags(tags, instr.Reads, names)
		if err != nil {
			fmt.Fprintf(os.Stderr, "depengine-inspect: instruction %d: %v\n", i, err)
			os.Exit(1)
		}
		mutates, err := resolveTags(tags, instr.Mutates, names)
		if err != nil {
			fmt.Fprintf(os.Stderr, "depengine-inspect: instruction %d: %v\n", i, err)
			os.Exit(1)
		}
		delay := time.Duration(instr.DelayMs) * time.Millisecond
		idx := i
		err = eng.Push(func() {
			if delay > 0 {
				time.Sleep(delay)
			}
		}, reads, mutates, func(err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "depengine-inspect: instruction %d failed: %v\n", idx, err)
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "depengine-inspect: push instruction %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	eng.DrainOnce()
	fmt.Print(introspect.FormatSnapshot(eng.Snapshot()))
}

func loadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

func resolveTags(tags map[string]engine.Tag, names []string, known []string) ([]engine.Tag, error) {
	out := make([]engine.Tag, 0, len(names))
	for _, name := range names {
		t, ok := tags[name]
		if !ok {
			suggestions := introspect.SuggestTag(name, known, 3)
			return nil, fmt.Errorf("unknown resource %q (did you mean one of %v?)", name, suggestions)
		}
		out = append(out, t)
	}
	return out, nil
}
