package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParsePack decodes a YAML lesson pack. Authoring files look like:
//
//	id: fractions-1
//	title: Fractions
//	sections:
//	  - id: practice
//	    items:
//	      - kind: fill_in
//	        answer: "3/4"
//	        steps:
//	          - kind: choice
//	            answer: "4"
//	            options: ["2", "4", "8"]
//
// Missing options or empty answers are allowed: the viewer renders
// such items as "nothing to answer" rather than failing the load.
func ParsePack(data []byte) (Lesson, error) {
	var l Lesson
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Lesson{}, fmt.Errorf("parse lesson pack: %w", err)
	}
	if l.ID == "" {
		return Lesson{}, errors.New("lesson pack missing id")
	}
	for i := range l.Sections {
		if l.Sections[i].ID == "" {
			return Lesson{}, fmt.Errorf("section %d missing id", i)
		}
	}
	return l, nil
}

// LoadPacks reads every *.yaml / *.yml under dir into the provider.
// A missing dir is fine (no seed content configured).
func LoadPacks(ctx context.Context, dir string, p Provider) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return n, err
		}
		l, err := ParsePack(data)
		if err != nil {
			return n, fmt.Errorf("%s: %w", name, err)
		}
		if err := p.PutLesson(ctx, l); err != nil {
			return n, fmt.Errorf("%s: %w", name, err)
		}
		n++
	}
	return n, nil
}
