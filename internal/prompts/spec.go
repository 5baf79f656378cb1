package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Spec declares a prompt. System and User are text/template sources over
// Input; a missing field renders as its zero value.
type Spec struct {
	Name       PromptName
	Version    int
	System     string
	User       string
	Validators []Validator
}

// MakeTemplate compiles a Spec into a Template.
func MakeTemplate(s Spec) (Template, error) {
	if strings.TrimSpace(string(s.Name)) == "" {
		return Template{}, errors.New("prompt spec without a name")
	}
	if s.Version <= 0 {
		return Template{}, fmt.Errorf("prompt %s: version must be positive", s.Name)
	}
	system, err := compilePart(s.Name, "system", s.System)
	if err != nil {
		return Template{}, err
	}
	user, err := compilePart(s.Name, "user", s.User)
	if err != nil {
		return Template{}, err
	}
	return Template{
		Name:     s.Name,
		Version:  s.Version,
		System:   system,
		User:     user,
		Validate: allOf(s.Validators),
	}, nil
}

// RegisterSpec compiles and registers s. Specs are package constants, so a
// template error is a programming error and panics.
func RegisterSpec(s Spec) {
	t, err := MakeTemplate(s)
	if err != nil {
		panic(err)
	}
	Register(t)
}

func compilePart(name PromptName, part, src string) (Renderer, error) {
	t, err := template.New(string(name) + "." + part).Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: parse %s: %w", name, part, err)
	}
	return func(in Input) (string, error) {
		var b bytes.Buffer
		if err := t.Execute(&b, in); err != nil {
			return "", fmt.Errorf("prompt %s: render %s: %w", name, part, err)
		}
		return strings.TrimSpace(b.String()), nil
	}, nil
}

func allOf(vs []Validator) Validator {
	if len(vs) == 0 {
		return nil
	}
	return func(in Input) error {
		for _, v := range vs {
			if v == nil {
				continue
			}
			if err := v(in); err != nil {
				return err
			}
		}
		return nil
	}
}
