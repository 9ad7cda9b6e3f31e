// Command openapi exports the API description as YAML and checks a
// revision for backward-incompatible changes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"postboard/docs"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

// pathOps maps path -> method -> response codes.
type pathOps map[string]map[string]map[string]struct{}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: openapi <export|compat> [flags]")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(os.Args[2:])
	case "compat":
		err = runCompat(os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "openapi: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "", "output file (default stdout)")
	_ = fs.Parse(args)

	raw, err := currentYAML()
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = os.Stdout.Write(raw)
		return err
	}
	return os.WriteFile(*out, raw, 0o644)
}

func runCompat(args []string) error {
	fs := flag.NewFlagSet("compat", flag.ExitOnError)
	basePath := fs.String("base", "", "base swagger.yaml path")
	revisionPath := fs.String("revision", "", "revision swagger.yaml path (default: this build)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*basePath) == "" {
		return errors.New("usage: openapi compat -base <path> [-revision <path>]")
	}

	// #nosec G304: path comes from CLI flags in a dev tool
	baseRaw, err := os.ReadFile(*basePath)
	if err != nil {
		return fmt.Errorf("load base spec: %w", err)
	}
	var revisionRaw []byte
	if *revisionPath == "" {
		revisionRaw, err = currentYAML()
	} else {
		// #nosec G304: path comes from CLI flags in a dev tool
		revisionRaw, err = os.ReadFile(*revisionPath)
	}
	if err != nil {
		return fmt.Errorf("load revision spec: %w", err)
	}

	base, err := parseSpec(baseRaw)
	if err != nil {
		return fmt.Errorf("parse base spec: %w", err)
	}
	revision, err := parseSpec(revisionRaw)
	if err != nil {
		return fmt.Errorf("parse revision spec: %w", err)
	}

	if issues := compare(base, revision); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		return errors.New("incompatible revision")
	}
	fmt.Println("openapi compatibility check passed")
	return nil
}

// currentYAML renders the swagger document compiled into this binary.
// JSON is valid YAML, so yaml.v3 reads it directly.
func currentYAML() ([]byte, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		return nil, fmt.Errorf("decode swagger doc: %w", err)
	}
	return yaml.Marshal(doc)
}

func parseSpec(raw []byte) (pathOps, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	paths, ok := doc["paths"].(map[string]interface{})
	if !ok {
		return nil, errors.New("missing top-level paths object")
	}

	out := make(pathOps)
	for path, entry := range paths {
		methods, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		ops := make(map[string]map[string]struct{})
		for method, opRaw := range methods {
			method = strings.ToLower(strings.TrimSpace(method))
			if _, supported := supportedMethods[method]; !supported {
				continue
			}
			op, ok := opRaw.(map[string]interface{})
			if !ok {
				continue
			}
			codes := make(map[string]struct{})
			if responses, ok := op["responses"].(map[string]interface{}); ok {
				for code := range responses {
					codes[strings.ToLower(strings.TrimSpace(code))] = struct{}{}
				}
			}
			ops[method] = codes
		}
		if len(ops) > 0 {
			out[path] = ops
		}
	}
	return out, nil
}

// compare lists what base offers that revision no longer does.
func compare(base, revision pathOps) []string {
	var issues []string
	for path, baseOps := range base {
		revOps, ok := revision[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}
		for method, baseCodes := range baseOps {
			revCodes, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}
			for code := range baseCodes {
				if _, ok := revCodes[code]; !ok {
					issues = append(issues, fmt.Sprintf("removed response code: %s %s -> %s",
						strings.ToUpper(method), path, code))
				}
			}
		}
	}
	sort.Strings(issues)
	return issues
}
