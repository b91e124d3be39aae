package main

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// jsonify converts the OpenAPI description from YAML to JSON.
func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: jsonify <input.yml> <output.json>")
		os.Exit(2)
	}
	if err := jsonify(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func jsonify(input, output string) error {
	inputFile, err := os.Open(input)
	if err != nil {
		return err
	}
	defer inputFile.Close()
	var v any
	if err := yaml.NewDecoder(inputFile).Decode(&v); err != nil {
		return fmt.Errorf("decode %s: %w", input, err)
	}
	outFile, err := os.Create(output)
	if err != nil {
		return err
	}
	defer outFile.Close()
	encoder := json.NewEncoder(outFile)
	encoder.SetIndent("", " ")
	return encoder.Encode(v)
}
