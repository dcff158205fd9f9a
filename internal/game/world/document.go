package world

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/gridbot/internal/game/grid"
)

// Format is the encoding of a world document.
type Format string

// Supported document encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported world document extension %q", filepath.Ext(path))
	}
}

// Document is the declarative description of a world before any random
// choices are resolved.
type Document struct {
	Title         string                      `json:"title" yaml:"title"`
	Rows          Scalar                      `json:"rows" yaml:"rows"`
	Cols          Scalar                      `json:"cols" yaml:"cols"`
	BorderColor   string                      `json:"border_color" yaml:"border_color"`
	GridLineColor string                      `json:"grid_line_color" yaml:"grid_line_color"`
	TileMaps      map[string]string           `json:"tileMaps" yaml:"tileMaps"`
	Tiles         map[string]TileList         `json:"tiles" yaml:"tiles"`
	Walls         map[string][]grid.Direction `json:"walls" yaml:"walls"`
	GoalWalls     map[string][]grid.Direction `json:"goal_walls" yaml:"goal_walls"`
	// RemovableWalls adds walls, or marks listed walls, as removable.
	RemovableWalls map[string][]grid.Direction  `json:"removable_walls" yaml:"removable_walls"`
	Messages       map[string]string            `json:"messages" yaml:"messages"`
	Robots         []RobotSpec                  `json:"robots" yaml:"robots"`
	Objects        map[string]map[string]Scalar `json:"objects" yaml:"objects"`
	Flags          [][2]int                     `json:"flags" yaml:"flags"`
	Goal           *GoalSpec                    `json:"goal" yaml:"goal"`
	Description    Text                         `json:"description" yaml:"description"`
}

// RobotSpec places one robot. Either X and Y or PossibleInitialPositions is
// required.
type RobotSpec struct {
	X                        Scalar   `json:"x" yaml:"x"`
	Y                        Scalar   `json:"y" yaml:"y"`
	PossibleInitialPositions [][2]int `json:"possible_initial_positions" yaml:"possible_initial_positions"`
	Orientation              Scalar   `json:"_orientation" yaml:"_orientation"`
	TraceColor               string   `json:"_traceColor" yaml:"_traceColor"`
}

// GoalSpec lists the goals of a world.
type GoalSpec struct {
	Position               *PositionSpec                `json:"position" yaml:"position"`
	PossibleFinalPositions [][2]int                     `json:"possible_final_positions" yaml:"possible_final_positions"`
	Walls                  map[string][]grid.Direction  `json:"walls" yaml:"walls"`
	Objects                map[string]map[string]Scalar `json:"objects" yaml:"objects"`
	Drop                   map[string]map[string]Scalar `json:"drop" yaml:"drop"`
	Reporter               []string                     `json:"reporter" yaml:"reporter"`
	FlagCount              Scalar                       `json:"flag_count" yaml:"flag_count"`
}

// PositionSpec is a final position goal with an optional marker tile.
type PositionSpec struct {
	X     Scalar   `json:"x" yaml:"x"`
	Y     Scalar   `json:"y" yaml:"y"`
	Image TileList `json:"image" yaml:"image"`
}

// LoadDocumentFromFile reads and decodes a world document, choosing JSON or
// YAML by extension.
//
// Precondition: path must name a .json, .yaml or .yml file.
// Postcondition: Returns a decoded Document or a non-nil error.
func LoadDocumentFromFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", path, err)
	}
	doc, err := LoadDocumentFromBytes(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadDocumentFromBytes decodes a world document. Unknown keys are rejected.
//
// Postcondition: Returns a decoded Document or a non-nil error.
func LoadDocumentFromBytes(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing world JSON: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing world YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported world document format %q", format)
	}
	if !doc.Rows.IsSet() || !doc.Cols.IsSet() {
		return nil, fmt.Errorf("world document requires rows and cols")
	}
	return &doc, nil
}
