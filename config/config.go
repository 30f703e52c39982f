// Package config defines the configuration record the tensor-and-heff core
// consumes, as enumerated in spec.md §6.3. The input-file lexer that
// produces this record from a user deck is out of scope (spec.md §1
// Non-goals); this package only models the recognised option set and
// decodes it from YAML for embedding/testing purposes.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aoleynichenko/EXP-T-sub003/ferr"
)

// Arithmetic selects the global scalar type for every diagram in the run.
type Arithmetic string

const (
	Real    Arithmetic = "real"
	Complex Arithmetic = "complex"
)

// Compression selects the block/record compression scheme for on-disk
// artefacts (spec.md §4.3.7, §6.1).
type Compression string

const (
	NoCompression Compression = "none"
	LZ4           Compression = "lz4"
)

// OpenMPAlgorithm selects which layer of spec.md §5's two-level
// parallelism is threaded.
type OpenMPAlgorithm string

const (
	External OpenMPAlgorithm = "external"
	Internal OpenMPAlgorithm = "internal"
)

// ShiftType selects the IH-IMMS / diveps dynamic-shift formula of spec.md
// §4.3.6.
type ShiftType string

const (
	ShiftNone      ShiftType = "none"
	ShiftReal      ShiftType = "real"
	ShiftRealImag  ShiftType = "realimag"
	ShiftImag      ShiftType = "imag"
	ShiftTaylor    ShiftType = "taylor"
)

// Sector identifies a Fock-space sector (h holes, p particles).
type Sector struct {
	H int `yaml:"h"`
	P int `yaml:"p"`
}

// Shift mirrors the "shift" block of spec.md §6.3.
type Shift struct {
	Enabled     bool      `yaml:"enabled"`
	Type        ShiftType `yaml:"type"`
	Power       int       `yaml:"power"`
	LevelValues []float64 `yaml:"level_values"`
}

// ActiveSpaceKind selects which variant of spec.md §6.3's
// active_space_spec is in use.
type ActiveSpaceKind string

const (
	ByEnergy  ActiveSpaceKind = "by_energy"
	ByTotal   ActiveSpaceKind = "total"
	PerIrrep  ActiveSpaceKind = "per_irrep"
	PerSpinor ActiveSpaceKind = "per_spinor"
)

// ActiveSpaceSpec mirrors spec.md §6.3's active_space_spec union; only the
// fields relevant to Kind are populated.
type ActiveSpaceSpec struct {
	Kind       ActiveSpaceKind `yaml:"kind"`
	EMin       float64         `yaml:"emin,omitempty"`
	EMax       float64         `yaml:"emax,omitempty"`
	NActHoles  int             `yaml:"nacth,omitempty"`
	NActPart   int             `yaml:"nactp,omitempty"`
	PerIrrep   map[string]int  `yaml:"per_irrep,omitempty"`
	PerSpinor  []int           `yaml:"per_spinor,omitempty"`
}

// IHIMMSSubspace is one spinor-energy or spinor-count subspace of spec.md
// §4.6.
type IHIMMSSubspace struct {
	EMin       float64 `yaml:"emin,omitempty"`
	EMax       float64 `yaml:"emax,omitempty"`
	Count      int     `yaml:"count,omitempty"`
}

// IHIMMS mirrors the "IH-IMMS block" of spec.md §6.3 / §4.6.
type IHIMMS struct {
	Enabled         bool             `yaml:"enabled"`
	TargetSectors   []Sector         `yaml:"target_sectors"`
	Subspaces       []IHIMMSSubspace `yaml:"subspaces"`
	MainSignatures  [][]int          `yaml:"main_signatures"`
	FrontierAuto    bool             `yaml:"frontier_auto"`
	Frontier        map[string]float64 `yaml:"frontier,omitempty"` // keyed by "h,p"
	Shift           ShiftType        `yaml:"shift"`
	Power           int              `yaml:"power"`
	Scale           float64          `yaml:"scale"`
	UseBoxFormula   bool             `yaml:"use_box_formula"`
}

// Config is the full recognised-option record of spec.md §6.3.
type Config struct {
	Arithmetic        Arithmetic      `yaml:"arithmetic"`
	TileSize          int             `yaml:"tile_size"`
	DiskUsageLevel    int             `yaml:"disk_usage_level"`
	Compression       Compression     `yaml:"compression"`
	NThreads          int             `yaml:"nthreads"`
	OpenMPAlgorithm   OpenMPAlgorithm `yaml:"openmp_algorithm"`
	TargetSector      Sector          `yaml:"target_sector"`
	ActiveSpace       ActiveSpaceSpec `yaml:"active_space_spec"`
	Shift             Shift           `yaml:"shift"`
	IHIMMS            IHIMMS          `yaml:"ih_imms"`
	HermitiseVectors  bool            `yaml:"hermitise_model_vectors"`
	PrintLevel        int             `yaml:"print_level"`
	DegenThresh       float64         `yaml:"degen_thresh"`
	NRootsPerIrrep    map[string]int  `yaml:"nroots"`
	RootsEnergyCutoff float64         `yaml:"roots_energy_cutoff"`
}

// Default returns a Config with the same conservative defaults the
// original driver assumes when a directive is absent from the input deck.
func Default() Config {
	return Config{
		Arithmetic:      Complex,
		TileSize:        100,
		DiskUsageLevel:  0,
		Compression:     NoCompression,
		NThreads:        1,
		OpenMPAlgorithm: External,
		Shift: Shift{
			Enabled: false,
			Type:    ShiftNone,
		},
		HermitiseVectors: false,
		PrintLevel:       1,
		DegenThresh:      1e-6,
	}
}

// Load reads and validates a Config from a YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, ferr.NewIONotExist("config.Load", err)
		}
		return Config{}, ferr.NewIO("config.Load", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, ferr.NewConfig("config.Load", err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks internal consistency of the recognised fields that this
// core actually branches on.
func (c Config) Validate() error {
	if c.TileSize <= 0 {
		return ferr.NewConfig("config.Validate", "tile_size must be positive")
	}
	if c.DiskUsageLevel < 0 || c.DiskUsageLevel > 4 {
		return ferr.NewConfig("config.Validate", "disk_usage_level must be in 0..4")
	}
	if c.NThreads <= 0 {
		return ferr.NewConfig("config.Validate", "nthreads must be positive")
	}
	switch c.Arithmetic {
	case Real, Complex:
	default:
		return ferr.NewConfig("config.Validate", "arithmetic must be real or complex")
	}
	switch c.Compression {
	case NoCompression, LZ4:
	default:
		return ferr.NewConfig("config.Validate", "compression must be none or lz4")
	}
	switch c.OpenMPAlgorithm {
	case External, Internal:
	default:
		return ferr.NewConfig("config.Validate", "openmp_algorithm must be external or internal")
	}
	return nil
}
